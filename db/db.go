package db

type DBType string

const (
	Postgres DBType = "postgres"
	Mongo    DBType = "mongo"
	SQLite   DBType = "sqlite"
	Memory   DBType = "memory"
)

// DB is a connection the server opens at start and closes on shutdown.
type DB interface {
	Connect() error
	Disconnect() error
}
