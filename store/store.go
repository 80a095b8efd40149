// Package store opens the bill repository selected by DB_TYPE.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shopbilling/config"
	"shopbilling/db"
	"shopbilling/db/mongo"
	"shopbilling/db/postgres"
	"shopbilling/db/sqlite"
	"shopbilling/repository"
)

// Store is an open repository plus the connection behind it.
type Store struct {
	Bills repository.BillRepository
	conn  db.DB
}

// Close releases the underlying connection, if any.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Disconnect()
}

// Open connects to the configured backend. When migrate is true the SQL
// backends are brought up to the latest schema and Mongo indexes are ensured.
func Open(cfg *config.Config, migrate bool) (*Store, error) {
	switch db.DBType(cfg.DBType) {
	case db.Postgres:
		pg := postgres.NewPostgresDB(cfg.PostgresURL, cfg.MaxDBConns)
		if err := pg.Connect(); err != nil {
			pg.Disconnect()
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if migrate {
			if err := db.RunPostgresMigrations(pg.Conn); err != nil {
				pg.Disconnect()
				return nil, err
			}
		}
		slog.Info("Connected to database", "type", cfg.DBType, "max_conns", cfg.MaxDBConns)
		return &Store{Bills: repository.NewPostgresBillRepo(pg.Conn), conn: pg}, nil

	case db.Mongo:
		mg := mongo.NewMongoDB(cfg.MongoURL, cfg.MongoDB)
		if err := mg.Connect(); err != nil {
			mg.Disconnect()
			return nil, fmt.Errorf("connecting to mongo: %w", err)
		}
		repo := repository.NewMongoBillRepo(mg.Client, cfg.MongoDB)
		if migrate {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := repo.EnsureIndexes(ctx); err != nil {
				mg.Disconnect()
				return nil, err
			}
		}
		slog.Info("Connected to database", "type", cfg.DBType, "database", cfg.MongoDB)
		return &Store{Bills: repo, conn: mg}, nil

	case db.SQLite:
		sq := sqlite.NewSQLiteDB(cfg.SQLitePath)
		if err := sq.Connect(); err != nil {
			sq.Disconnect()
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		if migrate {
			if err := db.RunSQLiteMigrations(sq.Conn); err != nil {
				sq.Disconnect()
				return nil, err
			}
		}
		slog.Info("Connected to database", "type", cfg.DBType, "path", cfg.SQLitePath)
		return &Store{Bills: repository.NewSQLiteBillRepo(sq.Conn), conn: sq}, nil

	case db.Memory:
		slog.Warn("Using in-memory bill store; bills are lost on restart")
		return &Store{Bills: repository.NewMemoryBillRepo()}, nil

	default:
		return nil, fmt.Errorf("DB_TYPE %q not supported", cfg.DBType)
	}
}
