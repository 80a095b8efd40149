package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	Conn   *sql.DB
	Ctx    context.Context
	Cancel context.CancelFunc
	Path   string
}

func NewSQLiteDB(path string) *SQLiteDB {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	return &SQLiteDB{
		Ctx:    ctx,
		Cancel: cancel,
		Path:   path,
	}
}

func (s *SQLiteDB) Connect() error {
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// one writer; sqlite serialises anyway
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(s.Ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("setting busy timeout: %w", err)
	}

	s.Conn = conn
	return s.Conn.PingContext(s.Ctx)
}

func (s *SQLiteDB) Disconnect() error {
	s.Cancel()
	if s.Conn != nil {
		return s.Conn.Close()
	}
	return nil
}
