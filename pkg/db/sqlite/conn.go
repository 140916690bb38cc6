package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/panuavakul/v-video-compressor-sub001/internal/config"
)

const (
	// sqlite serializes writers; a single connection avoids
	// SQLITE_BUSY churn from the job recorder.
	maxOpenConns    = 1
	connMaxLifetime = 120 * time.Second
)

func NewSqliteDB(c *config.Config) (*sqlx.DB, error) {
	path := c.Sqlite.Path
	if path == "" {
		path = filepath.Join(os.TempDir(), "v-video-compressor.db")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite dir: %w", err)
		}
	}
	db, err := sqlx.Connect("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	return db, nil
}
