package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"

	_ "github.com/go-sql-driver/mysql"
)

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MariaDB connection pool.
func NewPool(dsn string, cfg *config.StoreConfig) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// ensureSchema creates the blob table if it does not exist.
func (p *Pool) ensureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS attendance_blobs (
			blob_key   VARCHAR(191) NOT NULL PRIMARY KEY,
			data       LONGBLOB     NOT NULL,
			updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create blob table: %w", err)
	}
	return nil
}

// Open connects and prepares the schema.
func Open(ctx context.Context, dsn string, cfg *config.StoreConfig) (*Pool, error) {
	pool, err := NewPool(dsn, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.ensureSchema(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return pool, nil
}

// Register makes "mysql://" and "mariadb://" store URLs available to
// database.Open. The part after the scheme is a go-sql-driver DSN such as
// "user:pass@tcp(db:3306)/kiosk".
func Register(cfg *config.StoreConfig) {
	for _, scheme := range []string{"mysql", "mariadb"} {
		database.RegisterBackend(scheme, func(ctx context.Context, dsn string) (database.BlobStore, error) {
			return Open(ctx, dsn, cfg)
		})
	}
}
