package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Load returns the blob stored under key, or nil if none.
func (p *Pool) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT data FROM attendance_blobs WHERE blob_key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select blob %s: %w", key, err)
	}
	return data, nil
}

// Save replaces the blob stored under key.
func (p *Pool) Save(ctx context.Context, key string, data []byte) error {
	query := `INSERT INTO attendance_blobs (blob_key, data) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE data = VALUES(data)`
	if _, err := p.db.ExecContext(ctx, query, key, data); err != nil {
		return fmt.Errorf("upsert blob %s: %w", key, err)
	}
	return nil
}
