package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"mailmind/internal/model"
	"mailmind/internal/repository"
)

type ProcessedRepository struct {
	db *sql.DB
}

func (r *ProcessedRepository) Load(ctx context.Context, key string) (map[string]model.ProcessedRecord, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]model.ProcessedRecord{}, nil
	}
	if err != nil {
		return nil, &model.StorageError{Op: "load", Key: key, Err: err}
	}

	records, err := repository.DecodeProcessed([]byte(value))
	if err != nil {
		return nil, &model.StorageError{Op: "load", Key: key, Err: err}
	}
	return records, nil
}

func (r *ProcessedRepository) Save(ctx context.Context, key string, records map[string]model.ProcessedRecord) error {
	data, err := repository.EncodeProcessed(records)
	if err != nil {
		return &model.StorageError{Op: "save", Key: key, Err: err}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(data),
	)
	if err != nil {
		return &model.StorageError{Op: "save", Key: key, Err: err}
	}
	return nil
}
