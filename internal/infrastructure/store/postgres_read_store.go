package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Decoders maps a collection name to a constructor of its read model type.
// Rows are decoded into the value the constructor returns.
type Decoders map[string]func() any

// PostgresReadStore implements ReadStoreInterface on the read_models jsonb table
type PostgresReadStore struct {
	db       *sql.DB
	decoders Decoders
}

func NewPostgresReadStore(db *sql.DB, decoders Decoders) *PostgresReadStore {
	return &PostgresReadStore{db: db, decoders: decoders}
}

func (rs *PostgresReadStore) Set(ctx context.Context, collection, id string, data any) error {
	return rs.upsert(ctx, rs.db, collection, id, data)
}

func (rs *PostgresReadStore) Get(ctx context.Context, collection, id string) (any, bool, error) {
	var raw []byte
	err := rs.db.QueryRowContext(ctx,
		"SELECT data FROM read_models WHERE collection = $1 AND id = $2",
		collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	v, err := rs.decode(collection, raw)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (rs *PostgresReadStore) GetAll(ctx context.Context, collection string) ([]any, error) {
	rows, err := rs.db.QueryContext(ctx,
		"SELECT data FROM read_models WHERE collection = $1",
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
		}
		v, err := rs.decode(collection, raw)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (rs *PostgresReadStore) Delete(ctx context.Context, collection, id string) error {
	_, err := rs.db.ExecContext(ctx,
		"DELETE FROM read_models WHERE collection = $1 AND id = $2",
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update locks the row for the duration of updateFn so concurrent projectors serialize
func (rs *PostgresReadStore) Update(ctx context.Context, collection, id string, updateFn func(current any) any) (bool, error) {
	tx, err := rs.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw []byte
	err = tx.QueryRowContext(ctx,
		"SELECT data FROM read_models WHERE collection = $1 AND id = $2 FOR UPDATE",
		collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock %s/%s: %w", collection, id, err)
	}

	current, err := rs.decode(collection, raw)
	if err != nil {
		return false, err
	}
	if err := rs.upsert(ctx, tx, collection, id, updateFn(current)); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit %s/%s: %w", collection, id, err)
	}
	return true, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (rs *PostgresReadStore) upsert(ctx context.Context, db execer, collection, id string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", collection, id, err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO read_models (collection, id, data, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (collection, id) DO UPDATE
		 SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		collection, id, raw, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store %s/%s: %w", collection, id, err)
	}
	return nil
}

func (rs *PostgresReadStore) decode(collection string, raw []byte) (any, error) {
	newValue, ok := rs.decoders[collection]
	if !ok {
		return nil, fmt.Errorf("no decoder registered for collection %q", collection)
	}
	v := newValue()
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return v, nil
}
