package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConsentRepository handles database operations for consent flags.
type ConsentRepository struct {
	pool *pgxpool.Pool
}

// NewConsentRepository creates a new ConsentRepository.
func NewConsentRepository(pool *pgxpool.Pool) *ConsentRepository {
	return &ConsentRepository{pool: pool}
}

// Get returns the flag stored under key. found is false when no
// decision has been recorded.
func (r *ConsentRepository) Get(ctx context.Context, key string) (granted, found bool, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT granted FROM consent_flags WHERE storage_key = $1`, key,
	).Scan(&granted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("get consent: %w", err)
	}
	return granted, true, nil
}

// Set records a decision under key, replacing any prior one.
func (r *ConsentRepository) Set(ctx context.Context, key string, granted bool) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO consent_flags (storage_key, granted, decided_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (storage_key)
		 DO UPDATE SET granted = EXCLUDED.granted, decided_at = now()`,
		key, granted,
	)
	if err != nil {
		return fmt.Errorf("set consent: %w", err)
	}
	return nil
}

// Delete removes any decision stored under key.
func (r *ConsentRepository) Delete(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM consent_flags WHERE storage_key = $1`, key,
	)
	if err != nil {
		return fmt.Errorf("delete consent: %w", err)
	}
	return nil
}
