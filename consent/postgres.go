package consent

import (
	"context"

	"github.com/voxkit/assistant-widget/internal/storage/postgres"
)

// PostgresStore persists consent flags in Postgres. The embedded schema
// migration is applied on open.
type PostgresStore struct {
	db   *postgres.DB
	repo *postgres.ConsentRepository
}

// NewPostgresStore connects to the database at dsn and migrates the
// consent schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := postgres.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{
		db:   db,
		repo: postgres.NewConsentRepository(db.Pool()),
	}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (Decision, error) {
	granted, found, err := s.repo.Get(ctx, key)
	if err != nil {
		return Undecided, err
	}
	if !found {
		return Undecided, nil
	}
	return decisionOf(granted), nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, granted bool) error {
	return s.repo.Set(ctx, key, granted)
}

func (s *PostgresStore) Clear(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

// Close releases the database pool.
func (s *PostgresStore) Close() {
	s.db.Close()
}
