package cli

import (
	"database/sql"
	"fmt"

	"mailmind/internal/config"
	"mailmind/internal/repository"
	"mailmind/internal/repository/memory"
	"mailmind/internal/repository/postgres"
	"mailmind/internal/repository/sqlite"
)

// storage is the selected backend for users and processed records.
type storage struct {
	kind      string
	users     repository.UserRepository
	processed repository.ProcessedRepository
	close     func() error
}

func (s *storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// openStorage picks postgres when DATABASE_URL is set, then a sqlite file
// at STORAGE_PATH, then memory.
func openStorage(cfg *config.Config) (*storage, error) {
	switch {
	case cfg.DatabaseURL != "":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := postgres.InitializeDatabase(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return &storage{
			kind:      "postgres",
			users:     postgres.NewPostgresUserRepository(db),
			processed: postgres.NewPostgresProcessedRepository(db),
			close:     db.Close,
		}, nil

	case cfg.StoragePath != "":
		db, err := sqlite.New(cfg.StoragePath)
		if err != nil {
			return nil, err
		}
		return &storage{
			kind:      "sqlite",
			users:     db.Users(),
			processed: db.Processed(),
			close:     db.Close,
		}, nil

	default:
		return &storage{
			kind:      "memory",
			users:     memory.NewInMemoryUserRepository(),
			processed: memory.NewInMemoryProcessedRepository(),
		}, nil
	}
}
