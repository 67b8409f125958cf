package repository

import (
	"context"

	"mailmind/internal/model"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

// ProcessedRepository is the durable key-value store for processed records.
// Each key holds the full mapping as one document; Save overwrites it.
// Load of an unknown key returns an empty mapping.
type ProcessedRepository interface {
	Load(ctx context.Context, key string) (map[string]model.ProcessedRecord, error)
	Save(ctx context.Context, key string, records map[string]model.ProcessedRecord) error
}
