package memory

import (
	"context"
	"sync"

	"mailmind/internal/model"
	"mailmind/internal/repository"
)

type InMemoryUserRepository struct {
	users map[string]*model.User
	mutex sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[string]*model.User),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.users[user.ID] = user
	return nil
}

func (r *InMemoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (r *InMemoryUserRepository) FindByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, user := range r.users {
		if user.GoogleID == googleID {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *InMemoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *model.User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.users[user.ID]; !exists {
		return repository.ErrUserNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *InMemoryUserRepository) Delete(ctx context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.users, id)
	return nil
}

// InMemoryProcessedRepository keeps each mapping as its encoded document so
// callers never share record values with the store.
type InMemoryProcessedRepository struct {
	docs  map[string][]byte
	mutex sync.RWMutex
}

func NewInMemoryProcessedRepository() *InMemoryProcessedRepository {
	return &InMemoryProcessedRepository{
		docs: make(map[string][]byte),
	}
}

func (r *InMemoryProcessedRepository) Load(ctx context.Context, key string) (map[string]model.ProcessedRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	records, err := repository.DecodeProcessed(r.docs[key])
	if err != nil {
		return nil, &model.StorageError{Op: "load", Key: key, Err: err}
	}
	return records, nil
}

func (r *InMemoryProcessedRepository) Save(ctx context.Context, key string, records map[string]model.ProcessedRecord) error {
	data, err := repository.EncodeProcessed(records)
	if err != nil {
		return &model.StorageError{Op: "save", Key: key, Err: err}
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.docs[key] = data
	return nil
}
