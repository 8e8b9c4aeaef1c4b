package store

import (
	"context"
	"sync"

	"vibeauth/internal/models"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]models.User
	emailOf map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEmail: make(map[string]models.User),
		emailOf: make(map[string]string),
	}
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byEmail[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) Insert(ctx context.Context, user models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return ErrDuplicate
	}
	if _, ok := s.emailOf[user.ID]; ok {
		return ErrDuplicate
	}
	s.byEmail[user.Email] = user
	s.emailOf[user.ID] = user.Email
	return nil
}

func (s *MemoryStore) SetLoggedIn(ctx context.Context, id string, loggedIn bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.emailOf[id]
	if !ok {
		return ErrNotFound
	}
	u := s.byEmail[email]
	u.IsLoggedIn = loggedIn
	s.byEmail[email] = u
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

var _ Backend = (*MemoryStore)(nil)
