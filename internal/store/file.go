package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"vibeauth/internal/models"
)

// FileStore keeps all records as one JSON array in a file that is rewritten
// on every mutation. The mutex only serializes writers in this process;
// separate processes sharing the file can lose updates.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a FileStore at path. The file is created lazily.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.read()
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *FileStore) Insert(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.read()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Email == user.Email || u.ID == user.ID {
			return ErrDuplicate
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.write(append(users, user))
}

func (s *FileStore) SetLoggedIn(ctx context.Context, id string, loggedIn bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.read()
	if err != nil {
		return err
	}
	idx := -1
	for i := range users {
		if users[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	users[idx].IsLoggedIn = loggedIn
	return s.write(users)
}

func (s *FileStore) Close(context.Context) error { return nil }

// read returns an empty list when the file does not exist yet.
func (s *FileStore) read() ([]models.User, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", s.path, err)
	}
	return users, nil
}

func (s *FileStore) write(users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("error encoding users: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("error writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error replacing %s: %w", s.path, err)
	}
	return nil
}

var _ Backend = (*FileStore)(nil)
