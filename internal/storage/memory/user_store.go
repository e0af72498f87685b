package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return storage.ErrDuplicate
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return storage.ErrNotFound
	}
	for id, existing := range s.users {
		if id != user.ID && existing.Username == user.Username {
			return storage.ErrDuplicate
		}
	}
	user.UpdatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]model.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}
