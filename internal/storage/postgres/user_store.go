package postgres

import (
	"context"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	return translate(s.db.WithContext(ctx).Save(user).Error)
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).Order("username ASC").Find(&users).Error
	return users, translate(err)
}
