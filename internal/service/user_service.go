package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

type UserService struct {
	store storage.Store
	log   zerolog.Logger
}

func NewUserService(store storage.Store, log zerolog.Logger) *UserService {
	return &UserService{store: store, log: log}
}

type CreateUserInput struct {
	Username string
	Password string
	Name     string
	Role     string
	Position string
	Email    *string
	Phone    *string
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	username := strings.TrimSpace(strings.ToLower(input.Username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	role := model.RoleModerator
	if input.Role != "" {
		role = model.UserRole(input.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
		}
	}

	user := &model.User{
		Username: username,
		Name:     input.Name,
		Role:     role,
		Position: input.Position,
		Email:    input.Email,
		Phone:    input.Phone,
	}
	if err := user.HashPassword(input.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return fmt.Errorf("%w: username already taken", ErrConflict)
			}
			return mapStoreErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

type UpdateUserInput struct {
	Password *string
	Name     *string
	Role     *string
	Position *string
	Email    *string
	Phone    *string
}

func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*model.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}

	var role *model.UserRole
	if input.Role != nil {
		r := model.UserRole(*input.Role)
		if !r.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *input.Role)
		}
		role = &r
	}
	if input.Password != nil && len(*input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}

	var user *model.User
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return mapStoreErr(err)
		}

		if input.Name != nil {
			if *input.Name == "" {
				return fmt.Errorf("%w: name is required", ErrInvalidInput)
			}
			u.Name = *input.Name
		}
		if role != nil {
			u.Role = *role
		}
		if input.Position != nil {
			u.Position = *input.Position
		}
		if input.Email != nil {
			if *input.Email == "" {
				u.Email = nil
			} else {
				u.Email = input.Email
			}
		}
		if input.Phone != nil {
			if *input.Phone == "" {
				u.Phone = nil
			} else {
				u.Phone = input.Phone
			}
		}
		if input.Password != nil {
			if err := u.HashPassword(*input.Password); err != nil {
				return fmt.Errorf("%w: %v", ErrStorage, err)
			}
		}

		if err := tx.UpdateUser(ctx, u); err != nil {
			return mapStoreErr(err)
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidInput
	}

	return s.store.WithTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return mapStoreErr(err)
		}

		trips, err := tx.CountTrips(ctx, storage.TripFilter{DriverID: &userID})
		if err != nil {
			return mapStoreErr(err)
		}
		bookings, err := tx.CountBookings(ctx, storage.BookingFilter{UserID: &userID})
		if err != nil {
			return mapStoreErr(err)
		}
		if trips > 0 || bookings > 0 {
			return fmt.Errorf("%w: user has trips or bookings", ErrConflict)
		}

		// Vehicle assignment does not block deletion, it is released.
		assigned, err := tx.ListVehicles(ctx, storage.VehicleFilter{AssignedDriverID: &userID})
		if err != nil {
			return mapStoreErr(err)
		}
		for i := range assigned {
			assigned[i].AssignedDriverID = nil
			if err := tx.UpdateVehicle(ctx, &assigned[i]); err != nil {
				return mapStoreErr(err)
			}
		}

		if err := tx.DeleteUser(ctx, userID); err != nil {
			return mapStoreErr(err)
		}
		return nil
	})
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, mapStoreErr(err)
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, mapStoreErr(err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return users, nil
}

// Authenticate verifies a username/password pair. Both unknown users and
// wrong passwords come back as the same error so login responses do not
// leak which usernames exist.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", ErrPermissionDenied)
		}
		return nil, mapStoreErr(err)
	}
	if err := user.CheckPassword(password); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrPermissionDenied)
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account on first start. A blank
// password disables bootstrapping entirely.
func (s *UserService) EnsureAdmin(ctx context.Context, password string) error {
	if password == "" {
		return nil
	}

	_, err := s.store.GetUserByUsername(ctx, "admin")
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return mapStoreErr(err)
	}

	admin := &model.User{
		Username: "admin",
		Name:     "Administrator",
		Role:     model.RoleAdmin,
	}
	if err := admin.HashPassword(password); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		return tx.CreateUser(ctx, admin)
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil
		}
		return mapStoreErr(err)
	}

	s.log.Info().Str("username", admin.Username).Msg("bootstrap admin created")
	return nil
}
