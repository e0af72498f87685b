package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleModerator UserRole = "moderator"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// User covers both back-office operators and drivers. Trips and
// bookings reference users by id.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Username     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(128);not null" json:"-"`
	Name         string    `gorm:"type:varchar(128);not null" json:"name"`
	Role         UserRole  `gorm:"type:user_role;not null;default:moderator" json:"role"`
	Position     string    `gorm:"type:varchar(128)" json:"position"`
	Email        *string   `gorm:"type:varchar(128)" json:"email"`
	Phone        *string   `gorm:"type:varchar(32)" json:"phone"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) HashPassword(password string) error {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(bytes)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
