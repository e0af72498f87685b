package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusApproved  BookingStatus = "approved"
	BookingStatusDeclined  BookingStatus = "declined"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusApproved, BookingStatusDeclined,
		BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusApproved, BookingStatusDeclined, BookingStatusCancelled},
	BookingStatusApproved:  {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusDeclined:  {},
	BookingStatusCancelled: {},
	BookingStatusCompleted: {},
}

func (s BookingStatus) CanTransition(next BookingStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	VehicleID uuid.UUID     `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	UserID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	StartAt   time.Time     `gorm:"not null" json:"start_at"`
	EndAt     time.Time     `gorm:"not null" json:"end_at"`
	Purpose   string        `gorm:"type:text" json:"purpose"`
	Status    BookingStatus `gorm:"type:booking_status;not null;default:pending" json:"status"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
