package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TripStatus string

const (
	TripStatusPlanned    TripStatus = "planned"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
)

func (s TripStatus) Valid() bool {
	switch s {
	case TripStatusPlanned, TripStatusInProgress, TripStatusCompleted, TripStatusCancelled:
		return true
	}
	return false
}

// tripTransitions lists the reachable statuses from each status.
// Completed and cancelled trips are terminal.
var tripTransitions = map[TripStatus][]TripStatus{
	TripStatusPlanned:    {TripStatusInProgress, TripStatusCancelled},
	TripStatusInProgress: {TripStatusCompleted, TripStatusCancelled},
	TripStatusCompleted:  {},
	TripStatusCancelled:  {},
}

// CanTransition reports whether a trip may move from s to next.
// A same-status update is always allowed and treated as a no-op.
func (s TripStatus) CanTransition(next TripStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range tripTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Trip struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	VehicleID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	DriverID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"driver_id"`
	StartAt       time.Time  `gorm:"not null" json:"start_at"`
	EndAt         *time.Time `json:"end_at"`
	StartOdometer int64      `gorm:"not null" json:"start_odometer"`
	EndOdometer   *int64     `json:"end_odometer"`
	FuelUsedL     *float64   `json:"fuel_used_l"`
	Purpose       string     `gorm:"type:text" json:"purpose"`
	Status        TripStatus `gorm:"type:trip_status;not null;default:planned" json:"status"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Trip) TableName() string {
	return "trips"
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
