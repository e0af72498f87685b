package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MaintenanceType string

const (
	MaintenanceTypeScheduled   MaintenanceType = "scheduled"
	MaintenanceTypeUnscheduled MaintenanceType = "unscheduled"
	MaintenanceTypeRepair      MaintenanceType = "repair"
)

func (t MaintenanceType) Valid() bool {
	switch t {
	case MaintenanceTypeScheduled, MaintenanceTypeUnscheduled, MaintenanceTypeRepair:
		return true
	}
	return false
}

type MaintenanceStatus string

const (
	MaintenanceStatusPending    MaintenanceStatus = "pending"
	MaintenanceStatusInProgress MaintenanceStatus = "in_progress"
	MaintenanceStatusCompleted  MaintenanceStatus = "completed"
)

func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintenanceStatusPending, MaintenanceStatusInProgress, MaintenanceStatusCompleted:
		return true
	}
	return false
}

// A pending job may be completed directly, skipping in_progress,
// so historical records can be closed in one step.
var maintenanceTransitions = map[MaintenanceStatus][]MaintenanceStatus{
	MaintenanceStatusPending:    {MaintenanceStatusInProgress, MaintenanceStatusCompleted},
	MaintenanceStatusInProgress: {MaintenanceStatusCompleted},
	MaintenanceStatusCompleted:  {},
}

func (s MaintenanceStatus) CanTransition(next MaintenanceStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range maintenanceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type MaintenanceRecord struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	VehicleID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Type            MaintenanceType   `gorm:"type:maintenance_type;not null" json:"type"`
	Description     string            `gorm:"type:text;not null" json:"description"`
	Date            time.Time         `gorm:"not null;index" json:"date"`
	Cost            *float64          `json:"cost"`
	OdometerReading *int64            `json:"odometer_reading"`
	Status          MaintenanceStatus `gorm:"type:maintenance_status;not null;default:pending" json:"status"`
	CompletedAt     *time.Time        `json:"completed_at"`
	Notes           string            `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MaintenanceRecord) TableName() string {
	return "maintenance_records"
}

func (m *MaintenanceRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
