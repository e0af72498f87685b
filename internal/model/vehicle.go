package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VehicleStatus string

const (
	VehicleStatusAvailable    VehicleStatus = "available"
	VehicleStatusMaintenance  VehicleStatus = "maintenance"
	VehicleStatusInUse        VehicleStatus = "in_use"
	VehicleStatusOutOfService VehicleStatus = "out_of_service"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusMaintenance, VehicleStatusInUse, VehicleStatusOutOfService:
		return true
	}
	return false
}

type FuelType string

const (
	FuelTypePetrol   FuelType = "petrol"
	FuelTypeDiesel   FuelType = "diesel"
	FuelTypeElectric FuelType = "electric"
	FuelTypeHybrid   FuelType = "hybrid"
)

func (f FuelType) Valid() bool {
	switch f {
	case FuelTypePetrol, FuelTypeDiesel, FuelTypeElectric, FuelTypeHybrid:
		return true
	}
	return false
}

type Vehicle struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Make             string        `gorm:"type:varchar(64);not null" json:"make"`
	Model            string        `gorm:"type:varchar(64);not null" json:"model"`
	Year             int           `gorm:"not null" json:"year"`
	PlateNumber      string        `gorm:"type:varchar(32);uniqueIndex;not null" json:"plate_number"`
	VIN              *string       `gorm:"type:varchar(17);uniqueIndex" json:"vin"`
	Color            string        `gorm:"type:varchar(32)" json:"color"`
	FuelType         FuelType      `gorm:"type:fuel_type;not null" json:"fuel_type"`
	Status           VehicleStatus `gorm:"type:vehicle_status;not null;default:available" json:"status"`
	Mileage          int64         `gorm:"not null;default:0" json:"mileage"`
	AssignedDriverID *uuid.UUID    `gorm:"type:uuid;index" json:"assigned_driver_id"`
	PurchaseDate     *time.Time    `json:"purchase_date"`
	Notes            string        `gorm:"type:text" json:"notes"`
	CreatedAt        time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
