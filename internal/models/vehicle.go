package models

import (
	"strings"

	"gorm.io/gorm"
)

type Vehicle struct {
	gorm.Model
	CustomerID    uint        `json:"customer_id" gorm:"not null;index"`
	VehicleNumber string      `json:"vehicle_number" gorm:"size:20;uniqueIndex;not null"`
	VehicleType   VehicleType `json:"vehicle_type" gorm:"size:2"`
	Brand         string      `json:"brand" gorm:"size:100"`
	ModelName     string      `json:"model" gorm:"column:model;size:100"`
	Year          int         `json:"year" gorm:"default:2020"`
}

// NormalizeVehicleNumber strips spaces and upper-cases a registration number.
func NormalizeVehicleNumber(raw string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
}

// BeforeSave keeps registration numbers in canonical form.
func (v *Vehicle) BeforeSave(tx *gorm.DB) error {
	v.VehicleNumber = NormalizeVehicleNumber(v.VehicleNumber)
	if v.Year == 0 {
		v.Year = 2020
	}
	return nil
}
