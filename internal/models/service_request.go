package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ServiceRequest tracks one visit of a vehicle through the shop.
// TrackingID is assigned once at creation and never rewritten; Status only
// changes through the state machine in the services package.
type ServiceRequest struct {
	gorm.Model
	TrackingID string `json:"tracking_id" gorm:"size:12;uniqueIndex;not null"`

	CustomerID uint      `json:"customer_id" gorm:"not null;index"`
	Customer   *Customer `json:"customer,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	VehicleID  uint      `json:"vehicle_id" gorm:"not null"`
	Vehicle    *Vehicle  `json:"vehicle,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	EmployeeID *uint     `json:"employee_id,omitempty"`
	Employee   *Employee `json:"employee,omitempty" gorm:"constraint:OnDelete:SET NULL"`

	ServiceType     ServiceType     `json:"service_type" gorm:"size:50;not null"`
	Description     string          `json:"description"`
	Status          ServiceStatus   `json:"status" gorm:"size:20;not null;default:PENDING;index"`
	EstimatedAmount decimal.Decimal `json:"estimated_amount" gorm:"type:numeric(10,2);default:0"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`

	Assignments []WorkAssignment `json:"assignments,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Payment     *Payment         `json:"payment,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// WorkAssignment links a service request to a worker and a task.
type WorkAssignment struct {
	gorm.Model
	ServiceRequestID uint       `json:"service_request_id" gorm:"not null;index"`
	WorkerID         uint       `json:"worker_id" gorm:"not null"`
	Worker           *Worker    `json:"worker,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	TaskDescription  string     `json:"task_description"`
	AssignedByID     *uint      `json:"assigned_by_id,omitempty"`
	AssignedBy       *Employee  `json:"assigned_by,omitempty" gorm:"foreignKey:AssignedByID;constraint:OnDelete:SET NULL"`
	IsCompleted      bool       `json:"is_completed" gorm:"default:false"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}
