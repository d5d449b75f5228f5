package models

import "gorm.io/gorm"

// Employee is a service advisor who registers and drives service requests.
type Employee struct {
	gorm.Model
	EmployeeID string `json:"employee_id" gorm:"size:20;uniqueIndex;not null"`
	Name       string `json:"name" gorm:"size:100"`
	Mobile     string `json:"mobile" gorm:"size:10;uniqueIndex;not null"`
	Role       string `json:"role" gorm:"size:50;default:'Service Advisor'"`
	IsActive   bool   `json:"is_active" gorm:"default:true"`
}

// Worker performs assigned tasks. Workers are reference data and are never
// owned by a service request.
type Worker struct {
	gorm.Model
	Name           string `json:"name" gorm:"size:100"`
	Specialization string `json:"specialization" gorm:"size:100"`
	IsAvailable    bool   `json:"is_available" gorm:"default:true"`
}
