package models

import "gorm.io/gorm"

// Notification is an outbox-style message for a customer. Persisting it is
// the whole delivery contract.
type Notification struct {
	gorm.Model
	CustomerID uint   `json:"customer_id" gorm:"not null;index"`
	Message    string `json:"message" gorm:"not null"`
	IsRead     bool   `json:"is_read" gorm:"default:false;index"`
}
