package models

import "gorm.io/gorm"

// PlaceholderCustomerName marks a customer created implicitly (OTP login or
// intake) whose profile has not been completed yet.
const PlaceholderCustomerName = "Customer"

// Customer owns vehicles, service requests and notifications.
type Customer struct {
	gorm.Model
	Name    string `json:"name" gorm:"size:100"`
	Mobile  string `json:"mobile" gorm:"size:10;uniqueIndex;not null"`
	Email   string `json:"email" gorm:"size:254"`
	Address string `json:"address"`

	Vehicles      []Vehicle      `json:"vehicles,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Notifications []Notification `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// NeedsProfile reports whether the customer still carries the placeholder name.
func (c *Customer) NeedsProfile() bool {
	return c.Name == "" || c.Name == PlaceholderCustomerName
}
