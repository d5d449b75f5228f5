package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment settles a service request. There is at most one row per request;
// re-recording a payment updates the row and keeps its ReceiptNumber.
type Payment struct {
	gorm.Model
	ServiceRequestID uint            `json:"service_request_id" gorm:"uniqueIndex;not null"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:numeric(10,2);not null"`
	Method           PaymentMethod   `json:"method" gorm:"size:20;not null"`
	Status           PaymentStatus   `json:"status" gorm:"size:20;not null;default:PENDING"`
	TransactionID    string          `json:"transaction_id" gorm:"size:50"`
	ReceiptNumber    string          `json:"receipt_number" gorm:"size:20;uniqueIndex;not null"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
}
