package storage

import (
	"context"
	"errors"

	"github.com/Ananth-NQI/smartservice-backend/internal/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate key")
)

// Store defines the interface for storage operations.
//
// Atomic runs fn against a transactional view of the store. Everything fn
// does commits together or not at all; implementations serialise OTP work
// per (mobile, purpose) through LockOTPPair and lock service request rows
// read through GetServiceRequest while inside Atomic.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error

	// OTP operations
	LockOTPPair(ctx context.Context, mobile string, purpose models.OTPPurpose) error
	InvalidateOTPs(ctx context.Context, mobile string, purpose models.OTPPurpose) (int64, error)
	CreateOTP(ctx context.Context, otp *models.OTP) error
	LatestUnusedOTP(ctx context.Context, mobile string, purpose models.OTPPurpose) (*models.OTP, error)
	MarkOTPUsed(ctx context.Context, id uint) error

	// Customer operations
	GetCustomer(ctx context.Context, id uint) (*models.Customer, error)
	GetCustomerByMobile(ctx context.Context, mobile string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	UpdateCustomer(ctx context.Context, customer *models.Customer) error

	// Vehicle operations
	GetVehicle(ctx context.Context, id uint) (*models.Vehicle, error)
	GetVehicleByNumber(ctx context.Context, number string) (*models.Vehicle, error)
	CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error

	// Staff operations
	GetEmployee(ctx context.Context, id uint) (*models.Employee, error)
	GetActiveEmployee(ctx context.Context, employeeID, mobile string) (*models.Employee, error)
	CreateEmployee(ctx context.Context, employee *models.Employee) error
	GetWorker(ctx context.Context, id uint) (*models.Worker, error)
	ListWorkers(ctx context.Context) ([]models.Worker, error)
	CreateWorker(ctx context.Context, worker *models.Worker) error

	// Service request operations
	CreateServiceRequest(ctx context.Context, sr *models.ServiceRequest) error
	GetServiceRequest(ctx context.Context, trackingID string) (*models.ServiceRequest, error)
	GetServiceRequestByID(ctx context.Context, id uint) (*models.ServiceRequest, error)
	UpdateServiceRequest(ctx context.Context, sr *models.ServiceRequest) error
	ListServiceRequests(ctx context.Context, limit int) ([]models.ServiceRequest, error)
	ListServiceRequestsByCustomer(ctx context.Context, customerID uint) ([]models.ServiceRequest, error)

	// Work assignment operations
	CreateWorkAssignment(ctx context.Context, assignment *models.WorkAssignment) error
	GetWorkAssignment(ctx context.Context, id uint) (*models.WorkAssignment, error)
	UpdateWorkAssignment(ctx context.Context, assignment *models.WorkAssignment) error

	// Payment operations
	GetPaymentByServiceRequest(ctx context.Context, serviceRequestID uint) (*models.Payment, error)
	GetPaymentByReceipt(ctx context.Context, receiptNumber string) (*models.Payment, error)
	SavePayment(ctx context.Context, payment *models.Payment) error

	// Notification operations
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, customerID uint) ([]models.Notification, error)
	ListUnreadNotifications(ctx context.Context, customerID uint) ([]models.Notification, error)
	MarkNotificationsRead(ctx context.Context, ids []uint) error
}
