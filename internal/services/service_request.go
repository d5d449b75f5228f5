package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/smartservice-backend/internal/models"
	"github.com/Ananth-NQI/smartservice-backend/internal/storage"
	"github.com/Ananth-NQI/smartservice-backend/internal/utils"
)

const (
	TrackingIDPrefix    = "SS"
	ReceiptNumberPrefix = "RCP"
	identifierDigits    = 8

	// maxIdentifierAttempts bounds regeneration after a unique-index collision.
	maxIdentifierAttempts = 5

	// AcceptanceOTPLabel names the acceptance flow in the OTP SMS.
	AcceptanceOTPLabel = "service acceptance"
)

// NewTrackingID returns a random "SS" + 8 digit tracking id.
func NewTrackingID() (string, error) {
	return utils.GenerateSecureID(TrackingIDPrefix, identifierDigits)
}

// NewReceiptNumber returns a random "RCP" + 8 digit receipt number.
func NewReceiptNumber() (string, error) {
	return utils.GenerateSecureID(ReceiptNumberPrefix, identifierDigits)
}

// ServiceRequestService drives a service request through its lifecycle.
// Every transition runs in one store transaction with the request row
// locked, and persists its customer notification in that same transaction.
type ServiceRequestService struct {
	store    storage.Store
	otp      *OTPService
	notifier *Notifier
	logger   *zap.Logger

	now              func() time.Time
	newTrackingID    func() (string, error)
	newReceiptNumber func() (string, error)
}

func NewServiceRequestService(store storage.Store, otp *OTPService, notifier *Notifier, logger *zap.Logger) *ServiceRequestService {
	return &ServiceRequestService{
		store:            store,
		otp:              otp,
		notifier:         notifier,
		logger:           logger,
		now:              time.Now,
		newTrackingID:    NewTrackingID,
		newReceiptNumber: NewReceiptNumber,
	}
}

// CreateInput describes a new service request for an existing customer and vehicle.
type CreateInput struct {
	CustomerID      uint
	VehicleID       uint
	EmployeeID      *uint
	ServiceType     models.ServiceType
	Description     string
	EstimatedAmount decimal.Decimal
}

// Create stores a new PENDING request under a freshly generated tracking id.
func (s *ServiceRequestService) Create(ctx context.Context, in CreateInput) (*models.ServiceRequest, error) {
	var sr *models.ServiceRequest
	err := s.store.Atomic(ctx, func(tx storage.Store) error {
		var err error
		sr, err = s.createWith(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sr, nil
}

func (s *ServiceRequestService) createWith(ctx context.Context, tx storage.Store, in CreateInput) (*models.ServiceRequest, error) {
	if in.ServiceType == "" {
		return nil, fmt.Errorf("%w: service type is required", ErrInvalidInput)
	}
	if in.EstimatedAmount.IsNegative() {
		return nil, fmt.Errorf("%w: estimated amount cannot be negative", ErrInvalidInput)
	}
	if _, err := tx.GetCustomer(ctx, in.CustomerID); err != nil {
		return nil, fmt.Errorf("customer %d: %w", in.CustomerID, err)
	}
	vehicle, err := tx.GetVehicle(ctx, in.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("vehicle %d: %w", in.VehicleID, err)
	}
	if vehicle.CustomerID != in.CustomerID {
		s.logger.Warn("vehicle registered to another customer",
			zap.String("vehicle_number", vehicle.VehicleNumber),
			zap.Uint("owner_id", vehicle.CustomerID),
			zap.Uint("customer_id", in.CustomerID),
		)
	}

	for attempt := 1; attempt <= maxIdentifierAttempts; attempt++ {
		trackingID, err := s.newTrackingID()
		if err != nil {
			return nil, err
		}
		sr := &models.ServiceRequest{
			TrackingID:      trackingID,
			CustomerID:      in.CustomerID,
			VehicleID:       in.VehicleID,
			EmployeeID:      in.EmployeeID,
			ServiceType:     in.ServiceType,
			Description:     in.Description,
			Status:          models.StatusPending,
			EstimatedAmount: in.EstimatedAmount,
		}
		err = tx.CreateServiceRequest(ctx, sr)
		if errors.Is(err, storage.ErrDuplicate) {
			s.logger.Warn("tracking id collision", zap.String("tracking_id", trackingID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create service request: %w", err)
		}
		s.logger.Info("service request created",
			zap.String("tracking_id", sr.TrackingID),
			zap.Uint("customer_id", sr.CustomerID),
			zap.String("service_type", string(sr.ServiceType)),
		)
		return sr, nil
	}
	return nil, fmt.Errorf("tracking id: %w", ErrIdentifierCollision)
}

// IntakeInput is the employee-side form for registering a vehicle visit.
type IntakeInput struct {
	CustomerName    string
	Mobile          string
	VehicleNumber   string
	VehicleType     models.VehicleType
	Brand           string
	Model           string
	ServiceType     models.ServiceType
	Description     string
	EstimatedAmount decimal.Decimal
}

// IntakeResult reports the created request and whether the acceptance code
// reached the messenger.
type IntakeResult struct {
	Request      *models.ServiceRequest `json:"service_request"`
	OTPDelivered bool                   `json:"otp_delivered"`
	MaskedMobile string                 `json:"masked_mobile"`
}

// Intake registers a walk-in: the customer is found or created by mobile,
// the vehicle by registration number, a PENDING request is created for the
// acting employee, and a verify_vehicle code is stored with it. The code is
// sent after commit; a failed send is reported through OTPDelivered.
func (s *ServiceRequestService) Intake(ctx context.Context, actor models.Principal, in IntakeInput) (*IntakeResult, error) {
	if !actor.IsEmployee() {
		return nil, ErrUnauthorized
	}
	mobile := utils.NormalizeMobile(in.Mobile)
	if err := validateMobile(mobile); err != nil {
		return nil, err
	}
	number := models.NormalizeVehicleNumber(in.VehicleNumber)
	if number == "" {
		return nil, fmt.Errorf("%w: vehicle number is required", ErrInvalidInput)
	}
	name := strings.TrimSpace(in.CustomerName)

	var (
		sr   *models.ServiceRequest
		code string
	)
	err := s.store.Atomic(ctx, func(tx storage.Store) error {
		customer, err := getOrCreateCustomer(ctx, tx, mobile, name)
		if err != nil {
			return err
		}

		vehicle, err := tx.GetVehicleByNumber(ctx, number)
		if errors.Is(err, storage.ErrNotFound) {
			vehicle = &models.Vehicle{
				CustomerID:    customer.ID,
				VehicleNumber: number,
				VehicleType:   in.VehicleType,
				Brand:         strings.TrimSpace(in.Brand),
				ModelName:     strings.TrimSpace(in.Model),
				Year:          2020,
			}
			err = tx.CreateVehicle(ctx, vehicle)
		}
		if err != nil {
			return fmt.Errorf("vehicle %s: %w", number, err)
		}

		employeeID := actor.ID
		sr, err = s.createWith(ctx, tx, CreateInput{
			CustomerID:      customer.ID,
			VehicleID:       vehicle.ID,
			EmployeeID:      &employeeID,
			ServiceType:     in.ServiceType,
			Description:     strings.TrimSpace(in.Description),
			EstimatedAmount: in.EstimatedAmount,
		})
		if err != nil {
			return err
		}

		code, err = s.otp.issueWith(ctx, tx, mobile, models.PurposeVerifyVehicle)
		if err != nil {
			return fmt.Errorf("issue acceptance otp: %w", err)
		}

		sr, err = tx.GetServiceRequestByID(ctx, sr.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	delivered := s.otp.Send(ctx, mobile, code, AcceptanceOTPLabel) == nil
	return &IntakeResult{Request: sr, OTPDelivered: delivered, MaskedMobile: utils.MaskMobile(mobile)}, nil
}

// getOrCreateCustomer finds a customer by mobile or creates one. A customer
// still carrying the placeholder name takes name when one is given.
func getOrCreateCustomer(ctx context.Context, tx storage.Store, mobile, name string) (*models.Customer, error) {
	customer, err := tx.GetCustomerByMobile(ctx, mobile)
	if errors.Is(err, storage.ErrNotFound) {
		if name == "" {
			name = models.PlaceholderCustomerName
		}
		customer = &models.Customer{Name: name, Mobile: mobile}
		if err := tx.CreateCustomer(ctx, customer); err != nil {
			return nil, fmt.Errorf("create customer: %w", err)
		}
		return customer, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	if customer.NeedsProfile() && name != "" && name != customer.Name {
		customer.Name = name
		if err := tx.UpdateCustomer(ctx, customer); err != nil {
			return nil, fmt.Errorf("update customer: %w", err)
		}
	}
	return customer, nil
}

// ResendAcceptanceOTP issues a fresh verify_vehicle code to the request's
// customer, superseding the previous one.
func (s *ServiceRequestService) ResendAcceptanceOTP(ctx context.Context, trackingID string) (bool, error) {
	sr, err := s.store.GetServiceRequest(ctx, trackingID)
	if err != nil {
		return false, fmt.Errorf("service request %s: %w", trackingID, err)
	}
	if sr.Customer == nil {
		return false, fmt.Errorf("customer of %s: %w", trackingID, ErrNotFound)
	}
	return s.otp.IssueAndSend(ctx, sr.Customer.Mobile, models.PurposeVerifyVehicle, AcceptanceOTPLabel)
}

// transition loads the request locked inside a transaction and hands it to fn.
func (s *ServiceRequestService) transition(ctx context.Context, trackingID string, fn func(tx storage.Store, sr *models.ServiceRequest) error) (*models.ServiceRequest, error) {
	var out *models.ServiceRequest
	err := s.store.Atomic(ctx, func(tx storage.Store) error {
		sr, err := tx.GetServiceRequest(ctx, trackingID)
		if err != nil {
			return fmt.Errorf("service request %s: %w", trackingID, err)
		}
		if err := fn(tx, sr); err != nil {
			return err
		}
		out, err = tx.GetServiceRequestByID(ctx, sr.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ServiceRequestService) setStatus(ctx context.Context, tx storage.Store, sr *models.ServiceRequest, status models.ServiceStatus) error {
	from := sr.Status
	sr.Status = status
	sr.UpdatedAt = s.now()
	if err := tx.UpdateServiceRequest(ctx, sr); err != nil {
		return fmt.Errorf("update service request: %w", err)
	}
	s.logger.Info("service request status changed",
		zap.String("tracking_id", sr.TrackingID),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)
	return nil
}

// AcceptViaOTP consumes the customer's verify_vehicle code and moves the
// request to ACCEPTED. A wrong or expired code leaves the request unchanged
// and returns ErrOTPMismatch or ErrOTPExpired.
func (s *ServiceRequestService) AcceptViaOTP(ctx context.Context, trackingID, code string) (*models.ServiceRequest, error) {
	return s.transition(ctx, trackingID, func(tx storage.Store, sr *models.ServiceRequest) error {
		if sr.Customer == nil {
			return fmt.Errorf("customer of %s: %w", trackingID, ErrNotFound)
		}
		if err := s.otp.checkWith(ctx, tx, sr.Customer.Mobile, strings.TrimSpace(code), models.PurposeVerifyVehicle); err != nil {
			return err
		}
		if err := s.setStatus(ctx, tx, sr, models.StatusAccepted); err != nil {
			return err
		}
		return s.notifier.emit(ctx, tx, sr.CustomerID, AcceptedMessage(sr.TrackingID))
	})
}

// AssignWorkInput names the worker, the task and the assigning employee.
type AssignWorkInput struct {
	WorkerID   uint
	Task       string
	AssignedBy *uint
}

// AssignWork records a work assignment and moves the request to IN_PROGRESS.
func (s *ServiceRequestService) AssignWork(ctx context.Context, trackingID string, in AssignWorkInput) (*models.ServiceRequest, error) {
	return s.transition(ctx, trackingID, func(tx storage.Store, sr *models.ServiceRequest) error {
		worker, err := tx.GetWorker(ctx, in.WorkerID)
		if err != nil {
			return fmt.Errorf("worker %d: %w", in.WorkerID, err)
		}
		assignment := &models.WorkAssignment{
			ServiceRequestID: sr.ID,
			WorkerID:         worker.ID,
			TaskDescription:  strings.TrimSpace(in.Task),
			AssignedByID:     in.AssignedBy,
		}
		if err := tx.CreateWorkAssignment(ctx, assignment); err != nil {
			return fmt.Errorf("create work assignment: %w", err)
		}
		if err := s.setStatus(ctx, tx, sr, models.StatusInProgress); err != nil {
			return err
		}
		return s.notifier.emit(ctx, tx, sr.CustomerID, WorkAssignedMessage(sr.TrackingID, worker.Name))
	})
}

// SetStatus overwrites the status. COMPLETED also stamps completed_at and
// notifies the customer; other targets are silent.
func (s *ServiceRequestService) SetStatus(ctx context.Context, trackingID string, status models.ServiceStatus) (*models.ServiceRequest, error) {
	if _, err := models.ParseServiceStatus(string(status)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.transition(ctx, trackingID, func(tx storage.Store, sr *models.ServiceRequest) error {
		if status != models.StatusCompleted {
			return s.setStatus(ctx, tx, sr, status)
		}
		completedAt := s.now()
		sr.CompletedAt = &completedAt
		if err := s.setStatus(ctx, tx, sr, status); err != nil {
			return err
		}
		return s.notifier.emit(ctx, tx, sr.CustomerID, CompletedMessage(sr.TrackingID))
	})
}

// PaymentInput carries a payment. A nil Amount defaults to the request's
// estimated amount.
type PaymentInput struct {
	Amount        *decimal.Decimal
	Method        models.PaymentMethod
	TransactionID string
}

// RecordPayment upserts the request's single payment as COMPLETED and moves
// the request to DELIVERED. Recording again updates the same row; the
// receipt number assigned on first insert never changes.
func (s *ServiceRequestService) RecordPayment(ctx context.Context, trackingID string, in PaymentInput) (*models.ServiceRequest, error) {
	if _, err := models.ParsePaymentMethod(string(in.Method)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.Amount != nil && in.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount cannot be negative", ErrInvalidInput)
	}
	return s.transition(ctx, trackingID, func(tx storage.Store, sr *models.ServiceRequest) error {
		amount := sr.EstimatedAmount
		if in.Amount != nil {
			amount = *in.Amount
		}
		paidAt := s.now()

		payment, err := tx.GetPaymentByServiceRequest(ctx, sr.ID)
		switch {
		case err == nil:
			payment.Amount = amount
			payment.Method = in.Method
			payment.Status = models.PaymentStatusCompleted
			payment.TransactionID = strings.TrimSpace(in.TransactionID)
			payment.PaidAt = &paidAt
			if err := tx.SavePayment(ctx, payment); err != nil {
				return fmt.Errorf("update payment: %w", err)
			}
		case errors.Is(err, storage.ErrNotFound):
			payment, err = s.insertPayment(ctx, tx, &models.Payment{
				ServiceRequestID: sr.ID,
				Amount:           amount,
				Method:           in.Method,
				Status:           models.PaymentStatusCompleted,
				TransactionID:    strings.TrimSpace(in.TransactionID),
				PaidAt:           &paidAt,
			})
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("lookup payment: %w", err)
		}

		if err := s.setStatus(ctx, tx, sr, models.StatusDelivered); err != nil {
			return err
		}
		s.logger.Info("payment recorded",
			zap.String("tracking_id", sr.TrackingID),
			zap.String("receipt_number", payment.ReceiptNumber),
			zap.String("amount", amount.StringFixed(2)),
			zap.String("method", string(payment.Method)),
		)
		return s.notifier.emit(ctx, tx, sr.CustomerID, PaymentReceivedMessage(amount, sr.TrackingID, payment.ReceiptNumber))
	})
}

func (s *ServiceRequestService) insertPayment(ctx context.Context, tx storage.Store, payment *models.Payment) (*models.Payment, error) {
	for attempt := 1; attempt <= maxIdentifierAttempts; attempt++ {
		receipt, err := s.newReceiptNumber()
		if err != nil {
			return nil, err
		}
		payment.ReceiptNumber = receipt
		err = tx.SavePayment(ctx, payment)
		if errors.Is(err, storage.ErrDuplicate) {
			s.logger.Warn("receipt number collision", zap.String("receipt_number", receipt), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create payment: %w", err)
		}
		return payment, nil
	}
	return nil, fmt.Errorf("receipt number: %w", ErrIdentifierCollision)
}

// CompleteAssignment marks one work assignment done. The request status is
// left to the employee.
func (s *ServiceRequestService) CompleteAssignment(ctx context.Context, assignmentID uint) (*models.WorkAssignment, error) {
	var out *models.WorkAssignment
	err := s.store.Atomic(ctx, func(tx storage.Store) error {
		assignment, err := tx.GetWorkAssignment(ctx, assignmentID)
		if err != nil {
			return fmt.Errorf("work assignment %d: %w", assignmentID, err)
		}
		if assignment.IsCompleted {
			out = assignment
			return nil
		}
		completedAt := s.now()
		assignment.IsCompleted = true
		assignment.CompletedAt = &completedAt
		if err := tx.UpdateWorkAssignment(ctx, assignment); err != nil {
			return fmt.Errorf("update work assignment: %w", err)
		}
		out = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a request with its customer, vehicle, assignments and payment.
func (s *ServiceRequestService) Get(ctx context.Context, trackingID string) (*models.ServiceRequest, error) {
	sr, err := s.store.GetServiceRequest(ctx, trackingID)
	if err != nil {
		return nil, fmt.Errorf("service request %s: %w", trackingID, err)
	}
	return sr, nil
}

// Track is the public lookup. Tracking ids are matched case-insensitively.
func (s *ServiceRequestService) Track(ctx context.Context, trackingID string) (*models.ServiceRequest, error) {
	return s.Get(ctx, strings.ToUpper(strings.TrimSpace(trackingID)))
}

func (s *ServiceRequestService) ListRecent(ctx context.Context, limit int) ([]models.ServiceRequest, error) {
	return s.store.ListServiceRequests(ctx, limit)
}

func (s *ServiceRequestService) ListForCustomer(ctx context.Context, customerID uint) ([]models.ServiceRequest, error) {
	return s.store.ListServiceRequestsByCustomer(ctx, customerID)
}

// Receipt bundles a payment with the request it settles.
type Receipt struct {
	Payment *models.Payment        `json:"payment"`
	Request *models.ServiceRequest `json:"service_request"`
}

func (s *ServiceRequestService) ReceiptByNumber(ctx context.Context, receiptNumber string) (*Receipt, error) {
	receiptNumber = strings.ToUpper(strings.TrimSpace(receiptNumber))
	payment, err := s.store.GetPaymentByReceipt(ctx, receiptNumber)
	if err != nil {
		return nil, fmt.Errorf("receipt %s: %w", receiptNumber, err)
	}
	sr, err := s.store.GetServiceRequestByID(ctx, payment.ServiceRequestID)
	if err != nil {
		return nil, fmt.Errorf("service request %d: %w", payment.ServiceRequestID, err)
	}
	return &Receipt{Payment: payment, Request: sr}, nil
}
