package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/smartservice-backend/internal/models"
	"github.com/Ananth-NQI/smartservice-backend/internal/storage"
	"github.com/Ananth-NQI/smartservice-backend/internal/utils"
)

// LoginOTPLabel names the customer login flow in the OTP SMS.
const LoginOTPLabel = "login"

// EmployeeDashboardSize is how many recent requests the employee dashboard shows.
const EmployeeDashboardSize = 20

// AccountService handles customer OTP login, employee login and the
// per-role dashboards.
type AccountService struct {
	store    storage.Store
	otp      *OTPService
	notifier *Notifier
	requests *ServiceRequestService
	logger   *zap.Logger
}

func NewAccountService(store storage.Store, otp *OTPService, notifier *Notifier, requests *ServiceRequestService, logger *zap.Logger) *AccountService {
	return &AccountService{
		store:    store,
		otp:      otp,
		notifier: notifier,
		requests: requests,
		logger:   logger,
	}
}

// RequestLoginOTP sends a customer_login code to mobile.
func (a *AccountService) RequestLoginOTP(ctx context.Context, mobile string) (delivered bool, err error) {
	return a.otp.IssueAndSend(ctx, utils.NormalizeMobile(mobile), models.PurposeCustomerLogin, LoginOTPLabel)
}

// LoginResult is the outcome of a successful customer login.
type LoginResult struct {
	Customer     *models.Customer `json:"customer"`
	NeedsProfile bool             `json:"needs_profile"`
}

// LoginCustomer consumes a customer_login code and returns the customer for
// mobile, creating one with the placeholder name on first login.
func (a *AccountService) LoginCustomer(ctx context.Context, mobile, code string) (*LoginResult, error) {
	mobile = utils.NormalizeMobile(mobile)
	if err := validateMobile(mobile); err != nil {
		return nil, err
	}
	var customer *models.Customer
	err := a.store.Atomic(ctx, func(tx storage.Store) error {
		if err := a.otp.checkWith(ctx, tx, mobile, strings.TrimSpace(code), models.PurposeCustomerLogin); err != nil {
			return err
		}
		var err error
		customer, err = getOrCreateCustomer(ctx, tx, mobile, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("customer logged in", zap.Uint("customer_id", customer.ID))
	return &LoginResult{Customer: customer, NeedsProfile: customer.NeedsProfile()}, nil
}

// LoginEmployee authenticates an active employee by employee id and mobile.
func (a *AccountService) LoginEmployee(ctx context.Context, employeeID, mobile string) (*models.Employee, error) {
	employeeID = strings.TrimSpace(employeeID)
	mobile = utils.NormalizeMobile(mobile)
	if employeeID == "" || mobile == "" {
		return nil, fmt.Errorf("%w: employee id and mobile are required", ErrInvalidInput)
	}
	employee, err := a.store.GetActiveEmployee(ctx, employeeID, mobile)
	if errors.Is(err, storage.ErrNotFound) {
		a.logger.Info("employee login rejected", zap.String("employee_id", employeeID))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup employee: %w", err)
	}
	return employee, nil
}

// ProfileInput completes or edits a customer's profile.
type ProfileInput struct {
	Name    string
	Email   string
	Address string
}

func (a *AccountService) Profile(ctx context.Context, customerID uint) (*models.Customer, error) {
	customer, err := a.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("customer %d: %w", customerID, err)
	}
	return customer, nil
}

// UpdateProfile replaces name, email and address. Name is required.
func (a *AccountService) UpdateProfile(ctx context.Context, customerID uint, in ProfileInput) (*models.Customer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	email := strings.TrimSpace(in.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
		}
	}

	var customer *models.Customer
	err := a.store.Atomic(ctx, func(tx storage.Store) error {
		var err error
		customer, err = tx.GetCustomer(ctx, customerID)
		if err != nil {
			return fmt.Errorf("customer %d: %w", customerID, err)
		}
		customer.Name = name
		customer.Email = email
		customer.Address = strings.TrimSpace(in.Address)
		return tx.UpdateCustomer(ctx, customer)
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// CustomerDashboard is what a logged-in customer sees.
type CustomerDashboard struct {
	Customer      *models.Customer        `json:"customer"`
	Requests      []models.ServiceRequest `json:"service_requests"`
	Notifications []models.Notification   `json:"notifications"`
}

// Dashboard lists the customer's requests and unread notifications; the
// returned notifications are marked read.
func (a *AccountService) Dashboard(ctx context.Context, customerID uint) (*CustomerDashboard, error) {
	customer, err := a.Profile(ctx, customerID)
	if err != nil {
		return nil, err
	}
	requests, err := a.requests.ListForCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list service requests: %w", err)
	}
	unread, err := a.notifier.Unread(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &CustomerDashboard{Customer: customer, Requests: requests, Notifications: unread}, nil
}

// EmployeeDashboard is what a logged-in employee sees.
type EmployeeDashboard struct {
	Employee *models.Employee        `json:"employee"`
	Requests []models.ServiceRequest `json:"service_requests"`
	Workers  []models.Worker         `json:"workers"`
}

func (a *AccountService) EmployeeDashboard(ctx context.Context, employeeID uint) (*EmployeeDashboard, error) {
	employee, err := a.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("employee %d: %w", employeeID, err)
	}
	requests, err := a.requests.ListRecent(ctx, EmployeeDashboardSize)
	if err != nil {
		return nil, fmt.Errorf("list service requests: %w", err)
	}
	workers, err := a.store.ListWorkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	return &EmployeeDashboard{Employee: employee, Requests: requests, Workers: workers}, nil
}
