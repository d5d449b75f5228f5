package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ananth-NQI/smartservice-backend/internal/models"
)

// pgUniqueViolation is the SQLSTATE PostgreSQL raises for unique index conflicts.
const pgUniqueViolation = "23505"

// DatabaseStore implements Store on top of GORM and PostgreSQL.
type DatabaseStore struct {
	db   *gorm.DB
	inTx bool
}

var _ Store = (*DatabaseStore)(nil)

// NewDatabaseStore creates a store backed by db.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func (s *DatabaseStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Atomic runs fn inside a transaction. Called on a store that is already
// inside a transaction it opens a savepoint instead.
func (s *DatabaseStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DatabaseStore{db: tx, inTx: true})
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func (s *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// savepoint runs a single write in a nested transaction so a constraint
// violation does not poison an enclosing transaction.
func (s *DatabaseStore) savepoint(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return translate(s.conn(ctx).Transaction(fn))
}

// OTP operations

// LockOTPPair takes a transaction-scoped advisory lock on the pair so that
// supersede-then-insert and verify-then-consume never interleave.
func (s *DatabaseStore) LockOTPPair(ctx context.Context, mobile string, purpose models.OTPPurpose) error {
	if !s.inTx {
		return nil
	}
	key := mobile + ":" + string(purpose)
	return s.conn(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

func (s *DatabaseStore) InvalidateOTPs(ctx context.Context, mobile string, purpose models.OTPPurpose) (int64, error) {
	res := s.conn(ctx).Model(&models.OTP{}).
		Where("mobile = ? AND purpose = ? AND is_used = ?", mobile, purpose, false).
		Update("is_used", true)
	return res.RowsAffected, translate(res.Error)
}

func (s *DatabaseStore) CreateOTP(ctx context.Context, otp *models.OTP) error {
	return translate(s.conn(ctx).Create(otp).Error)
}

func (s *DatabaseStore) LatestUnusedOTP(ctx context.Context, mobile string, purpose models.OTPPurpose) (*models.OTP, error) {
	var otp models.OTP
	err := s.conn(ctx).
		Where("mobile = ? AND purpose = ? AND is_used = ?", mobile, purpose, false).
		Order("created_at DESC, id DESC").
		First(&otp).Error
	if err != nil {
		return nil, translate(err)
	}
	return &otp, nil
}

// MarkOTPUsed flips is_used only if it is still false, so two concurrent
// consumers cannot both succeed.
func (s *DatabaseStore) MarkOTPUsed(ctx context.Context, id uint) error {
	res := s.conn(ctx).Model(&models.OTP{}).
		Where("id = ? AND is_used = ?", id, false).
		Update("is_used", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Customer operations

func (s *DatabaseStore) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := s.conn(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *DatabaseStore) GetCustomerByMobile(ctx context.Context, mobile string) (*models.Customer, error) {
	var c models.Customer
	if err := s.conn(ctx).Where("mobile = ?", mobile).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *DatabaseStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return s.savepoint(ctx, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(customer).Error
	})
}

func (s *DatabaseStore) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	res := s.conn(ctx).Model(&models.Customer{}).Where("id = ?", customer.ID).
		Updates(map[string]interface{}{
			"name":    customer.Name,
			"email":   customer.Email,
			"address": customer.Address,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Vehicle operations

func (s *DatabaseStore) GetVehicle(ctx context.Context, id uint) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := s.conn(ctx).First(&v, id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (s *DatabaseStore) GetVehicleByNumber(ctx context.Context, number string) (*models.Vehicle, error) {
	var v models.Vehicle
	err := s.conn(ctx).Where("vehicle_number = ?", models.NormalizeVehicleNumber(number)).First(&v).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (s *DatabaseStore) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	return s.savepoint(ctx, func(tx *gorm.DB) error {
		return tx.Create(vehicle).Error
	})
}

// Staff operations

func (s *DatabaseStore) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	var e models.Employee
	if err := s.conn(ctx).First(&e, id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *DatabaseStore) GetActiveEmployee(ctx context.Context, employeeID, mobile string) (*models.Employee, error) {
	var e models.Employee
	err := s.conn(ctx).
		Where("employee_id = ? AND mobile = ? AND is_active = ?", employeeID, mobile, true).
		First(&e).Error
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *DatabaseStore) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	return s.savepoint(ctx, func(tx *gorm.DB) error {
		return tx.Create(employee).Error
	})
}

func (s *DatabaseStore) GetWorker(ctx context.Context, id uint) (*models.Worker, error) {
	var w models.Worker
	if err := s.conn(ctx).First(&w, id).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *DatabaseStore) ListWorkers(ctx context.Context) ([]models.Worker, error) {
	var workers []models.Worker
	err := s.conn(ctx).Order("id").Find(&workers).Error
	return workers, translate(err)
}

func (s *DatabaseStore) CreateWorker(ctx context.Context, worker *models.Worker) error {
	return translate(s.conn(ctx).Create(worker).Error)
}

// Service request operations

func (s *DatabaseStore) CreateServiceRequest(ctx context.Context, sr *models.ServiceRequest) error {
	return s.savepoint(ctx, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(sr).Error
	})
}

func (s *DatabaseStore) withDetails(ctx context.Context) *gorm.DB {
	q := s.conn(ctx).
		Preload("Customer").
		Preload("Vehicle").
		Preload("Employee").
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Assignments.Worker").
		Preload("Payment")
	if s.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// GetServiceRequest loads a request with its relations. Inside Atomic the
// request row is locked FOR UPDATE until the transaction ends.
func (s *DatabaseStore) GetServiceRequest(ctx context.Context, trackingID string) (*models.ServiceRequest, error) {
	var sr models.ServiceRequest
	if err := s.withDetails(ctx).Where("tracking_id = ?", trackingID).First(&sr).Error; err != nil {
		return nil, translate(err)
	}
	return &sr, nil
}

func (s *DatabaseStore) GetServiceRequestByID(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	var sr models.ServiceRequest
	if err := s.withDetails(ctx).First(&sr, id).Error; err != nil {
		return nil, translate(err)
	}
	return &sr, nil
}

// UpdateServiceRequest writes the mutable lifecycle columns only; the
// tracking id and ownership columns are never rewritten.
func (s *DatabaseStore) UpdateServiceRequest(ctx context.Context, sr *models.ServiceRequest) error {
	res := s.conn(ctx).Model(&models.ServiceRequest{}).Where("id = ?", sr.ID).
		Updates(map[string]interface{}{
			"status":       sr.Status,
			"completed_at": sr.CompletedAt,
			"updated_at":   sr.UpdatedAt,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DatabaseStore) ListServiceRequests(ctx context.Context, limit int) ([]models.ServiceRequest, error) {
	var out []models.ServiceRequest
	q := s.conn(ctx).Preload("Customer").Preload("Vehicle").Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return out, translate(q.Find(&out).Error)
}

func (s *DatabaseStore) ListServiceRequestsByCustomer(ctx context.Context, customerID uint) ([]models.ServiceRequest, error) {
	var out []models.ServiceRequest
	err := s.conn(ctx).
		Preload("Vehicle").
		Preload("Payment").
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, translate(err)
}

// Work assignment operations

func (s *DatabaseStore) CreateWorkAssignment(ctx context.Context, assignment *models.WorkAssignment) error {
	return s.savepoint(ctx, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(assignment).Error
	})
}

func (s *DatabaseStore) GetWorkAssignment(ctx context.Context, id uint) (*models.WorkAssignment, error) {
	var a models.WorkAssignment
	if err := s.conn(ctx).Preload("Worker").First(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *DatabaseStore) UpdateWorkAssignment(ctx context.Context, assignment *models.WorkAssignment) error {
	res := s.conn(ctx).Model(&models.WorkAssignment{}).Where("id = ?", assignment.ID).
		Updates(map[string]interface{}{
			"is_completed": assignment.IsCompleted,
			"completed_at": assignment.CompletedAt,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Payment operations

func (s *DatabaseStore) GetPaymentByServiceRequest(ctx context.Context, serviceRequestID uint) (*models.Payment, error) {
	var p models.Payment
	if err := s.conn(ctx).Where("service_request_id = ?", serviceRequestID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *DatabaseStore) GetPaymentByReceipt(ctx context.Context, receiptNumber string) (*models.Payment, error) {
	var p models.Payment
	if err := s.conn(ctx).Where("receipt_number = ?", receiptNumber).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// SavePayment inserts a new payment, or updates an existing one in place.
// The receipt number of an existing row is never rewritten.
func (s *DatabaseStore) SavePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == 0 {
		return s.savepoint(ctx, func(tx *gorm.DB) error {
			return tx.Create(payment).Error
		})
	}
	res := s.conn(ctx).Model(&models.Payment{}).Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"amount":         payment.Amount,
			"method":         payment.Method,
			"status":         payment.Status,
			"transaction_id": payment.TransactionID,
			"paid_at":        payment.PaidAt,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Notification operations

func (s *DatabaseStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return translate(s.conn(ctx).Create(n).Error)
}

func (s *DatabaseStore) ListNotifications(ctx context.Context, customerID uint) ([]models.Notification, error) {
	var out []models.Notification
	err := s.conn(ctx).Where("customer_id = ?", customerID).Order("created_at DESC, id DESC").Find(&out).Error
	return out, translate(err)
}

func (s *DatabaseStore) ListUnreadNotifications(ctx context.Context, customerID uint) ([]models.Notification, error) {
	var out []models.Notification
	err := s.conn(ctx).
		Where("customer_id = ? AND is_read = ?", customerID, false).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, translate(err)
}

func (s *DatabaseStore) MarkNotificationsRead(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return translate(s.conn(ctx).Model(&models.Notification{}).Where("id IN ?", ids).Update("is_read", true).Error)
}
