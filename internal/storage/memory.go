package storage

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/Ananth-NQI/smartservice-backend/internal/models"
)

// MemoryStore holds all data in memory. It backs the test suite and local
// runs with USE_MEMORY_STORE=true; one mutex serialises every operation,
// which gives Atomic the single-writer semantics the GORM store gets from
// PostgreSQL locks.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
}

type memData struct {
	otps          map[uint]models.OTP
	customers     map[uint]models.Customer
	vehicles      map[uint]models.Vehicle
	employees     map[uint]models.Employee
	workers       map[uint]models.Worker
	requests      map[uint]models.ServiceRequest
	assignments   map[uint]models.WorkAssignment
	payments      map[uint]models.Payment
	notifications map[uint]models.Notification

	// Counter for ID generation
	lastID uint
}

func (d *memData) clone() *memData {
	return &memData{
		otps:          maps.Clone(d.otps),
		customers:     maps.Clone(d.customers),
		vehicles:      maps.Clone(d.vehicles),
		employees:     maps.Clone(d.employees),
		workers:       maps.Clone(d.workers),
		requests:      maps.Clone(d.requests),
		assignments:   maps.Clone(d.assignments),
		payments:      maps.Clone(d.payments),
		notifications: maps.Clone(d.notifications),
		lastID:        d.lastID,
	}
}

func (d *memData) nextID() uint {
	d.lastID++
	return d.lastID
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*memTx)(nil)
)

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: &memData{
		otps:          make(map[uint]models.OTP),
		customers:     make(map[uint]models.Customer),
		vehicles:      make(map[uint]models.Vehicle),
		employees:     make(map[uint]models.Employee),
		workers:       make(map[uint]models.Worker),
		requests:      make(map[uint]models.ServiceRequest),
		assignments:   make(map[uint]models.WorkAssignment),
		payments:      make(map[uint]models.Payment),
		notifications: make(map[uint]models.Notification),
	}}
}

func (m *MemoryStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: m.data}).Atomic(ctx, fn)
}

func (m *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

// memTx is the lock-free view handed to Atomic callbacks. Nested Atomic
// calls behave like savepoints.
type memTx struct {
	data *memData
}

func (t *memTx) Atomic(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := t.data.clone()
	if err := fn(t); err != nil {
		*t.data = *snapshot
		return err
	}
	return nil
}

func (t *memTx) Ping(ctx context.Context) error { return ctx.Err() }

func stamp(model *time.Time, updated *time.Time) {
	now := time.Now()
	if model.IsZero() {
		*model = now
	}
	if updated.IsZero() {
		*updated = *model
	}
}

// OTP operations

func (t *memTx) LockOTPPair(ctx context.Context, mobile string, purpose models.OTPPurpose) error {
	return nil
}

func (t *memTx) InvalidateOTPs(ctx context.Context, mobile string, purpose models.OTPPurpose) (int64, error) {
	var n int64
	for id, otp := range t.data.otps {
		if otp.Mobile == mobile && otp.Purpose == purpose && !otp.IsUsed {
			otp.IsUsed = true
			otp.UpdatedAt = time.Now()
			t.data.otps[id] = otp
			n++
		}
	}
	return n, nil
}

func (t *memTx) CreateOTP(ctx context.Context, otp *models.OTP) error {
	otp.ID = t.data.nextID()
	stamp(&otp.CreatedAt, &otp.UpdatedAt)
	t.data.otps[otp.ID] = *otp
	return nil
}

func (t *memTx) LatestUnusedOTP(ctx context.Context, mobile string, purpose models.OTPPurpose) (*models.OTP, error) {
	var latest *models.OTP
	for _, otp := range t.data.otps {
		if otp.Mobile != mobile || otp.Purpose != purpose || otp.IsUsed {
			continue
		}
		if latest == nil || otp.CreatedAt.After(latest.CreatedAt) ||
			(otp.CreatedAt.Equal(latest.CreatedAt) && otp.ID > latest.ID) {
			found := otp
			latest = &found
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (t *memTx) MarkOTPUsed(ctx context.Context, id uint) error {
	otp, ok := t.data.otps[id]
	if !ok || otp.IsUsed {
		return ErrNotFound
	}
	otp.IsUsed = true
	otp.UpdatedAt = time.Now()
	t.data.otps[id] = otp
	return nil
}

// Customer operations

func (t *memTx) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	c, ok := t.data.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (t *memTx) GetCustomerByMobile(ctx context.Context, mobile string) (*models.Customer, error) {
	for _, c := range t.data.customers {
		if c.Mobile == mobile {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if _, err := t.GetCustomerByMobile(ctx, customer.Mobile); err == nil {
		return ErrDuplicate
	}
	customer.ID = t.data.nextID()
	stamp(&customer.CreatedAt, &customer.UpdatedAt)
	stored := *customer
	stored.Vehicles, stored.Notifications = nil, nil
	t.data.customers[customer.ID] = stored
	return nil
}

func (t *memTx) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	existing, ok := t.data.customers[customer.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = customer.Name
	existing.Email = customer.Email
	existing.Address = customer.Address
	existing.UpdatedAt = time.Now()
	t.data.customers[customer.ID] = existing
	return nil
}

// Vehicle operations

func (t *memTx) GetVehicle(ctx context.Context, id uint) (*models.Vehicle, error) {
	v, ok := t.data.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (t *memTx) GetVehicleByNumber(ctx context.Context, number string) (*models.Vehicle, error) {
	number = models.NormalizeVehicleNumber(number)
	for _, v := range t.data.vehicles {
		if v.VehicleNumber == number {
			return &v, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if _, ok := t.data.customers[vehicle.CustomerID]; !ok {
		return ErrNotFound
	}
	vehicle.VehicleNumber = models.NormalizeVehicleNumber(vehicle.VehicleNumber)
	if _, err := t.GetVehicleByNumber(ctx, vehicle.VehicleNumber); err == nil {
		return ErrDuplicate
	}
	if vehicle.Year == 0 {
		vehicle.Year = 2020
	}
	vehicle.ID = t.data.nextID()
	stamp(&vehicle.CreatedAt, &vehicle.UpdatedAt)
	t.data.vehicles[vehicle.ID] = *vehicle
	return nil
}

// Staff operations

func (t *memTx) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	e, ok := t.data.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (t *memTx) GetActiveEmployee(ctx context.Context, employeeID, mobile string) (*models.Employee, error) {
	for _, e := range t.data.employees {
		if e.EmployeeID == employeeID && e.Mobile == mobile && e.IsActive {
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	for _, e := range t.data.employees {
		if e.EmployeeID == employee.EmployeeID || e.Mobile == employee.Mobile {
			return ErrDuplicate
		}
	}
	if employee.Role == "" {
		employee.Role = "Service Advisor"
	}
	employee.ID = t.data.nextID()
	stamp(&employee.CreatedAt, &employee.UpdatedAt)
	t.data.employees[employee.ID] = *employee
	return nil
}

func (t *memTx) GetWorker(ctx context.Context, id uint) (*models.Worker, error) {
	w, ok := t.data.workers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (t *memTx) ListWorkers(ctx context.Context) ([]models.Worker, error) {
	workers := make([]models.Worker, 0, len(t.data.workers))
	for _, w := range t.data.workers {
		workers = append(workers, w)
	}
	sort.Slice(workers, func(i, j int) bool { return workers[i].ID < workers[j].ID })
	return workers, nil
}

func (t *memTx) CreateWorker(ctx context.Context, worker *models.Worker) error {
	worker.ID = t.data.nextID()
	stamp(&worker.CreatedAt, &worker.UpdatedAt)
	t.data.workers[worker.ID] = *worker
	return nil
}

// Service request operations

func (t *memTx) CreateServiceRequest(ctx context.Context, sr *models.ServiceRequest) error {
	for _, existing := range t.data.requests {
		if existing.TrackingID == sr.TrackingID {
			return ErrDuplicate
		}
	}
	if _, ok := t.data.customers[sr.CustomerID]; !ok {
		return ErrNotFound
	}
	if _, ok := t.data.vehicles[sr.VehicleID]; !ok {
		return ErrNotFound
	}
	if sr.Status == "" {
		sr.Status = models.StatusPending
	}
	sr.ID = t.data.nextID()
	stamp(&sr.CreatedAt, &sr.UpdatedAt)
	stored := *sr
	stored.Customer, stored.Vehicle, stored.Employee = nil, nil, nil
	stored.Assignments, stored.Payment = nil, nil
	t.data.requests[sr.ID] = stored
	return nil
}

func (t *memTx) hydrate(sr models.ServiceRequest) *models.ServiceRequest {
	if c, ok := t.data.customers[sr.CustomerID]; ok {
		sr.Customer = &c
	}
	if v, ok := t.data.vehicles[sr.VehicleID]; ok {
		sr.Vehicle = &v
	}
	if sr.EmployeeID != nil {
		if e, ok := t.data.employees[*sr.EmployeeID]; ok {
			sr.Employee = &e
		}
	}
	for _, a := range t.data.assignments {
		if a.ServiceRequestID != sr.ID {
			continue
		}
		if w, ok := t.data.workers[a.WorkerID]; ok {
			a.Worker = &w
		}
		sr.Assignments = append(sr.Assignments, a)
	}
	sort.Slice(sr.Assignments, func(i, j int) bool { return sr.Assignments[i].ID < sr.Assignments[j].ID })
	for _, p := range t.data.payments {
		if p.ServiceRequestID == sr.ID {
			sr.Payment = &p
			break
		}
	}
	return &sr
}

func (t *memTx) GetServiceRequest(ctx context.Context, trackingID string) (*models.ServiceRequest, error) {
	for _, sr := range t.data.requests {
		if sr.TrackingID == trackingID {
			return t.hydrate(sr), nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) GetServiceRequestByID(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	sr, ok := t.data.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.hydrate(sr), nil
}

func (t *memTx) UpdateServiceRequest(ctx context.Context, sr *models.ServiceRequest) error {
	existing, ok := t.data.requests[sr.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Status = sr.Status
	existing.CompletedAt = sr.CompletedAt
	existing.UpdatedAt = sr.UpdatedAt
	if existing.UpdatedAt.IsZero() {
		existing.UpdatedAt = time.Now()
	}
	t.data.requests[sr.ID] = existing
	return nil
}

func (t *memTx) sortedRequests(keep func(models.ServiceRequest) bool) []models.ServiceRequest {
	var out []models.ServiceRequest
	for _, sr := range t.data.requests {
		if keep(sr) {
			out = append(out, *t.hydrate(sr))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (t *memTx) ListServiceRequests(ctx context.Context, limit int) ([]models.ServiceRequest, error) {
	out := t.sortedRequests(func(models.ServiceRequest) bool { return true })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *memTx) ListServiceRequestsByCustomer(ctx context.Context, customerID uint) ([]models.ServiceRequest, error) {
	return t.sortedRequests(func(sr models.ServiceRequest) bool { return sr.CustomerID == customerID }), nil
}

// Work assignment operations

func (t *memTx) CreateWorkAssignment(ctx context.Context, assignment *models.WorkAssignment) error {
	if _, ok := t.data.requests[assignment.ServiceRequestID]; !ok {
		return ErrNotFound
	}
	if _, ok := t.data.workers[assignment.WorkerID]; !ok {
		return ErrNotFound
	}
	assignment.ID = t.data.nextID()
	stamp(&assignment.CreatedAt, &assignment.UpdatedAt)
	stored := *assignment
	stored.Worker, stored.AssignedBy = nil, nil
	t.data.assignments[assignment.ID] = stored
	return nil
}

func (t *memTx) GetWorkAssignment(ctx context.Context, id uint) (*models.WorkAssignment, error) {
	a, ok := t.data.assignments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if w, ok := t.data.workers[a.WorkerID]; ok {
		a.Worker = &w
	}
	return &a, nil
}

func (t *memTx) UpdateWorkAssignment(ctx context.Context, assignment *models.WorkAssignment) error {
	existing, ok := t.data.assignments[assignment.ID]
	if !ok {
		return ErrNotFound
	}
	existing.IsCompleted = assignment.IsCompleted
	existing.CompletedAt = assignment.CompletedAt
	existing.UpdatedAt = time.Now()
	t.data.assignments[assignment.ID] = existing
	return nil
}

// Payment operations

func (t *memTx) GetPaymentByServiceRequest(ctx context.Context, serviceRequestID uint) (*models.Payment, error) {
	for _, p := range t.data.payments {
		if p.ServiceRequestID == serviceRequestID {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) GetPaymentByReceipt(ctx context.Context, receiptNumber string) (*models.Payment, error) {
	for _, p := range t.data.payments {
		if p.ReceiptNumber == receiptNumber {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) SavePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID != 0 {
		existing, ok := t.data.payments[payment.ID]
		if !ok {
			return ErrNotFound
		}
		existing.Amount = payment.Amount
		existing.Method = payment.Method
		existing.Status = payment.Status
		existing.TransactionID = payment.TransactionID
		existing.PaidAt = payment.PaidAt
		existing.UpdatedAt = time.Now()
		t.data.payments[payment.ID] = existing
		payment.ReceiptNumber = existing.ReceiptNumber
		return nil
	}

	if _, ok := t.data.requests[payment.ServiceRequestID]; !ok {
		return ErrNotFound
	}
	for _, p := range t.data.payments {
		if p.ServiceRequestID == payment.ServiceRequestID || p.ReceiptNumber == payment.ReceiptNumber {
			return ErrDuplicate
		}
	}
	payment.ID = t.data.nextID()
	stamp(&payment.CreatedAt, &payment.UpdatedAt)
	t.data.payments[payment.ID] = *payment
	return nil
}

// Notification operations

func (t *memTx) CreateNotification(ctx context.Context, n *models.Notification) error {
	if _, ok := t.data.customers[n.CustomerID]; !ok {
		return ErrNotFound
	}
	n.ID = t.data.nextID()
	stamp(&n.CreatedAt, &n.UpdatedAt)
	t.data.notifications[n.ID] = *n
	return nil
}

func (t *memTx) notifications(customerID uint, unreadOnly bool) []models.Notification {
	var out []models.Notification
	for _, n := range t.data.notifications {
		if n.CustomerID == customerID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (t *memTx) ListNotifications(ctx context.Context, customerID uint) ([]models.Notification, error) {
	return t.notifications(customerID, false), nil
}

func (t *memTx) ListUnreadNotifications(ctx context.Context, customerID uint) ([]models.Notification, error) {
	return t.notifications(customerID, true), nil
}

func (t *memTx) MarkNotificationsRead(ctx context.Context, ids []uint) error {
	for _, id := range ids {
		n, ok := t.data.notifications[id]
		if !ok {
			continue
		}
		n.IsRead = true
		n.UpdatedAt = time.Now()
		t.data.notifications[id] = n
	}
	return nil
}

// The exported MemoryStore methods run each call as its own Atomic unit.

func (m *MemoryStore) LockOTPPair(ctx context.Context, mobile string, purpose models.OTPPurpose) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.LockOTPPair(ctx, mobile, purpose)
	})
}

func (m *MemoryStore) InvalidateOTPs(ctx context.Context, mobile string, purpose models.OTPPurpose) (int64, error) {
	var out int64
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.InvalidateOTPs(ctx, mobile, purpose)
		return err
	})
	return out, err
}

func (m *MemoryStore) CreateOTP(ctx context.Context, otp *models.OTP) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.CreateOTP(ctx, otp)
	})
}

func (m *MemoryStore) LatestUnusedOTP(ctx context.Context, mobile string, purpose models.OTPPurpose) (*models.OTP, error) {
	var out *models.OTP
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.LatestUnusedOTP(ctx, mobile, purpose)
		return err
	})
	return out, err
}

func (m *MemoryStore) MarkOTPUsed(ctx context.Context, id uint) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.MarkOTPUsed(ctx, id)
	})
}

func (m *MemoryStore) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var out *models.Customer
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.GetCustomer(ctx, id)
		return err
	})
	return out, err
}

func (m *MemoryStore) GetCustomerByMobile(ctx context.Context, mobile string) (*models.Customer, error) {
	var out *models.Customer
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.GetCustomerByMobile(ctx, mobile)
		return err
	})
	return out, err
}

func (m *MemoryStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.CreateCustomer(ctx, customer)
	})
}

func (m *MemoryStore) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.UpdateCustomer(ctx, customer)
	})
}

func (m *MemoryStore) GetVehicle(ctx context.Context, id uint) (*models.Vehicle, error) {
	var out *models.Vehicle
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.GetVehicle(ctx, id)
		return err
	})
	return out, err
}

func (m *MemoryStore) GetVehicleByNumber(ctx context.Context, number string) (*models.Vehicle, error) {
	var out *models.Vehicle
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.GetVehicleByNumber(ctx, number)
		return err
	})
	return out, err
}

func (m *MemoryStore) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.CreateVehicle(ctx, vehicle)
	})
}

func (m *MemoryStore) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	var out *models.Employee
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.GetEmployee(ctx, id)
		return err
	})
	return out, err
}

func (m *MemoryStore) GetActiveEmployee(ctx context.Context, employeeID, mobile string) (*models.Employee, error) {
	var out *models.Employee
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.GetActiveEmployee(ctx, employeeID, mobile)
		return err
	})
	return out, err
}

func (m *MemoryStore) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.CreateEmployee(ctx, employee)
	})
}

func (m *MemoryStore) GetWorker(ctx context.Context, id uint) (*models.Worker, error) {
	var out *models.Worker
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.GetWorker(ctx, id)
		return err
	})
	return out, err
}

func (m *MemoryStore) ListWorkers(ctx context.Context) ([]models.Worker, error) {
	var out []models.Worker
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.ListWorkers(ctx)
		return err
	})
	return out, err
}

func (m *MemoryStore) CreateWorker(ctx context.Context, worker *models.Worker) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.CreateWorker(ctx, worker)
	})
}

func (m *MemoryStore) CreateServiceRequest(ctx context.Context, sr *models.ServiceRequest) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.CreateServiceRequest(ctx, sr)
	})
}

func (m *MemoryStore) GetServiceRequest(ctx context.Context, trackingID string) (*models.ServiceRequest, error) {
	var out *models.ServiceRequest
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.GetServiceRequest(ctx, trackingID)
		return err
	})
	return out, err
}

func (m *MemoryStore) GetServiceRequestByID(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	var out *models.ServiceRequest
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.GetServiceRequestByID(ctx, id)
		return err
	})
	return out, err
}

func (m *MemoryStore) UpdateServiceRequest(ctx context.Context, sr *models.ServiceRequest) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.UpdateServiceRequest(ctx, sr)
	})
}

func (m *MemoryStore) ListServiceRequests(ctx context.Context, limit int) ([]models.ServiceRequest, error) {
	var out []models.ServiceRequest
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.ListServiceRequests(ctx, limit)
		return err
	})
	return out, err
}

func (m *MemoryStore) ListServiceRequestsByCustomer(ctx context.Context, customerID uint) ([]models.ServiceRequest, error) {
	var out []models.ServiceRequest
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.ListServiceRequestsByCustomer(ctx, customerID)
		return err
	})
	return out, err
}

func (m *MemoryStore) CreateWorkAssignment(ctx context.Context, assignment *models.WorkAssignment) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.CreateWorkAssignment(ctx, assignment)
	})
}

func (m *MemoryStore) GetWorkAssignment(ctx context.Context, id uint) (*models.WorkAssignment, error) {
	var out *models.WorkAssignment
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.GetWorkAssignment(ctx, id)
		return err
	})
	return out, err
}

func (m *MemoryStore) UpdateWorkAssignment(ctx context.Context, assignment *models.WorkAssignment) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.UpdateWorkAssignment(ctx, assignment)
	})
}

func (m *MemoryStore) GetPaymentByServiceRequest(ctx context.Context, serviceRequestID uint) (*models.Payment, error) {
	var out *models.Payment
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.GetPaymentByServiceRequest(ctx, serviceRequestID)
		return err
	})
	return out, err
}

func (m *MemoryStore) GetPaymentByReceipt(ctx context.Context, receiptNumber string) (*models.Payment, error) {
	var out *models.Payment
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.GetPaymentByReceipt(ctx, receiptNumber)
		return err
	})
	return out, err
}

func (m *MemoryStore) SavePayment(ctx context.Context, payment *models.Payment) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.SavePayment(ctx, payment)
	})
}

func (m *MemoryStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.CreateNotification(ctx, n)
	})
}

func (m *MemoryStore) ListNotifications(ctx context.Context, customerID uint) ([]models.Notification, error) {
	var out []models.Notification
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.ListNotifications(ctx, customerID)
		return err
	})
	return out, err
}

func (m *MemoryStore) ListUnreadNotifications(ctx context.Context, customerID uint) ([]models.Notification, error) {
	var out []models.Notification
	err := m.Atomic(ctx, func(tx Store) error {
		var err error
		out, err = tx.ListUnreadNotifications(ctx, customerID)
		return err
	})
	return out, err
}

func (m *MemoryStore) MarkNotificationsRead(ctx context.Context, ids []uint) error {
	return m.Atomic(ctx, func(tx Store) error {
		return tx.MarkNotificationsRead(ctx, ids)
	})
}
