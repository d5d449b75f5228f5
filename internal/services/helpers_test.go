package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/smartservice-backend/internal/models"
	"github.com/Ananth-NQI/smartservice-backend/internal/storage"
)

type sentMessage struct {
	mobile  string
	message string
}

// recordingMessenger keeps every message and optionally fails delivery.
type recordingMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	fail bool
}

func (m *recordingMessenger) Send(ctx context.Context, mobile, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{mobile: mobile, message: message})
	if m.fail {
		return errors.New("gateway unavailable")
	}
	return nil
}

var codePattern = regexp.MustCompile(`is: (\d{6})\.`)

// lastCode extracts the code from the most recent message to mobile.
func (m *recordingMessenger) lastCode(t *testing.T, mobile string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].mobile != mobile {
			continue
		}
		match := codePattern.FindStringSubmatch(m.sent[i].message)
		if match == nil {
			t.Fatalf("message %q carries no code", m.sent[i].message)
		}
		return match[1]
	}
	t.Fatalf("no message sent to %s", mobile)
	return ""
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store     *storage.MemoryStore
	clock     *fakeClock
	messenger *recordingMessenger
	otp       *OTPService
	notifier  *Notifier
	requests  *ServiceRequestService
	accounts  *AccountService

	employee models.Employee
	worker   models.Worker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	store := storage.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	messenger := &recordingMessenger{}

	otp := NewOTPService(store, messenger, logger)
	otp.SetClock(clock.Now)
	notifier := NewNotifier(store, logger)
	requests := NewServiceRequestService(store, otp, notifier, logger)
	requests.now = clock.Now
	accounts := NewAccountService(store, otp, notifier, requests, logger)

	env := &testEnv{
		store:     store,
		clock:     clock,
		messenger: messenger,
		otp:       otp,
		notifier:  notifier,
		requests:  requests,
		accounts:  accounts,
		employee:  models.Employee{EmployeeID: "EMP001", Name: "Ravi", Mobile: "9000000001", Role: "Service Advisor", IsActive: true},
		worker:    models.Worker{Name: "Suresh", Specialization: "Engine", IsAvailable: true},
	}
	ctx := context.Background()
	if err := store.CreateEmployee(ctx, &env.employee); err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	if err := store.CreateWorker(ctx, &env.worker); err != nil {
		t.Fatalf("seed worker: %v", err)
	}
	return env
}

func (e *testEnv) actor() models.Principal {
	return models.Principal{Role: models.RoleEmployee, ID: e.employee.ID, Name: e.employee.Name, Mobile: e.employee.Mobile}
}
