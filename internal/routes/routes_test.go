package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/smartservice-backend/internal/handlers"
	"github.com/Ananth-NQI/smartservice-backend/internal/middleware"
	"github.com/Ananth-NQI/smartservice-backend/internal/models"
	"github.com/Ananth-NQI/smartservice-backend/internal/services"
	"github.com/Ananth-NQI/smartservice-backend/internal/storage"
)

type inbox struct {
	mu   sync.Mutex
	last map[string]string
}

func (i *inbox) Send(ctx context.Context, mobile, message string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.last[mobile] = message
	return nil
}

var otpInMessage = regexp.MustCompile(`is: (\d{6})\.`)

func (i *inbox) code(t *testing.T, mobile string) string {
	t.Helper()
	i.mu.Lock()
	defer i.mu.Unlock()
	m := otpInMessage.FindStringSubmatch(i.last[mobile])
	if m == nil {
		t.Fatalf("no code sent to %s", mobile)
	}
	return m[1]
}

func newTestApp(t *testing.T, otpPerMinute, otpBurst int) (*fiber.App, *inbox, models.Worker) {
	t.Helper()
	logger := zap.NewNop()
	store := storage.NewMemoryStore()
	box := &inbox{last: make(map[string]string)}

	ctx := context.Background()
	employee := models.Employee{EmployeeID: "EMP001", Name: "Ravi", Mobile: "9000000001", IsActive: true}
	if err := store.CreateEmployee(ctx, &employee); err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	worker := models.Worker{Name: "Suresh", Specialization: "Engine", IsAvailable: true}
	if err := store.CreateWorker(ctx, &worker); err != nil {
		t.Fatalf("seed worker: %v", err)
	}

	otp := services.NewOTPService(store, box, logger)
	notifier := services.NewNotifier(store, logger)
	requests := services.NewServiceRequestService(store, otp, notifier, logger)
	accounts := services.NewAccountService(store, otp, notifier, requests, logger)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(logger)})
	app.Use(middleware.RequestLogger(logger))
	SetupRoutes(app, Deps{
		Store:         store,
		StorageKind:   "memory",
		Accounts:      accounts,
		Requests:      requests,
		Tokens:        services.NewTokenService("test-secret", time.Hour),
		Receipts:      services.NewReceiptRenderer("http://localhost:8080"),
		OTPLimiter:    middleware.NewRateLimiter(otpPerMinute, otpBurst),
		VerifyLimiter: middleware.NewRateLimiter(otpPerMinute, otpBurst),
		Logger:        logger,
	})
	return app, box, worker
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode, out
}

func TestServiceLifecycleOverHTTP(t *testing.T) {
	app, box, worker := newTestApp(t, 60, 10)
	const mobile = "9876543210"

	status, body := call(t, app, http.MethodPost, "/api/employee/login", "", map[string]string{
		"employee_id": "EMP001", "mobile": "9000000001",
	})
	if status != http.StatusOK {
		t.Fatalf("employee login: %d %v", status, body)
	}
	empToken := body["token"].(string)

	status, body = call(t, app, http.MethodPost, "/api/employee/requests", empToken, map[string]interface{}{
		"customer_name":    "Asha",
		"mobile":           mobile,
		"vehicle_number":   "KA01AB1234",
		"vehicle_type":     "4W",
		"service_type":     "GENERAL",
		"estimated_amount": "1500",
	})
	if status != http.StatusCreated {
		t.Fatalf("intake: %d %v", status, body)
	}
	tid := body["service_request"].(map[string]interface{})["tracking_id"].(string)

	if status, _ = call(t, app, http.MethodPost, "/api/employee/requests/"+tid+"/accept", empToken, map[string]string{"otp": "000000"}); status != http.StatusUnauthorized {
		t.Fatalf("accept with wrong otp: %d, want 401", status)
	}
	status, body = call(t, app, http.MethodPost, "/api/employee/requests/"+tid+"/accept", empToken, map[string]string{"otp": box.code(t, mobile)})
	if status != http.StatusOK {
		t.Fatalf("accept: %d %v", status, body)
	}

	status, body = call(t, app, http.MethodPost, "/api/employee/requests/"+tid+"/assignments", empToken, map[string]interface{}{
		"worker_id": worker.ID, "task_description": "Oil change",
	})
	if status != http.StatusCreated {
		t.Fatalf("assign: %d %v", status, body)
	}

	if status, body = call(t, app, http.MethodPut, "/api/employee/requests/"+tid+"/status", empToken, map[string]string{"status": "COMPLETED"}); status != http.StatusOK {
		t.Fatalf("status: %d %v", status, body)
	}
	if status, _ = call(t, app, http.MethodPut, "/api/employee/requests/"+tid+"/status", empToken, map[string]string{"status": "LOST"}); status != http.StatusBadRequest {
		t.Fatalf("unknown status: %d, want 400", status)
	}

	status, body = call(t, app, http.MethodPost, "/api/employee/requests/"+tid+"/payment", empToken, map[string]string{
		"method": "UPI", "amount": "1500.00", "transaction_id": "TXN1",
	})
	if status != http.StatusOK {
		t.Fatalf("payment: %d %v", status, body)
	}
	receipt := body["receipt_number"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/employee/receipts/"+receipt+"?format=pdf", nil)
	req.Header.Set("Authorization", "Bearer "+empToken)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("receipt pdf: %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("receipt pdf: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	resp.Body.Close()

	status, body = call(t, app, http.MethodGet, "/api/track/"+strings.ToLower(tid), "", nil)
	if status != http.StatusOK || body["status"] != string(models.StatusDelivered) || body["paid"] != true {
		t.Fatalf("track: %d %v", status, body)
	}
	if _, leaked := body["customer"]; leaked {
		t.Fatal("tracking view exposes customer details")
	}

	// customer side
	if status, body = call(t, app, http.MethodPost, "/api/customer/otp", "", map[string]string{"mobile": mobile}); status != http.StatusOK {
		t.Fatalf("customer otp: %d %v", status, body)
	}
	status, body = call(t, app, http.MethodPost, "/api/customer/otp/verify", "", map[string]string{"mobile": mobile, "otp": box.code(t, mobile)})
	if status != http.StatusOK || body["needs_profile"] != false {
		t.Fatalf("customer verify: %d %v", status, body)
	}
	custToken := body["token"].(string)

	status, body = call(t, app, http.MethodGet, "/api/customer/dashboard", custToken, nil)
	if status != http.StatusOK {
		t.Fatalf("dashboard: %d %v", status, body)
	}
	if notes := body["notifications"].([]interface{}); len(notes) != 4 {
		t.Fatalf("dashboard notifications = %d, want 4", len(notes))
	}
}

func TestAuthGuards(t *testing.T) {
	app, box, _ := newTestApp(t, 60, 10)
	const mobile = "9876543210"

	if status, _ := call(t, app, http.MethodGet, "/api/customer/profile", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("profile without token: %d, want 401", status)
	}
	if status, _ := call(t, app, http.MethodGet, "/api/employee/dashboard", "garbage", nil); status != http.StatusUnauthorized {
		t.Fatalf("dashboard with bad token: %d, want 401", status)
	}

	call(t, app, http.MethodPost, "/api/customer/otp", "", map[string]string{"mobile": mobile})
	_, body := call(t, app, http.MethodPost, "/api/customer/otp/verify", "", map[string]string{"mobile": mobile, "otp": box.code(t, mobile)})
	custToken := body["token"].(string)
	if body["needs_profile"] != true {
		t.Fatalf("new customer needs_profile = %v", body["needs_profile"])
	}

	if status, _ := call(t, app, http.MethodGet, "/api/employee/dashboard", custToken, nil); status != http.StatusForbidden {
		t.Fatalf("customer on employee route: %d, want 403", status)
	}
	if status, _ := call(t, app, http.MethodPut, "/api/customer/profile", custToken, map[string]string{"name": ""}); status != http.StatusBadRequest {
		t.Fatalf("empty name: %d, want 400", status)
	}
	if status, _ := call(t, app, http.MethodPut, "/api/customer/profile", custToken, map[string]string{"name": "Asha"}); status != http.StatusOK {
		t.Fatalf("update profile: %d, want 200", status)
	}
	if status, _ := call(t, app, http.MethodPost, "/api/employee/login", "", map[string]string{"employee_id": "EMP001", "mobile": "9999999999"}); status != http.StatusUnauthorized {
		t.Fatalf("bad employee login: %d, want 401", status)
	}
}

func TestOTPRequestsAreRateLimited(t *testing.T) {
	app, _, _ := newTestApp(t, 1, 1)

	if status, _ := call(t, app, http.MethodPost, "/api/customer/otp", "", map[string]string{"mobile": "9876543210"}); status != http.StatusOK {
		t.Fatalf("first otp request: %d", status)
	}
	if status, _ := call(t, app, http.MethodPost, "/api/customer/otp", "", map[string]string{"mobile": "9876543210"}); status != http.StatusTooManyRequests {
		t.Fatalf("second otp request: %d, want 429", status)
	}
	// other numbers have their own bucket
	if status, _ := call(t, app, http.MethodPost, "/api/customer/otp", "", map[string]string{"mobile": "9876543211"}); status != http.StatusOK {
		t.Fatalf("other mobile: %d", status)
	}
	if status, _ := call(t, app, http.MethodPost, "/api/customer/otp", "", map[string]string{"mobile": "12345"}); status != http.StatusBadRequest {
		t.Fatalf("invalid mobile: %d, want 400", status)
	}
}

func TestCodeVerificationIsRateLimited(t *testing.T) {
	app, box, _ := newTestApp(t, 1, 2)
	const mobile = "9876543210"

	if status, _ := call(t, app, http.MethodPost, "/api/customer/otp", "", map[string]string{"mobile": mobile}); status != http.StatusOK {
		t.Fatalf("customer otp: %d", status)
	}
	for i := 0; i < 2; i++ {
		if status, _ := call(t, app, http.MethodPost, "/api/customer/otp/verify", "", map[string]string{"mobile": mobile, "otp": "000000"}); status != http.StatusUnauthorized {
			t.Fatalf("wrong guess %d: %d, want 401", i+1, status)
		}
	}
	// the bucket is spent, so even the right code is refused
	if status, _ := call(t, app, http.MethodPost, "/api/customer/otp/verify", "", map[string]string{"mobile": mobile, "otp": box.code(t, mobile)}); status != http.StatusTooManyRequests {
		t.Fatalf("verify after guesses: %d, want 429", status)
	}

	status, body := call(t, app, http.MethodPost, "/api/employee/login", "", map[string]string{
		"employee_id": "EMP001", "mobile": "9000000001",
	})
	if status != http.StatusOK {
		t.Fatalf("employee login: %d %v", status, body)
	}
	empToken := body["token"].(string)
	status, body = call(t, app, http.MethodPost, "/api/employee/requests", empToken, map[string]interface{}{
		"mobile":         "9876500001",
		"vehicle_number": "KA01AB9999",
		"vehicle_type":   "2W",
		"service_type":   "WASH",
	})
	if status != http.StatusCreated {
		t.Fatalf("intake: %d %v", status, body)
	}
	tid := body["service_request"].(map[string]interface{})["tracking_id"].(string)

	for i := 0; i < 2; i++ {
		if status, _ := call(t, app, http.MethodPost, "/api/employee/requests/"+tid+"/accept", empToken, map[string]string{"otp": "000000"}); status != http.StatusUnauthorized {
			t.Fatalf("wrong accept %d: %d, want 401", i+1, status)
		}
	}
	if status, _ := call(t, app, http.MethodPost, "/api/employee/requests/"+tid+"/accept", empToken, map[string]string{"otp": "000000"}); status != http.StatusTooManyRequests {
		t.Fatalf("accept after guesses: %d, want 429", status)
	}
}

func TestHealth(t *testing.T) {
	app, _, _ := newTestApp(t, 60, 10)
	status, body := call(t, app, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK || body["status"] != "healthy" {
		t.Fatalf("health: %d %v", status, body)
	}
	if status, _ := call(t, app, http.MethodGet, "/api/track/SS00000000", "", nil); status != http.StatusNotFound {
		t.Fatalf("unknown tracking id: %d, want 404", status)
	}
}
