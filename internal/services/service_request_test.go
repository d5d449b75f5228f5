package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Ananth-NQI/smartservice-backend/internal/models"
)

var (
	trackingPattern = regexp.MustCompile(`^SS\d{8}$`)
	receiptPattern  = regexp.MustCompile(`^RCP\d{8}$`)
)

func (e *testEnv) intake(t *testing.T, mobile, vehicle string) *models.ServiceRequest {
	t.Helper()
	res, err := e.requests.Intake(context.Background(), e.actor(), IntakeInput{
		CustomerName:    "Asha",
		Mobile:          mobile,
		VehicleNumber:   vehicle,
		VehicleType:     models.VehicleFourWheeler,
		Brand:           "Maruti",
		Model:           "Swift",
		ServiceType:     models.ServiceGeneral,
		Description:     "periodic service",
		EstimatedAmount: decimal.RequireFromString("1500"),
	})
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}
	return res.Request
}

func TestFullServiceScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sr := env.intake(t, testMobile, "ka 01 ab 1234")
	if !trackingPattern.MatchString(sr.TrackingID) {
		t.Fatalf("tracking id %q does not match %s", sr.TrackingID, trackingPattern)
	}
	if sr.Status != models.StatusPending {
		t.Fatalf("status after intake = %s, want PENDING", sr.Status)
	}
	if !strings.Contains(env.messenger.sent[0].message, "Your OTP for service acceptance is:") {
		t.Fatalf("acceptance sms = %q", env.messenger.sent[0].message)
	}

	code := env.messenger.lastCode(t, testMobile)
	wrong := "100000"
	if code == wrong {
		wrong = "100001"
	}
	if _, err := env.requests.AcceptViaOTP(ctx, sr.TrackingID, wrong); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("AcceptViaOTP with wrong code = %v, want ErrOTPMismatch", err)
	}
	if got, _ := env.requests.Get(ctx, sr.TrackingID); got.Status != models.StatusPending {
		t.Fatalf("status after rejected code = %s, want PENDING", got.Status)
	}

	accepted, err := env.requests.AcceptViaOTP(ctx, sr.TrackingID, code)
	if err != nil {
		t.Fatalf("AcceptViaOTP: %v", err)
	}
	if accepted.Status != models.StatusAccepted {
		t.Fatalf("status = %s, want ACCEPTED", accepted.Status)
	}

	assignedBy := env.employee.ID
	inProgress, err := env.requests.AssignWork(ctx, sr.TrackingID, AssignWorkInput{
		WorkerID:   env.worker.ID,
		Task:       "Oil and filter",
		AssignedBy: &assignedBy,
	})
	if err != nil {
		t.Fatalf("AssignWork: %v", err)
	}
	if inProgress.Status != models.StatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", inProgress.Status)
	}
	if len(inProgress.Assignments) != 1 || inProgress.Assignments[0].Worker.Name != "Suresh" {
		t.Fatalf("assignments = %+v", inProgress.Assignments)
	}

	completed, err := env.requests.SetStatus(ctx, sr.TrackingID, models.StatusCompleted)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if completed.CompletedAt == nil || !completed.CompletedAt.Equal(env.clock.Now()) {
		t.Fatalf("completed_at = %v, want %v", completed.CompletedAt, env.clock.Now())
	}

	amount := decimal.RequireFromString("1500.00")
	delivered, err := env.requests.RecordPayment(ctx, sr.TrackingID, PaymentInput{
		Amount:        &amount,
		Method:        models.PaymentUPI,
		TransactionID: "TXN1",
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if delivered.Status != models.StatusDelivered {
		t.Fatalf("status = %s, want DELIVERED", delivered.Status)
	}
	payment := delivered.Payment
	if payment == nil || !receiptPattern.MatchString(payment.ReceiptNumber) {
		t.Fatalf("payment = %+v", payment)
	}
	if payment.Status != models.PaymentStatusCompleted || payment.PaidAt == nil {
		t.Fatalf("payment status = %s paid_at = %v", payment.Status, payment.PaidAt)
	}

	notes, err := env.notifier.Unread(ctx, sr.CustomerID)
	if err != nil {
		t.Fatalf("Unread: %v", err)
	}
	tid := sr.TrackingID
	want := []string{
		"✅ Payment of ₹1500.00 received for service #" + tid + ". Receipt: " + payment.ReceiptNumber + ". Thank you!",
		"🎉 Great news! Your vehicle service #" + tid + " is COMPLETED. Please visit us for pickup.",
		"Work has been assigned for your service #" + tid + ". Suresh is working on your vehicle.",
		"Your service request #" + tid + " has been accepted. We'll keep you updated.",
	}
	if len(notes) != len(want) {
		t.Fatalf("got %d notifications, want %d", len(notes), len(want))
	}
	for i := range want {
		if notes[i].Message != want[i] {
			t.Errorf("notification %d = %q, want %q", i, notes[i].Message, want[i])
		}
	}

	again, err := env.notifier.Unread(ctx, sr.CustomerID)
	if err != nil {
		t.Fatalf("Unread: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second Unread returned %d notifications, want 0", len(again))
	}
}

func TestAcceptWithExpiredCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sr := env.intake(t, testMobile, "KA01AB1234")
	code := env.messenger.lastCode(t, testMobile)
	env.clock.Advance(OTPValidity)

	if _, err := env.requests.AcceptViaOTP(ctx, sr.TrackingID, code); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("AcceptViaOTP = %v, want ErrOTPExpired", err)
	}
	got, err := env.requests.Get(ctx, sr.TrackingID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.StatusPending {
		t.Fatalf("status = %s, want PENDING", got.Status)
	}

	if _, err := env.requests.ResendAcceptanceOTP(ctx, sr.TrackingID); err != nil {
		t.Fatalf("ResendAcceptanceOTP: %v", err)
	}
	fresh := env.messenger.lastCode(t, testMobile)
	if _, err := env.requests.AcceptViaOTP(ctx, sr.TrackingID, fresh); err != nil {
		t.Fatalf("AcceptViaOTP with resent code: %v", err)
	}
}

func TestAcceptNeverUsesOTPVerifiedStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sr := env.intake(t, testMobile, "KA01AB1234")
	got, err := env.requests.AcceptViaOTP(ctx, sr.TrackingID, env.messenger.lastCode(t, testMobile))
	if err != nil {
		t.Fatalf("AcceptViaOTP: %v", err)
	}
	if got.Status == models.StatusOTPVerified {
		t.Fatal("OTP_VERIFIED is not assigned by any transition")
	}
}

func TestTrackingIDsAreUnique(t *testing.T) {
	env := newTestEnv(t)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		sr := env.intake(t, testMobile, "KA01AB1234")
		if !trackingPattern.MatchString(sr.TrackingID) {
			t.Fatalf("tracking id %q does not match %s", sr.TrackingID, trackingPattern)
		}
		if seen[sr.TrackingID] {
			t.Fatalf("duplicate tracking id %s", sr.TrackingID)
		}
		seen[sr.TrackingID] = true
	}
}

// sequence returns a generator that yields ids in order and then repeats the last.
func sequence(ids ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		id := ids[i]
		if i < len(ids)-1 {
			i++
		}
		return id, nil
	}
}

func TestCreateRetriesOnTrackingIDCollision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.requests.newTrackingID = sequence("SS00000001", "SS00000001", "SS00000001", "SS00000002")

	first := env.intake(t, testMobile, "KA01AB1234")
	if first.TrackingID != "SS00000001" {
		t.Fatalf("first tracking id = %s", first.TrackingID)
	}
	second, err := env.requests.Create(ctx, CreateInput{
		CustomerID:  first.CustomerID,
		VehicleID:   first.VehicleID,
		ServiceType: models.ServiceWash,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.TrackingID != "SS00000002" {
		t.Fatalf("second tracking id = %s, want SS00000002", second.TrackingID)
	}
}

func TestCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.requests.newTrackingID = sequence("SS00000001")

	first := env.intake(t, testMobile, "KA01AB1234")
	_, err := env.requests.Create(ctx, CreateInput{
		CustomerID:  first.CustomerID,
		VehicleID:   first.VehicleID,
		ServiceType: models.ServiceWash,
	})
	if !errors.Is(err, ErrIdentifierCollision) {
		t.Fatalf("Create = %v, want ErrIdentifierCollision", err)
	}
	recent, err := env.requests.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("got %d requests, want 1", len(recent))
	}
}

func TestRecordPaymentTwiceKeepsReceipt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sr := env.intake(t, testMobile, "KA01AB1234")

	firstAmount := decimal.RequireFromString("1500")
	first, err := env.requests.RecordPayment(ctx, sr.TrackingID, PaymentInput{Amount: &firstAmount, Method: models.PaymentCard})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	secondAmount := decimal.RequireFromString("1750.5")
	second, err := env.requests.RecordPayment(ctx, sr.TrackingID, PaymentInput{Amount: &secondAmount, Method: models.PaymentOffline, TransactionID: "CASH"})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	if first.Payment.ID != second.Payment.ID {
		t.Fatalf("payment row changed: %d -> %d", first.Payment.ID, second.Payment.ID)
	}
	if first.Payment.ReceiptNumber != second.Payment.ReceiptNumber {
		t.Fatalf("receipt changed: %s -> %s", first.Payment.ReceiptNumber, second.Payment.ReceiptNumber)
	}
	if !second.Payment.Amount.Equal(secondAmount) || second.Payment.Method != models.PaymentOffline {
		t.Fatalf("payment not updated: %+v", second.Payment)
	}

	receipt, err := env.requests.ReceiptByNumber(ctx, strings.ToLower(first.Payment.ReceiptNumber))
	if err != nil {
		t.Fatalf("ReceiptByNumber: %v", err)
	}
	if receipt.Request.TrackingID != sr.TrackingID {
		t.Fatalf("receipt belongs to %s", receipt.Request.TrackingID)
	}

	notes, _ := env.notifier.All(ctx, sr.CustomerID)
	if !strings.HasPrefix(notes[0].Message, "✅ Payment of ₹1750.50 received") {
		t.Fatalf("latest notification = %q", notes[0].Message)
	}
}

func TestRecordPaymentDefaultsToEstimate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sr := env.intake(t, testMobile, "KA01AB1234")

	got, err := env.requests.RecordPayment(ctx, sr.TrackingID, PaymentInput{Method: models.PaymentUPI})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if !got.Payment.Amount.Equal(decimal.RequireFromString("1500")) {
		t.Fatalf("amount = %s, want 1500", got.Payment.Amount)
	}
}

func TestRecordPaymentRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sr := env.intake(t, testMobile, "KA01AB1234")
	negative := decimal.RequireFromString("-1")

	cases := []struct {
		name string
		in   PaymentInput
	}{
		{"unknown method", PaymentInput{Method: "BARTER"}},
		{"negative amount", PaymentInput{Method: models.PaymentUPI, Amount: &negative}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.requests.RecordPayment(ctx, sr.TrackingID, tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("RecordPayment = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestSetStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sr := env.intake(t, testMobile, "KA01AB1234")

	got, err := env.requests.SetStatus(ctx, sr.TrackingID, models.StatusInProgress)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got.Status != models.StatusInProgress || got.CompletedAt != nil {
		t.Fatalf("status = %s completed_at = %v", got.Status, got.CompletedAt)
	}
	if notes, _ := env.notifier.All(ctx, sr.CustomerID); len(notes) != 0 {
		t.Fatalf("non-completion status produced %d notifications", len(notes))
	}

	if _, err := env.requests.SetStatus(ctx, sr.TrackingID, "PARKED"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("SetStatus(PARKED) = %v, want ErrInvalidInput", err)
	}
	if _, err := env.requests.SetStatus(ctx, "SS99999999", models.StatusCompleted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetStatus on unknown request = %v, want ErrNotFound", err)
	}
}

func TestAssignWorkUnknownWorker(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sr := env.intake(t, testMobile, "KA01AB1234")

	if _, err := env.requests.AssignWork(ctx, sr.TrackingID, AssignWorkInput{WorkerID: 9999, Task: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AssignWork = %v, want ErrNotFound", err)
	}
	got, _ := env.requests.Get(ctx, sr.TrackingID)
	if got.Status != models.StatusPending || len(got.Assignments) != 0 {
		t.Fatalf("request changed: status=%s assignments=%d", got.Status, len(got.Assignments))
	}
}

func TestCompleteAssignment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sr := env.intake(t, testMobile, "KA01AB1234")

	withWork, err := env.requests.AssignWork(ctx, sr.TrackingID, AssignWorkInput{WorkerID: env.worker.ID, Task: "brakes"})
	if err != nil {
		t.Fatalf("AssignWork: %v", err)
	}
	done, err := env.requests.CompleteAssignment(ctx, withWork.Assignments[0].ID)
	if err != nil {
		t.Fatalf("CompleteAssignment: %v", err)
	}
	if !done.IsCompleted || done.CompletedAt == nil {
		t.Fatalf("assignment = %+v", done)
	}
	got, _ := env.requests.Get(ctx, sr.TrackingID)
	if got.Status != models.StatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", got.Status)
	}
}

func TestIntakeReusesCustomerAndVehicle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// a customer who logged in first carries the placeholder name
	if _, err := env.accounts.RequestLoginOTP(ctx, testMobile); err != nil {
		t.Fatalf("RequestLoginOTP: %v", err)
	}
	login, err := env.accounts.LoginCustomer(ctx, testMobile, env.messenger.lastCode(t, testMobile))
	if err != nil {
		t.Fatalf("LoginCustomer: %v", err)
	}

	first := env.intake(t, testMobile, "ka01 ab1234")
	second := env.intake(t, testMobile, "KA01AB1234")
	if first.CustomerID != login.Customer.ID || second.CustomerID != login.Customer.ID {
		t.Fatalf("customer ids = %d, %d, want %d", first.CustomerID, second.CustomerID, login.Customer.ID)
	}
	if first.VehicleID != second.VehicleID {
		t.Fatalf("vehicle ids = %d, %d", first.VehicleID, second.VehicleID)
	}
	if first.Vehicle == nil || first.Vehicle.VehicleNumber != "KA01AB1234" || first.Vehicle.ModelName != "Swift" {
		t.Fatalf("vehicle = %+v", first.Vehicle)
	}
	if first.Customer == nil || first.Customer.Mobile != testMobile {
		t.Fatalf("customer = %+v", first.Customer)
	}

	customer, err := env.accounts.Profile(ctx, login.Customer.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if customer.Name != "Asha" {
		t.Fatalf("placeholder name not replaced: %q", customer.Name)
	}
}

func TestIntakeValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := models.Principal{Role: models.RoleCustomer, ID: 1}
	if _, err := env.requests.Intake(ctx, customer, IntakeInput{Mobile: testMobile, VehicleNumber: "KA01", ServiceType: models.ServiceWash}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Intake as customer = %v, want ErrUnauthorized", err)
	}

	cases := []struct {
		name string
		in   IntakeInput
	}{
		{"short mobile", IntakeInput{Mobile: "98765", VehicleNumber: "KA01", ServiceType: models.ServiceWash}},
		{"no vehicle", IntakeInput{Mobile: testMobile, ServiceType: models.ServiceWash}},
		{"no service type", IntakeInput{Mobile: testMobile, VehicleNumber: "KA01"}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.requests.Intake(ctx, env.actor(), tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Intake = %v, want ErrInvalidInput", err)
			}
		})
	}
	if recent, _ := env.requests.ListRecent(ctx, 0); len(recent) != 0 {
		t.Fatalf("rejected intakes created %d requests", len(recent))
	}
}

func TestTrackIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sr := env.intake(t, testMobile, "KA01AB1234")

	got, err := env.requests.Track(ctx, " "+strings.ToLower(sr.TrackingID)+" ")
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if got.ID != sr.ID {
		t.Fatalf("Track returned request %d, want %d", got.ID, sr.ID)
	}
	if _, err := env.requests.Track(ctx, "SS00000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Track unknown = %v, want ErrNotFound", err)
	}
}

func TestIntakeWithFailedDeliveryKeepsRequestAndCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.messenger.fail = true

	res, err := env.requests.Intake(ctx, env.actor(), IntakeInput{
		CustomerName:    "Asha",
		Mobile:          testMobile,
		VehicleNumber:   "KA01AB1234",
		VehicleType:     models.VehicleFourWheeler,
		ServiceType:     models.ServiceWash,
		EstimatedAmount: decimal.NewFromInt(400),
	})
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}
	if res.OTPDelivered {
		t.Fatal("OTPDelivered = true with a failing messenger")
	}
	if res.Request.Status != models.StatusPending || res.Request.Customer == nil {
		t.Fatalf("request = %+v", res.Request)
	}

	accepted, err := env.requests.AcceptViaOTP(ctx, res.Request.TrackingID, env.messenger.lastCode(t, testMobile))
	if err != nil {
		t.Fatalf("AcceptViaOTP with undelivered code: %v", err)
	}
	if accepted.Status != models.StatusAccepted {
		t.Fatalf("status = %s, want ACCEPTED", accepted.Status)
	}
}
