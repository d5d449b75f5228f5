package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/smartservice-backend/internal/handlers"
	"github.com/Ananth-NQI/smartservice-backend/internal/middleware"
	"github.com/Ananth-NQI/smartservice-backend/internal/models"
	"github.com/Ananth-NQI/smartservice-backend/internal/services"
	"github.com/Ananth-NQI/smartservice-backend/internal/storage"
)

// Version is reported by the root and health endpoints.
const Version = "1.0.0"

// Deps is everything the route table needs.
type Deps struct {
	Store         storage.Store
	StorageKind   string
	Accounts      *services.AccountService
	Requests      *services.ServiceRequestService
	Tokens        *services.TokenService
	Receipts      *services.ReceiptRenderer
	OTPLimiter    *middleware.RateLimiter
	VerifyLimiter *middleware.RateLimiter // attempts to present a code or credentials
	Logger        *zap.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, d Deps) {
	health := handlers.NewHealthHandler(Version, d.StorageKind, d.Store)
	auth := handlers.NewAuthHandler(d.Accounts, d.Tokens)
	customer := handlers.NewCustomerHandler(d.Accounts)
	requests := handlers.NewServiceRequestHandler(d.Requests, d.Accounts, d.Receipts)
	tracking := handlers.NewTrackingHandler(d.Requests)

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Smart Service Backend!",
			"version": Version,
			"endpoints": fiber.Map{
				"health":   "/health",
				"customer": "/api/customer",
				"employee": "/api/employee",
				"track":    "/api/track/:tid",
			},
		})
	})
	app.Get("/health", health.Check)

	api := app.Group("/api")
	authenticate := middleware.Authenticate(d.Tokens)

	// Customer routes
	cust := api.Group("/customer")
	cust.Post("/otp", middleware.RateLimit(d.OTPLimiter, middleware.ByBodyField("mobile"), d.Logger), auth.RequestCustomerOTP)
	cust.Post("/otp/verify", middleware.RateLimit(d.VerifyLimiter, middleware.ByBodyField("mobile"), d.Logger), auth.VerifyCustomerOTP)

	// Route-level chains: a Group("") middleware would also guard the public routes above.
	asCustomer := []fiber.Handler{authenticate, middleware.RequireRole(models.RoleCustomer)}
	cust.Get("/profile", with(asCustomer, customer.GetProfile)...)
	cust.Put("/profile", with(asCustomer, customer.UpdateProfile)...)
	cust.Get("/dashboard", with(asCustomer, customer.Dashboard)...)

	// Employee routes
	emp := api.Group("/employee")
	emp.Post("/login", middleware.RateLimit(d.VerifyLimiter, middleware.ByIP, d.Logger), auth.EmployeeLogin)

	asEmployee := []fiber.Handler{authenticate, middleware.RequireRole(models.RoleEmployee)}
	otpLimit := middleware.RateLimit(d.OTPLimiter, middleware.ByParam("tid"), d.Logger)
	acceptLimit := middleware.RateLimit(d.VerifyLimiter, middleware.ByParam("tid"), d.Logger)
	emp.Get("/dashboard", with(asEmployee, requests.Dashboard)...)
	emp.Post("/requests", with(asEmployee, requests.Intake)...)
	emp.Get("/requests/:tid", with(asEmployee, requests.GetRequest)...)
	emp.Post("/requests/:tid/otp", with(asEmployee, otpLimit, requests.ResendOTP)...)
	emp.Post("/requests/:tid/accept", with(asEmployee, acceptLimit, requests.Accept)...)
	emp.Post("/requests/:tid/assignments", with(asEmployee, requests.AssignWork)...)
	emp.Put("/requests/:tid/status", with(asEmployee, requests.UpdateStatus)...)
	emp.Post("/requests/:tid/payment", with(asEmployee, requests.RecordPayment)...)
	emp.Post("/assignments/:id/complete", with(asEmployee, requests.CompleteAssignment)...)
	emp.Get("/receipts/:rcp", with(asEmployee, requests.Receipt)...)

	// Public tracking
	api.Get("/track/:tid", tracking.Track)
}

// with appends handlers to a shared middleware chain without aliasing it.
func with(chain []fiber.Handler, handlers ...fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(chain)+len(handlers))
	out = append(out, chain...)
	return append(out, handlers...)
}
