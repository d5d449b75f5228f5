package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/Ananth-NQI/smartservice-backend/internal/middleware"
	"github.com/Ananth-NQI/smartservice-backend/internal/models"
	"github.com/Ananth-NQI/smartservice-backend/internal/services"
)

// ServiceRequestHandler serves the employee side of the service lifecycle
type ServiceRequestHandler struct {
	requests *services.ServiceRequestService
	accounts *services.AccountService
	receipts *services.ReceiptRenderer
}

// NewServiceRequestHandler creates a new service request handler
func NewServiceRequestHandler(requests *services.ServiceRequestService, accounts *services.AccountService, receipts *services.ReceiptRenderer) *ServiceRequestHandler {
	return &ServiceRequestHandler{
		requests: requests,
		accounts: accounts,
		receipts: receipts,
	}
}

// Dashboard lists the most recent requests and all workers
func (h *ServiceRequestHandler) Dashboard(c *fiber.Ctx) error {
	principal, _ := middleware.PrincipalFrom(c)
	dash, err := h.accounts.EmployeeDashboard(c.UserContext(), principal.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dash)
}

// Intake registers a walk-in vehicle and sends the acceptance OTP
func (h *ServiceRequestHandler) Intake(c *fiber.Ctx) error {
	principal, _ := middleware.PrincipalFrom(c)
	var req struct {
		CustomerName    string          `json:"customer_name"`
		Mobile          string          `json:"mobile"`
		VehicleNumber   string          `json:"vehicle_number"`
		VehicleType     string          `json:"vehicle_type"`
		Brand           string          `json:"brand"`
		Model           string          `json:"model"`
		ServiceType     string          `json:"service_type"`
		Description     string          `json:"description"`
		EstimatedAmount decimal.Decimal `json:"estimated_amount"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	serviceType, err := models.ParseServiceType(req.ServiceType)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var vehicleType models.VehicleType
	if req.VehicleType != "" {
		if vehicleType, err = models.ParseVehicleType(req.VehicleType); err != nil {
			return badRequest(c, err.Error())
		}
	}

	res, err := h.requests.Intake(c.UserContext(), principal, services.IntakeInput{
		CustomerName:    req.CustomerName,
		Mobile:          req.Mobile,
		VehicleNumber:   req.VehicleNumber,
		VehicleType:     vehicleType,
		Brand:           req.Brand,
		Model:           req.Model,
		ServiceType:     serviceType,
		Description:     req.Description,
		EstimatedAmount: req.EstimatedAmount,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":         fmt.Sprintf("OTP sent to customer %s for service acceptance.", res.MaskedMobile),
		"service_request": res.Request,
		"otp_delivered":   res.OTPDelivered,
	})
}

// GetRequest returns one request with assignments and payment
func (h *ServiceRequestHandler) GetRequest(c *fiber.Ctx) error {
	sr, err := h.requests.Get(c.UserContext(), strings.ToUpper(c.Params("tid")))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"service_request": sr})
}

// ResendOTP issues a fresh acceptance OTP to the request's customer
func (h *ServiceRequestHandler) ResendOTP(c *fiber.Ctx) error {
	delivered, err := h.requests.ResendAcceptanceOTP(c.UserContext(), strings.ToUpper(c.Params("tid")))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"status":        "sent",
		"otp_delivered": delivered,
	})
}

// Accept verifies the customer's acceptance OTP
func (h *ServiceRequestHandler) Accept(c *fiber.Ctx) error {
	var req struct {
		OTP string `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	sr, err := h.requests.AcceptViaOTP(c.UserContext(), strings.ToUpper(c.Params("tid")), req.OTP)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message":         fmt.Sprintf("Service #%s accepted after OTP verification!", sr.TrackingID),
		"service_request": sr,
	})
}

// AssignWork assigns a worker to the request
func (h *ServiceRequestHandler) AssignWork(c *fiber.Ctx) error {
	principal, _ := middleware.PrincipalFrom(c)
	var req struct {
		WorkerID        uint   `json:"worker_id"`
		TaskDescription string `json:"task_description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.WorkerID == 0 {
		return badRequest(c, "worker_id is required")
	}

	assignedBy := principal.ID
	sr, err := h.requests.AssignWork(c.UserContext(), strings.ToUpper(c.Params("tid")), services.AssignWorkInput{
		WorkerID:   req.WorkerID,
		Task:       req.TaskDescription,
		AssignedBy: &assignedBy,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":         "Work assigned",
		"service_request": sr,
	})
}

// CompleteAssignment marks a work assignment done
func (h *ServiceRequestHandler) CompleteAssignment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid assignment id")
	}
	assignment, err := h.requests.CompleteAssignment(c.UserContext(), uint(id))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"assignment": assignment})
}

// UpdateStatus overwrites the request status
func (h *ServiceRequestHandler) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	status, err := models.ParseServiceStatus(req.Status)
	if err != nil {
		return badRequest(c, err.Error())
	}

	sr, err := h.requests.SetStatus(c.UserContext(), strings.ToUpper(c.Params("tid")), status)
	if err != nil {
		return fail(c, err)
	}
	msg := "Status updated to " + string(status)
	if status == models.StatusCompleted {
		msg = "Service marked completed. Customer notified!"
	}
	return c.JSON(fiber.Map{
		"message":         msg,
		"service_request": sr,
	})
}

// RecordPayment records (or re-records) the request's payment
func (h *ServiceRequestHandler) RecordPayment(c *fiber.Ctx) error {
	var req struct {
		Method        string           `json:"method"`
		Amount        *decimal.Decimal `json:"amount"`
		TransactionID string           `json:"transaction_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	method, err := models.ParsePaymentMethod(req.Method)
	if err != nil {
		return badRequest(c, err.Error())
	}

	sr, err := h.requests.RecordPayment(c.UserContext(), strings.ToUpper(c.Params("tid")), services.PaymentInput{
		Amount:        req.Amount,
		Method:        method,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message":         "Payment recorded successfully!",
		"receipt_number":  sr.Payment.ReceiptNumber,
		"service_request": sr,
	})
}

// Receipt returns a receipt as JSON, or as a PDF with ?format=pdf
func (h *ServiceRequestHandler) Receipt(c *fiber.Ctx) error {
	receipt, err := h.requests.ReceiptByNumber(c.UserContext(), c.Params("rcp"))
	if err != nil {
		return fail(c, err)
	}
	if c.Query("format") != "pdf" {
		return c.JSON(receipt)
	}

	pdf, err := h.receipts.Render(receipt)
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", receipt.Payment.ReceiptNumber+".pdf"))
	return c.Send(pdf)
}
