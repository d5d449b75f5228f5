package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/smartservice-backend/internal/models"
	"github.com/Ananth-NQI/smartservice-backend/internal/services"
	"github.com/Ananth-NQI/smartservice-backend/internal/utils"
)

// AuthHandler handles customer OTP login and employee login
type AuthHandler struct {
	accounts *services.AccountService
	tokens   *services.TokenService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts *services.AccountService, tokens *services.TokenService) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens}
}

// RequestCustomerOTP sends a login code to the customer's mobile
func (h *AuthHandler) RequestCustomerOTP(c *fiber.Ctx) error {
	var req struct {
		Mobile string `json:"mobile"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	delivered, err := h.accounts.RequestLoginOTP(c.UserContext(), req.Mobile)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "OTP sent to " + utils.MaskMobile(utils.NormalizeMobile(req.Mobile)),
		"otp_delivered": delivered,
	})
}

// VerifyCustomerOTP exchanges a login code for a customer token
func (h *AuthHandler) VerifyCustomerOTP(c *fiber.Ctx) error {
	var req struct {
		Mobile string `json:"mobile"`
		OTP    string `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	res, err := h.accounts.LoginCustomer(c.UserContext(), req.Mobile, req.OTP)
	if err != nil {
		return fail(c, err)
	}
	token, err := h.tokens.Issue(models.Principal{
		Role:   models.RoleCustomer,
		ID:     res.Customer.ID,
		Name:   res.Customer.Name,
		Mobile: res.Customer.Mobile,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"token":         token,
		"customer":      res.Customer,
		"needs_profile": res.NeedsProfile,
	})
}

// EmployeeLogin authenticates an employee by employee id and mobile
func (h *AuthHandler) EmployeeLogin(c *fiber.Ctx) error {
	var req struct {
		EmployeeID string `json:"employee_id"`
		Mobile     string `json:"mobile"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	employee, err := h.accounts.LoginEmployee(c.UserContext(), req.EmployeeID, req.Mobile)
	if err != nil {
		return fail(c, err)
	}
	token, err := h.tokens.Issue(models.Principal{
		Role:   models.RoleEmployee,
		ID:     employee.ID,
		Name:   employee.Name,
		Mobile: employee.Mobile,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"token":    token,
		"employee": employee,
	})
}
