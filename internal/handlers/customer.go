package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/smartservice-backend/internal/middleware"
	"github.com/Ananth-NQI/smartservice-backend/internal/services"
)

// CustomerHandler serves the logged-in customer's profile and dashboard
type CustomerHandler struct {
	accounts *services.AccountService
}

func NewCustomerHandler(accounts *services.AccountService) *CustomerHandler {
	return &CustomerHandler{accounts: accounts}
}

func (h *CustomerHandler) GetProfile(c *fiber.Ctx) error {
	principal, _ := middleware.PrincipalFrom(c)
	customer, err := h.accounts.Profile(c.UserContext(), principal.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"customer":      customer,
		"needs_profile": customer.NeedsProfile(),
	})
}

func (h *CustomerHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, _ := middleware.PrincipalFrom(c)
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Address string `json:"address"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	customer, err := h.accounts.UpdateProfile(c.UserContext(), principal.ID, services.ProfileInput{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Profile updated successfully",
		"customer": customer,
	})
}

// Dashboard lists the customer's requests and unread notifications. The
// returned notifications are marked read.
func (h *CustomerHandler) Dashboard(c *fiber.Ctx) error {
	principal, _ := middleware.PrincipalFrom(c)
	dash, err := h.accounts.Dashboard(c.UserContext(), principal.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dash)
}
