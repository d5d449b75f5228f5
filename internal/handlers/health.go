package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/smartservice-backend/internal/storage"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	Version string
	Storage string
	store   storage.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, storageKind string, store storage.Store) *HealthHandler {
	return &HealthHandler{
		Version: version,
		Storage: storageKind,
		store:   store,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, code := "healthy", fiber.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		status, code = "unhealthy", fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":  status,
		"service": "Smart Service Backend",
		"version": h.Version,
		"storage": h.Storage,
	})
}
