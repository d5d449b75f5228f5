package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/smartservice-backend/internal/models"
	"github.com/Ananth-NQI/smartservice-backend/internal/services"
)

// TrackingView is the public projection of a service request. It carries
// no customer contact details.
type TrackingView struct {
	TrackingID    string               `json:"tracking_id"`
	Status        models.ServiceStatus `json:"status"`
	StatusLabel   string               `json:"status_label"`
	ServiceType   string               `json:"service_type"`
	VehicleNumber string               `json:"vehicle_number,omitempty"`
	Tasks         []TrackingTask       `json:"tasks"`
	Paid          bool                 `json:"paid"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
}

type TrackingTask struct {
	Description string `json:"description"`
	Worker      string `json:"worker,omitempty"`
	Completed   bool   `json:"completed"`
}

func newTrackingView(sr *models.ServiceRequest) TrackingView {
	view := TrackingView{
		TrackingID:  sr.TrackingID,
		Status:      sr.Status,
		StatusLabel: sr.Status.Label(),
		ServiceType: sr.ServiceType.Label(),
		Tasks:       make([]TrackingTask, 0, len(sr.Assignments)),
		Paid:        sr.Payment != nil && sr.Payment.Status == models.PaymentStatusCompleted,
		CreatedAt:   sr.CreatedAt,
		UpdatedAt:   sr.UpdatedAt,
		CompletedAt: sr.CompletedAt,
	}
	if sr.Vehicle != nil {
		view.VehicleNumber = sr.Vehicle.VehicleNumber
	}
	for _, a := range sr.Assignments {
		task := TrackingTask{Description: a.TaskDescription, Completed: a.IsCompleted}
		if a.Worker != nil {
			task.Worker = a.Worker.Name
		}
		view.Tasks = append(view.Tasks, task)
	}
	return view
}

// TrackingHandler serves the public tracking page
type TrackingHandler struct {
	requests *services.ServiceRequestService
}

func NewTrackingHandler(requests *services.ServiceRequestService) *TrackingHandler {
	return &TrackingHandler{requests: requests}
}

func (h *TrackingHandler) Track(c *fiber.Ctx) error {
	sr, err := h.requests.Track(c.UserContext(), c.Params("tid"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(newTrackingView(sr))
}
