package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/smartservice-backend/internal/models"
	"github.com/Ananth-NQI/smartservice-backend/internal/storage"
)

func AcceptedMessage(trackingID string) string {
	return fmt.Sprintf("Your service request #%s has been accepted. We'll keep you updated.", trackingID)
}

func WorkAssignedMessage(trackingID, worker string) string {
	return fmt.Sprintf("Work has been assigned for your service #%s. %s is working on your vehicle.", trackingID, worker)
}

func CompletedMessage(trackingID string) string {
	return fmt.Sprintf("🎉 Great news! Your vehicle service #%s is COMPLETED. Please visit us for pickup.", trackingID)
}

func PaymentReceivedMessage(amount decimal.Decimal, trackingID, receipt string) string {
	return fmt.Sprintf("✅ Payment of ₹%s received for service #%s. Receipt: %s. Thank you!",
		amount.StringFixed(2), trackingID, receipt)
}

// Notifier persists customer notifications. Notifications are an outbox:
// they are written in the same transaction as the transition that caused
// them and read back by the customer dashboard.
type Notifier struct {
	store  storage.Store
	logger *zap.Logger
}

func NewNotifier(store storage.Store, logger *zap.Logger) *Notifier {
	return &Notifier{store: store, logger: logger}
}

// emit writes a notification through tx so it commits with the transition.
func (n *Notifier) emit(ctx context.Context, tx storage.Store, customerID uint, message string) error {
	note := &models.Notification{CustomerID: customerID, Message: message}
	if err := tx.CreateNotification(ctx, note); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	n.logger.Debug("notification queued",
		zap.Uint("customer_id", customerID),
		zap.Uint("notification_id", note.ID),
	)
	return nil
}

// Unread returns the customer's unread notifications, newest first, and
// marks them read.
func (n *Notifier) Unread(ctx context.Context, customerID uint) ([]models.Notification, error) {
	var unread []models.Notification
	err := n.store.Atomic(ctx, func(tx storage.Store) error {
		var err error
		unread, err = tx.ListUnreadNotifications(ctx, customerID)
		if err != nil {
			return err
		}
		if len(unread) == 0 {
			return nil
		}
		ids := make([]uint, 0, len(unread))
		for _, note := range unread {
			ids = append(ids, note.ID)
		}
		return tx.MarkNotificationsRead(ctx, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("read notifications: %w", err)
	}
	return unread, nil
}

// All returns every notification for the customer, newest first.
func (n *Notifier) All(ctx context.Context, customerID uint) ([]models.Notification, error) {
	return n.store.ListNotifications(ctx, customerID)
}
