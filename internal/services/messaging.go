package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/smartservice-backend/internal/utils"
)

// Messenger delivers a text message to a 10-digit mobile number.
type Messenger interface {
	Send(ctx context.Context, mobile, message string) error
}

// ConsoleMessenger writes outgoing messages to the log instead of sending
// them. It is the default SMS backend for local development.
type ConsoleMessenger struct {
	logger *zap.Logger
}

func NewConsoleMessenger(logger *zap.Logger) *ConsoleMessenger {
	return &ConsoleMessenger{logger: logger}
}

func (c *ConsoleMessenger) Send(ctx context.Context, mobile, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.logger.Info("sms (console mode)",
		zap.String("to", utils.MaskMobile(mobile)),
		zap.String("message", message),
	)
	return nil
}
