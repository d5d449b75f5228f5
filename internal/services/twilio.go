package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/smartservice-backend/internal/utils"
)

// TwilioChannel selects how Twilio delivers a message.
type TwilioChannel string

const (
	ChannelSMS      TwilioChannel = "sms"
	ChannelWhatsApp TwilioChannel = "whatsapp"
)

// TwilioConfig holds the account credentials and sender for one channel.
type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	From        string // E.164 number, e.g. "+14155238886"
	CountryCode string // prefix for local 10-digit numbers, e.g. "+91"
	Channel     TwilioChannel
}

// TwilioService sends messages through the Twilio REST API.
type TwilioService struct {
	client      *twilio.RestClient
	from        string
	countryCode string
	channel     TwilioChannel
	logger      *zap.Logger
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(cfg TwilioConfig, logger *zap.Logger) (*TwilioService, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, fmt.Errorf("missing Twilio credentials")
	}
	if cfg.Channel == "" {
		cfg.Channel = ChannelSMS
	}
	if cfg.Channel != ChannelSMS && cfg.Channel != ChannelWhatsApp {
		return nil, fmt.Errorf("unknown twilio channel %q", cfg.Channel)
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioService{
		client:      client,
		from:        strings.TrimPrefix(cfg.From, "whatsapp:"),
		countryCode: cfg.CountryCode,
		channel:     cfg.Channel,
		logger:      logger,
	}, nil
}

// address formats a number for the configured channel.
func (t *TwilioService) address(number string) string {
	if t.channel == ChannelWhatsApp {
		return "whatsapp:" + number
	}
	return number
}

// Send delivers message to the local mobile number.
func (t *TwilioService) Send(ctx context.Context, mobile, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.address(t.from))
	params.SetTo(t.address(t.countryCode + mobile))
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		t.logger.Error("failed to send message",
			zap.String("channel", string(t.channel)),
			zap.String("to", utils.MaskMobile(mobile)),
			zap.Error(err),
		)
		return fmt.Errorf("send %s: %w", t.channel, err)
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		msg := ""
		if resp.ErrorMessage != nil {
			msg = *resp.ErrorMessage
		}
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, msg)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	t.logger.Info("message sent",
		zap.String("channel", string(t.channel)),
		zap.String("to", utils.MaskMobile(mobile)),
		zap.String("sid", sid),
	)
	return nil
}
