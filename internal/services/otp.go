package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/smartservice-backend/internal/models"
	"github.com/Ananth-NQI/smartservice-backend/internal/storage"
	"github.com/Ananth-NQI/smartservice-backend/internal/utils"
)

// OTPValidity is how long an issued code can be verified. A code whose age
// is equal to or greater than this is expired.
const OTPValidity = 300 * time.Second

// OTPService issues and verifies one-time codes bound to (mobile, purpose).
// At most one unused code exists per pair: issuing supersedes older codes.
type OTPService struct {
	store     storage.Store
	messenger Messenger
	logger    *zap.Logger
	now       func() time.Time
}

func NewOTPService(store storage.Store, messenger Messenger, logger *zap.Logger) *OTPService {
	return &OTPService{
		store:     store,
		messenger: messenger,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock replaces the time source. Used by tests to walk the expiry window.
func (s *OTPService) SetClock(now func() time.Time) {
	s.now = now
}

func validateMobile(mobile string) error {
	if !utils.IsValidMobile(mobile) {
		return fmt.Errorf("%w: mobile number must be exactly %d digits", ErrInvalidInput, utils.MobileLength)
	}
	return nil
}

// Issue supersedes every unused code for (mobile, purpose) and stores a new one.
func (s *OTPService) Issue(ctx context.Context, mobile string, purpose models.OTPPurpose) (string, error) {
	if err := validateMobile(mobile); err != nil {
		return "", err
	}

	var code string
	err := s.store.Atomic(ctx, func(tx storage.Store) error {
		var err error
		code, err = s.issueWith(ctx, tx, mobile, purpose)
		return err
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

func (s *OTPService) issueWith(ctx context.Context, tx storage.Store, mobile string, purpose models.OTPPurpose) (string, error) {
	if err := tx.LockOTPPair(ctx, mobile, purpose); err != nil {
		return "", fmt.Errorf("lock otp pair: %w", err)
	}

	superseded, err := tx.InvalidateOTPs(ctx, mobile, purpose)
	if err != nil {
		return "", fmt.Errorf("invalidate otps: %w", err)
	}

	code, err := utils.GenerateSecureOTP()
	if err != nil {
		return "", err
	}

	otp := &models.OTP{Mobile: mobile, Code: code, Purpose: purpose}
	otp.CreatedAt = s.now()
	if err := tx.CreateOTP(ctx, otp); err != nil {
		return "", fmt.Errorf("create otp: %w", err)
	}

	s.logger.Debug("otp issued",
		zap.String("mobile", utils.MaskMobile(mobile)),
		zap.String("purpose", string(purpose)),
		zap.Int64("superseded", superseded),
	)
	return code, nil
}

// Check consumes the code if it is valid and reports why it is not otherwise:
// ErrOTPMismatch when nothing matches, ErrOTPExpired when the match is too old.
// Expired codes are left unused.
func (s *OTPService) Check(ctx context.Context, mobile, code string, purpose models.OTPPurpose) error {
	if err := validateMobile(mobile); err != nil {
		return err
	}
	return s.store.Atomic(ctx, func(tx storage.Store) error {
		return s.checkWith(ctx, tx, mobile, code, purpose)
	})
}

func (s *OTPService) checkWith(ctx context.Context, tx storage.Store, mobile, code string, purpose models.OTPPurpose) error {
	if err := tx.LockOTPPair(ctx, mobile, purpose); err != nil {
		return fmt.Errorf("lock otp pair: %w", err)
	}

	otp, err := tx.LatestUnusedOTP(ctx, mobile, purpose)
	if errors.Is(err, storage.ErrNotFound) {
		s.logRejection(mobile, purpose, ErrOTPMismatch)
		return ErrOTPMismatch
	}
	if err != nil {
		return fmt.Errorf("lookup otp: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		s.logRejection(mobile, purpose, ErrOTPMismatch)
		return ErrOTPMismatch
	}

	if s.now().Sub(otp.CreatedAt) >= OTPValidity {
		s.logRejection(mobile, purpose, ErrOTPExpired)
		return ErrOTPExpired
	}

	if err := tx.MarkOTPUsed(ctx, otp.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// consumed by a concurrent verify
			s.logRejection(mobile, purpose, ErrOTPMismatch)
			return ErrOTPMismatch
		}
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}

func (s *OTPService) logRejection(mobile string, purpose models.OTPPurpose, reason error) {
	s.logger.Info("otp rejected",
		zap.String("mobile", utils.MaskMobile(mobile)),
		zap.String("purpose", string(purpose)),
		zap.String("reason", reason.Error()),
	)
}

// Verify is Check collapsed to a boolean: mismatch and expiry both yield
// false with a nil error. A non-nil error means invalid input or a store
// failure.
func (s *OTPService) Verify(ctx context.Context, mobile, code string, purpose models.OTPPurpose) (bool, error) {
	err := s.Check(ctx, mobile, code, purpose)
	switch {
	case err == nil:
		return true, nil
	case IsOTPRejection(err):
		return false, nil
	default:
		return false, err
	}
}

// OTPMessage is the SMS body that carries a code.
func OTPMessage(label, code string) string {
	return fmt.Sprintf("[SMART SERVICE] Your OTP for %s is: %s. Valid for 5 minutes. Do not share.", label, code)
}

// Send transmits code to mobile. A failed send leaves the code valid; the
// caller re-issues to resend.
func (s *OTPService) Send(ctx context.Context, mobile, code, label string) error {
	if err := s.messenger.Send(ctx, mobile, OTPMessage(label, code)); err != nil {
		s.logger.Warn("otp delivery failed",
			zap.String("mobile", utils.MaskMobile(mobile)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// IssueAndSend issues a code and hands it to the messenger. delivered is
// false when the messenger failed; the issued code stays valid either way.
func (s *OTPService) IssueAndSend(ctx context.Context, mobile string, purpose models.OTPPurpose, label string) (delivered bool, err error) {
	code, err := s.Issue(ctx, mobile, purpose)
	if err != nil {
		return false, err
	}
	return s.Send(ctx, mobile, code, label) == nil, nil
}
