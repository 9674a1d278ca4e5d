// AngelaMos | 2026
// reset.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/notify"
)

// ResetTicket describes an issued reset credential. Only one of Code or
// Token is set.
type ResetTicket struct {
	Code      string
	Token     string
	ExpiresAt time.Time
}

type ResetFlowConfig struct {
	CodeTTL time.Duration
	// MaxAttempts is the number of wrong guesses after which a pending code
	// is discarded.
	MaxAttempts int
	ResetLink   func(token string) string
	Now         func() time.Time
}

// ResetFlow drives a user from NoPendingReset to PendingReset and back.
// The one-time code path and the signed link path share the same password
// hash but keep independent pending state.
type ResetFlow struct {
	users     UserProvider
	tokens    *TokenService
	notifier  notify.Notifier
	logger    *slog.Logger
	codeTTL     time.Duration
	maxAttempts int
	resetLink   func(string) string
	now         func() time.Time
}

func NewResetFlow(
	users UserProvider,
	tokens *TokenService,
	notifier notify.Notifier,
	logger *slog.Logger,
	cfg ResetFlowConfig,
) *ResetFlow {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 15 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &ResetFlow{
		users:       users,
		tokens:      tokens,
		notifier:    notifier,
		logger:      logger,
		codeTTL:     cfg.CodeTTL,
		maxAttempts: cfg.MaxAttempts,
		resetLink:   cfg.ResetLink,
		now:         cfg.Now,
	}
}

// RequestReset stores a fresh code for the user and delivers it. A new
// request replaces any code still pending.
func (f *ResetFlow) RequestReset(
	ctx context.Context,
	email string,
) (*ResetTicket, error) {
	user, err := f.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("request reset: %w", err)
	}

	code, err := core.GenerateResetCode()
	if err != nil {
		return nil, fmt.Errorf("request reset: %w", err)
	}

	expiresAt := f.now().Add(f.codeTTL)

	if err := f.users.SetResetCode(ctx, user.ID, core.HashResetCode(code), expiresAt); err != nil {
		return nil, fmt.Errorf("request reset: %w", err)
	}

	msg := notify.Message{
		Kind:      notify.KindResetCode,
		Recipient: user.Email,
		Code:      code,
		ExpiresAt: expiresAt,
	}
	if err := f.notifier.Send(ctx, msg); err != nil {
		f.logger.ErrorContext(ctx, "reset code delivery failed",
			"user_id", user.ID,
			"error", err,
		)
		return nil, fmt.Errorf("request reset: %w: %w", core.ErrNotificationFailed, err)
	}

	return &ResetTicket{Code: code, ExpiresAt: expiresAt}, nil
}

// ConfirmReset consumes a pending code and sets the new password. An
// expired code is cleared so the user is returned to NoPendingReset, and so
// is a code that has taken maxAttempts wrong guesses.
func (f *ResetFlow) ConfirmReset(
	ctx context.Context,
	email, code, newPassword string,
) error {
	user, err := f.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("confirm reset: %w", core.ErrInvalidCode)
		}
		return fmt.Errorf("confirm reset: %w", err)
	}

	if !user.HasPendingReset() {
		return fmt.Errorf("confirm reset: %w", core.ErrInvalidCode)
	}

	if !core.ResetCodeMatches(code, *user.ResetCodeHash) {
		f.recordWrongGuess(ctx, user)
		return fmt.Errorf("confirm reset: %w", core.ErrInvalidCode)
	}

	now := f.now()
	if now.After(*user.ResetCodeExpiresAt) {
		if err := f.users.ClearResetCode(ctx, user.ID); err != nil {
			f.logger.WarnContext(ctx, "clear expired reset code failed",
				"user_id", user.ID,
				"error", err,
			)
		}
		return fmt.Errorf("confirm reset: %w", core.ErrCodeExpired)
	}

	passwordHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("confirm reset: hash password: %w", err)
	}

	ok, err := f.users.ConsumeResetCode(
		ctx,
		user.ID,
		*user.ResetCodeHash,
		passwordHash,
		now,
	)
	if err != nil {
		return fmt.Errorf("confirm reset: %w", err)
	}
	if !ok {
		return fmt.Errorf("confirm reset: code already used: %w", core.ErrInvalidCode)
	}

	return nil
}

func (f *ResetFlow) recordWrongGuess(ctx context.Context, user *UserInfo) {
	cleared, err := f.users.RecordResetCodeFailure(
		ctx,
		user.ID,
		*user.ResetCodeHash,
		f.maxAttempts,
	)
	if err != nil {
		f.logger.WarnContext(ctx, "record reset code failure failed",
			"user_id", user.ID,
			"error", err,
		)
		return
	}
	if cleared {
		f.logger.WarnContext(ctx, "reset code discarded after repeated wrong guesses",
			"user_id", user.ID,
			"max_attempts", f.maxAttempts,
		)
	}
}

// RequestResetLink sends a short-lived signed reset link.
func (f *ResetFlow) RequestResetLink(
	ctx context.Context,
	email string,
) (*ResetTicket, error) {
	user, err := f.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("request reset link: %w", err)
	}

	token, expiresAt, err := f.tokens.IssueResetToken(user)
	if err != nil {
		return nil, fmt.Errorf("request reset link: %w", err)
	}

	msg := notify.Message{
		Kind:      notify.KindResetLink,
		Recipient: user.Email,
		Link:      f.resetLink(token),
		ExpiresAt: expiresAt,
	}
	if err := f.notifier.Send(ctx, msg); err != nil {
		f.logger.ErrorContext(ctx, "reset link delivery failed",
			"user_id", user.ID,
			"error", err,
		)
		return nil, fmt.Errorf("request reset link: %w: %w", core.ErrNotificationFailed, err)
	}

	return &ResetTicket{Token: token, ExpiresAt: expiresAt}, nil
}

func (f *ResetFlow) ConfirmResetByToken(
	ctx context.Context,
	token, newPassword string,
) error {
	claims, err := f.tokens.Verify(token, PurposePasswordReset)
	if err != nil {
		return fmt.Errorf("confirm reset by token: %w", err)
	}

	passwordHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("confirm reset by token: hash password: %w", err)
	}

	if err := f.users.UpdatePassword(ctx, claims.Subject, passwordHash); err != nil {
		return fmt.Errorf("confirm reset by token: %w", err)
	}

	return nil
}
