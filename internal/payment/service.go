// AngelaMos | 2026
// service.go

package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/course"
	"github.com/carterperez-dev/learnhub/internal/entitlement"
)

var (
	ErrCourseFree      = errors.New("course is free")
	ErrAlreadyEntitled = errors.New("already entitled to course")
)

type Outcome string

const (
	OutcomeGranted   Outcome = "granted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeFailed    Outcome = "failed"
)

type CourseFinder interface {
	GetByID(ctx context.Context, id string) (*course.Course, error)
}

type ServiceConfig struct {
	Currency     string
	FrontendURL  string
	GrantTimeout time.Duration
}

type CheckoutResult struct {
	SessionID string
	URL       string
}

type Service struct {
	courses  CourseFinder
	engine   *entitlement.Engine
	provider Provider
	store    Store
	logger   *slog.Logger
	tracer   trace.Tracer
	cfg      ServiceConfig
}

func NewService(
	courses CourseFinder,
	engine *entitlement.Engine,
	provider Provider,
	store Store,
	logger *slog.Logger,
	tracer trace.Tracer,
	cfg ServiceConfig,
) *Service {
	if cfg.GrantTimeout <= 0 {
		cfg.GrantTimeout = 10 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}

	return &Service{
		courses:  courses,
		engine:   engine,
		provider: provider,
		store:    store,
		logger:   logger,
		tracer:   tracer,
		cfg:      cfg,
	}
}

// CreateCheckout opens a provider session for a paid course. Nothing is
// written locally; access is granted only by a verified completion event.
func (s *Service) CreateCheckout(
	ctx context.Context,
	userID, email, courseID string,
) (*CheckoutResult, error) {
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}

	if entitlement.Classify(c) == entitlement.TierFree {
		return nil, fmt.Errorf("create checkout: %w", ErrCourseFree)
	}

	entitled, err := s.engine.IsEntitled(ctx, userID, c)
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}
	if entitled {
		return nil, fmt.Errorf("create checkout: %w", ErrAlreadyEntitled)
	}

	frontend := strings.TrimRight(s.cfg.FrontendURL, "/")

	sess, err := s.provider.CreateCheckoutSession(ctx, CheckoutRequest{
		AmountCents:       *c.PriceCents,
		Currency:          s.cfg.Currency,
		ProductName:       c.Title,
		Description:       c.Description,
		SuccessURL:        frontend + "/payments/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         frontend + "/courses/" + c.ID,
		ClientReferenceID: userID,
		CustomerEmail:     email,
		Metadata: map[string]string{
			MetadataCourseID: c.ID,
			MetadataUserID:   userID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}

	s.logger.InfoContext(ctx, "checkout session created",
		"session_id", sess.ID,
		"course_id", c.ID,
		"user_id", userID,
	)

	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

// HandleCompletionEvent authenticates a webhook delivery and applies it at
// most once. Only a bad signature is returned as an error; grant failures
// are recorded for operators and the delivery is still accepted.
func (s *Service) HandleCompletionEvent(
	ctx context.Context,
	payload []byte,
	signature string,
) (Outcome, error) {
	event, err := s.provider.ParseEvent(payload, signature)
	if err != nil {
		s.logger.WarnContext(ctx, "webhook rejected", "error", err)
		return "", err
	}

	ctx, span := s.tracer.Start(ctx, eventSpanName(event.Type), trace.WithAttributes(
		attribute.String("payment.event_id", event.ID),
		attribute.String("payment.event_type", event.Type),
	))
	defer span.End()

	switch event.Type {
	case EventCheckoutCompleted:
		if event.Session == nil || event.Session.PaymentStatus != PaymentStatusPaid {
			s.logger.InfoContext(ctx, "checkout completed without payment, awaiting async result",
				"event_id", event.ID,
			)
			return OutcomeIgnored, nil
		}
	case EventCheckoutAsyncPaymentSuccess:
	default:
		return OutcomeIgnored, nil
	}

	outcome := s.grant(ctx, event)
	span.SetAttributes(attribute.String("payment.outcome", string(outcome)))

	return outcome, nil
}

func (s *Service) grant(ctx context.Context, event *Event) Outcome {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.GrantTimeout)
	defer cancel()

	completion, err := completionFromEvent(event)
	if err != nil {
		s.recordFailure(ctx, event, completion, err)
		return OutcomeFailed
	}

	result, err := s.store.ApplyCompletion(ctx, completion)
	if err != nil {
		s.recordFailure(ctx, event, completion, err)
		return OutcomeFailed
	}

	if !result.Applied {
		core.AddSpanEvent(ctx, "payment.duplicate", completionAttrs(completion)...)
		s.logger.InfoContext(ctx, "duplicate payment completion ignored",
			"transaction_id", completion.TransactionID,
			"event_id", completion.EventID,
		)
		return OutcomeDuplicate
	}

	s.logger.InfoContext(ctx, "enrollment granted from payment",
		"transaction_id", completion.TransactionID,
		"user_id", completion.UserID,
		"course_id", completion.CourseID,
		"enrollment_id", result.EnrollmentID,
		"enrollment_created", result.EnrollmentCreated,
	)

	return OutcomeGranted
}

func (s *Service) recordFailure(
	ctx context.Context,
	event *Event,
	c Completion,
	cause error,
) {
	s.logger.ErrorContext(ctx, "payment grant failed",
		"event_id", event.ID,
		"transaction_id", c.TransactionID,
		"user_id", c.UserID,
		"course_id", c.CourseID,
		"error", cause,
	)
	core.SetSpanError(ctx, cause, completionAttrs(c)...)

	err := s.store.RecordFailure(ctx, &Failure{
		TransactionID: c.TransactionID,
		EventID:       event.ID,
		UserID:        c.UserID,
		CourseID:      c.CourseID,
		Reason:        cause.Error(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "record payment failure", "error", err)
	}
}

func (s *Service) ListFailures(
	ctx context.Context,
	page, pageSize int,
) ([]Failure, int, error) {
	return s.store.ListFailures(ctx, pageSize, (page-1)*pageSize)
}

// eventSpanName names a reconciliation span after the provider event it
// handles. Unrecognised types share one name.
func eventSpanName(eventType string) string {
	switch eventType {
	case EventCheckoutCompleted, EventCheckoutAsyncPaymentSuccess:
		return "payment.webhook " + eventType
	default:
		return "payment.webhook other"
	}
}

func completionAttrs(c Completion) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if c.TransactionID != "" {
		attrs = append(attrs, attribute.String("payment.transaction_id", c.TransactionID))
	}
	if c.UserID != "" {
		attrs = append(attrs, attribute.String("payment.user_id", c.UserID))
	}
	if c.CourseID != "" {
		attrs = append(attrs, attribute.String("payment.course_id", c.CourseID))
	}
	return attrs
}

// completionFromEvent extracts the correlation metadata. The returned
// Completion carries whatever fields were readable even on error.
func completionFromEvent(event *Event) (Completion, error) {
	c := Completion{EventID: event.ID}

	sess := event.Session
	if sess == nil {
		return c, errors.New("event carries no checkout session")
	}

	c.TransactionID = sess.ID
	c.AmountCents = sess.AmountTotal
	c.Currency = sess.Currency
	c.UserID = sess.Metadata[MetadataUserID]
	c.CourseID = sess.Metadata[MetadataCourseID]

	if c.TransactionID == "" {
		return c, errors.New("checkout session has no id")
	}
	if uuid.Validate(c.UserID) != nil {
		return c, fmt.Errorf("invalid %s metadata %q", MetadataUserID, c.UserID)
	}
	if uuid.Validate(c.CourseID) != nil {
		return c, fmt.Errorf("invalid %s metadata %q", MetadataCourseID, c.CourseID)
	}

	return c, nil
}
