// AngelaMos | 2026
// fakes_test.go

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/carterperez-dev/learnhub/internal/config"
	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/course"
	"github.com/carterperez-dev/learnhub/internal/entitlement"
)

const webhookSecret = "whsec_test_secret"

var (
	studentID    = "0b6f1c9e-5d43-4e61-8f0a-3c2b1a9d8e71"
	paidCourseID = "2a3b4c5d-6e7f-4a8b-9c0d-1e2f3a4b5c6d"
	freeCourseID = "1f2e3d4c-5b6a-4789-9abc-def012345678"
)

// memoryStore mirrors the two unique constraints the ledger relies on.
type memoryStore struct {
	mu           sync.Mutex
	transactions map[string]string
	enrollments  map[[2]string]string
	failures     []Failure
	applyErr     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		transactions: map[string]string{},
		enrollments:  map[[2]string]string{},
	}
}

func (m *memoryStore) ApplyCompletion(ctx context.Context, c Completion) (*GrantResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	if _, ok := m.transactions[c.TransactionID]; ok {
		return &GrantResult{}, nil
	}

	key := [2]string{c.UserID, c.CourseID}
	id, exists := m.enrollments[key]
	if !exists {
		id = uuid.New().String()
		m.enrollments[key] = id
	}
	m.transactions[c.TransactionID] = id

	return &GrantResult{Applied: true, EnrollmentID: id, EnrollmentCreated: !exists}, nil
}

func (m *memoryStore) RecordFailure(_ context.Context, f *Failure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, *f)
	return nil
}

func (m *memoryStore) ListFailures(_ context.Context, limit, offset int) ([]Failure, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := min(offset+limit, len(m.failures))
	if offset > end {
		offset = end
	}
	return m.failures[offset:end], len(m.failures), nil
}

func (m *memoryStore) Exists(_ context.Context, userID, courseID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.enrollments[[2]string{userID, courseID}]
	return ok, nil
}

func (m *memoryStore) enrollmentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.enrollments)
}

// recordingProvider verifies events with the real Stripe signature code and
// records checkout requests instead of calling the API.
type recordingProvider struct {
	*StripeProvider
	mu       sync.Mutex
	requests []CheckoutRequest
}

func (p *recordingProvider) CreateCheckoutSession(
	_ context.Context,
	req CheckoutRequest,
) (*CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	id := "cs_test_" + uuid.NewString()[:8]
	return &CheckoutSession{ID: id, URL: "https://checkout.stripe.test/pay/" + id}, nil
}

type stubCourses map[string]*course.Course

func (s stubCourses) GetByID(_ context.Context, id string) (*course.Course, error) {
	c, ok := s[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return c, nil
}

type fixture struct {
	store    *memoryStore
	provider *recordingProvider
	spans    *tracetest.SpanRecorder
	service  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cents := int64(4999)
	courses := stubCourses{
		paidCourseID: {ID: paidCourseID, Title: "Advanced Go", Description: "Concurrency", PriceCents: &cents},
		freeCourseID: {ID: freeCourseID, Title: "Intro", IsFree: true},
	}

	st := newMemoryStore()
	provider := &recordingProvider{
		StripeProvider: NewStripeProvider(config.PaymentConfig{
			SecretKey:     "sk_test_unused",
			WebhookSecret: webhookSecret,
		}),
	}

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	svc := NewService(
		courses,
		entitlement.NewEngine(st),
		provider,
		st,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		tp.Tracer("payment-test"),
		ServiceConfig{Currency: "usd", FrontendURL: "https://learn.example.com/"},
	)

	return &fixture{store: st, provider: provider, spans: spans, service: svc}
}

func sessionEvent(
	t *testing.T,
	eventType, sessionID, paymentStatus string,
	metadata map[string]string,
) []byte {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"id":          "evt_" + uuid.NewString()[:8],
		"object":      "event",
		"type":        eventType,
		"api_version": "2023-10-16",
		"data": map[string]any{
			"object": map[string]any{
				"id":             sessionID,
				"object":         "checkout.session",
				"payment_status": paymentStatus,
				"amount_total":   4999,
				"currency":       "usd",
				"metadata":       metadata,
			},
		},
	})
	require.NoError(t, err)
	return body
}

func paidMetadata() map[string]string {
	return map[string]string{MetadataUserID: studentID, MetadataCourseID: paidCourseID}
}

func sign(payload []byte, secret string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  secret,
	}).Header
}

var errStoreDown = errors.New("store down")
