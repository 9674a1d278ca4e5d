// AngelaMos | 2026
// service_test.go

package payment

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/carterperez-dev/learnhub/internal/core"
)

func TestCheckoutThenCompletionScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.CreateCheckout(ctx, studentID, "student@example.com", paidCourseID)
	require.NoError(t, err)
	assert.NotEmpty(t, result.URL)

	require.Len(t, f.provider.requests, 1)
	req := f.provider.requests[0]
	assert.Equal(t, int64(4999), req.AmountCents)
	assert.Equal(t, "usd", req.Currency)
	assert.Equal(t, "Advanced Go", req.ProductName)
	assert.Equal(t, studentID, req.Metadata[MetadataUserID])
	assert.Equal(t, paidCourseID, req.Metadata[MetadataCourseID])
	assert.Equal(t, "https://learn.example.com/courses/"+paidCourseID, req.CancelURL)
	assert.Contains(t, req.SuccessURL, "{CHECKOUT_SESSION_ID}")
	assert.Zero(t, f.store.enrollmentCount(), "checkout must not grant access")

	payload := sessionEvent(t, EventCheckoutCompleted, result.SessionID, PaymentStatusPaid, paidMetadata())

	outcome, err := f.service.HandleCompletionEvent(ctx, payload, sign(payload, webhookSecret))
	require.NoError(t, err)
	assert.Equal(t, OutcomeGranted, outcome)
	assert.Equal(t, 1, f.store.enrollmentCount())

	outcome, err = f.service.HandleCompletionEvent(ctx, payload, sign(payload, webhookSecret))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, 1, f.store.enrollmentCount())

	_, err = f.service.CreateCheckout(ctx, studentID, "student@example.com", paidCourseID)
	assert.ErrorIs(t, err, ErrAlreadyEntitled)
}

func TestCreateCheckout_Refusals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateCheckout(ctx, studentID, "", freeCourseID)
	assert.ErrorIs(t, err, ErrCourseFree)

	_, err = f.service.CreateCheckout(ctx, studentID, "", "9f8e7d6c-5b4a-4321-8fed-cba987654321")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Empty(t, f.provider.requests)
}

func TestHandleCompletionEvent_TamperedSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	payload := sessionEvent(t, EventCheckoutCompleted, "cs_test_1", PaymentStatusPaid, paidMetadata())
	header := sign(payload, webhookSecret)

	tampered := sessionEvent(t, EventCheckoutCompleted, "cs_test_1", PaymentStatusPaid, map[string]string{
		MetadataUserID:   "7c6b5a49-3827-4165-9f8e-7d6c5b4a3921",
		MetadataCourseID: paidCourseID,
	})

	cases := map[string]struct {
		payload []byte
		header  string
	}{
		"payload swapped":  {payload: tampered, header: header},
		"wrong secret":     {payload: payload, header: sign(payload, "whsec_attacker")},
		"missing header":   {payload: payload, header: ""},
		"garbage header":   {payload: payload, header: "t=1,v1=deadbeef"},
		"unsigned garbage": {payload: []byte("{"), header: header},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			outcome, err := f.service.HandleCompletionEvent(ctx, tc.payload, tc.header)
			assert.ErrorIs(t, err, core.ErrBadSignature)
			assert.Empty(t, outcome)
		})
	}

	assert.Zero(t, f.store.enrollmentCount())
	assert.Empty(t, f.store.failures)
}

func TestHandleCompletionEvent_ConcurrentDeliveries(t *testing.T) {
	f := newFixture(t)
	payload := sessionEvent(t, EventCheckoutCompleted, "cs_test_race", PaymentStatusPaid, paidMetadata())
	header := sign(payload, webhookSecret)

	const deliveries = 16
	outcomes := make(chan Outcome, deliveries)

	var wg sync.WaitGroup
	for range deliveries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.service.HandleCompletionEvent(context.Background(), payload, header)
			assert.NoError(t, err)
			outcomes <- outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	counts := map[Outcome]int{}
	for o := range outcomes {
		counts[o]++
	}

	assert.Equal(t, 1, counts[OutcomeGranted])
	assert.Equal(t, deliveries-1, counts[OutcomeDuplicate])
	assert.Equal(t, 1, f.store.enrollmentCount())
}

func TestHandleCompletionEvent_SecondPurchaseKeepsSingleEnrollment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, sessionID := range []string{"cs_test_a", "cs_test_b"} {
		payload := sessionEvent(t, EventCheckoutCompleted, sessionID, PaymentStatusPaid, paidMetadata())
		outcome, err := f.service.HandleCompletionEvent(ctx, payload, sign(payload, webhookSecret))
		require.NoError(t, err)
		assert.Equal(t, OutcomeGranted, outcome)
	}

	assert.Equal(t, 1, f.store.enrollmentCount())
}

func TestHandleCompletionEvent_IgnoredEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unpaid := sessionEvent(t, EventCheckoutCompleted, "cs_test_async", "unpaid", paidMetadata())
	outcome, err := f.service.HandleCompletionEvent(ctx, unpaid, sign(unpaid, webhookSecret))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)

	expired := sessionEvent(t, "checkout.session.expired", "cs_test_exp", "unpaid", paidMetadata())
	outcome, err = f.service.HandleCompletionEvent(ctx, expired, sign(expired, webhookSecret))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)

	assert.Zero(t, f.store.enrollmentCount())

	succeeded := sessionEvent(t, EventCheckoutAsyncPaymentSuccess, "cs_test_async", "paid", paidMetadata())
	outcome, err = f.service.HandleCompletionEvent(ctx, succeeded, sign(succeeded, webhookSecret))
	require.NoError(t, err)
	assert.Equal(t, OutcomeGranted, outcome)
	assert.Equal(t, 1, f.store.enrollmentCount())
}

func TestHandleCompletionEvent_GrantFailureIsAcceptedAndRecorded(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]string
		storeErr error
	}{
		{
			name:     "bad metadata",
			metadata: map[string]string{MetadataUserID: "42", MetadataCourseID: paidCourseID},
		},
		{
			name:     "store failure",
			metadata: paidMetadata(),
			storeErr: errStoreDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.store.applyErr = tt.storeErr

			payload := sessionEvent(t, EventCheckoutCompleted, "cs_test_fail", PaymentStatusPaid, tt.metadata)
			outcome, err := f.service.HandleCompletionEvent(
				context.Background(), payload, sign(payload, webhookSecret))

			require.NoError(t, err)
			assert.Equal(t, OutcomeFailed, outcome)
			assert.Zero(t, f.store.enrollmentCount())

			require.Len(t, f.store.failures, 1)
			assert.Equal(t, "cs_test_fail", f.store.failures[0].TransactionID)
			assert.NotEmpty(t, f.store.failures[0].Reason)

			ended := f.spans.Ended()
			require.Len(t, ended, 1)
			assert.Equal(t, "payment.webhook checkout.session.completed", ended[0].Name())
			assert.Equal(t, codes.Error, ended[0].Status().Code)

			var recorded []attribute.KeyValue
			for _, ev := range ended[0].Events() {
				if ev.Name == "exception" {
					recorded = ev.Attributes
				}
			}
			assert.Contains(t, recorded, attribute.String("payment.transaction_id", "cs_test_fail"))
		})
	}
}

func TestHandleCompletionEvent_SurvivesCallerCancellation(t *testing.T) {
	f := newFixture(t)
	payload := sessionEvent(t, EventCheckoutCompleted, "cs_test_cancel", PaymentStatusPaid, paidMetadata())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := f.service.HandleCompletionEvent(ctx, payload, sign(payload, webhookSecret))
	require.NoError(t, err)
	assert.Equal(t, OutcomeGranted, outcome)
	assert.Equal(t, 1, f.store.enrollmentCount())
}

func TestEventSpanName(t *testing.T) {
	assert.Equal(t, "payment.webhook checkout.session.completed", eventSpanName(EventCheckoutCompleted))
	assert.Equal(t,
		"payment.webhook checkout.session.async_payment_succeeded",
		eventSpanName(EventCheckoutAsyncPaymentSuccess),
	)
	assert.Equal(t, "payment.webhook other", eventSpanName("invoice.paid"))
}

func TestListFailures(t *testing.T) {
	f := newFixture(t)
	for range 3 {
		require.NoError(t, f.store.RecordFailure(context.Background(), &Failure{Reason: "x"}))
	}

	page, total, err := f.service.ListFailures(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 1)
}
