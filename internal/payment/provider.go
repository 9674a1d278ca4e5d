// AngelaMos | 2026
// provider.go

package payment

import (
	"context"
)

const (
	MetadataCourseID = "course_id"
	MetadataUserID   = "user_id"
)

const (
	EventCheckoutCompleted           = "checkout.session.completed"
	EventCheckoutAsyncPaymentSuccess = "checkout.session.async_payment_succeeded"
)

const PaymentStatusPaid = "paid"

type CheckoutRequest struct {
	AmountCents       int64
	Currency          string
	ProductName       string
	Description       string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	CustomerEmail     string
	Metadata          map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a verified provider notification. Session is set only for
// checkout session events.
type Event struct {
	ID      string
	Type    string
	Session *SessionSnapshot
}

type SessionSnapshot struct {
	ID            string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	Metadata      map[string]string
}

// Provider is the payment processor. ParseEvent must authenticate the
// payload before decoding any of it and report failures as
// core.ErrBadSignature.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseEvent(payload []byte, signature string) (*Event, error)
}
