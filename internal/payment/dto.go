// AngelaMos | 2026
// dto.go

package payment

import (
	"time"
)

type StartCheckoutRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type WebhookResponse struct {
	Received bool    `json:"received"`
	Outcome  Outcome `json:"outcome"`
}

type FailureResponse struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	CourseID      string    `json:"course_id"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}

func ToFailureResponseList(failures []Failure) []FailureResponse {
	out := make([]FailureResponse, 0, len(failures))
	for _, f := range failures {
		out = append(out, FailureResponse(f))
	}
	return out
}
