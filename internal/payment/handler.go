// AngelaMos | 2026
// handler.go

package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/middleware"
)

const (
	maxWebhookBytes = 65536
	signatureHeader = "Stripe-Signature"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts checkout behind authentication. The webhook is
// authenticated by its signature instead.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/webhook", h.Webhook)
		r.With(authenticator).Post("/checkout", h.Checkout)
	})
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req StartCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	result, err := h.service.CreateCheckout(
		r.Context(),
		middleware.GetUserID(r.Context()),
		middleware.GetUserEmail(r.Context()),
		req.CourseID,
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrCourseFree):
			core.JSONError(w, core.NewAppError(
				err,
				"course is free, enroll directly",
				http.StatusBadRequest,
				"COURSE_FREE",
			))
		case errors.Is(err, ErrAlreadyEntitled):
			core.JSONError(w, core.ConflictError(
				"already enrolled in this course",
				"ALREADY_ENTITLED",
			))
		default:
			core.JSONError(w, err)
		}
		return
	}

	core.OK(w, CheckoutResponse{SessionID: result.SessionID, URL: result.URL})
}

func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		core.BadRequest(w, "unreadable webhook body")
		return
	}

	outcome, err := h.service.HandleCompletionEvent(
		r.Context(),
		payload,
		r.Header.Get(signatureHeader),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, WebhookResponse{Received: true, Outcome: outcome})
}
