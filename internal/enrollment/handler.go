// AngelaMos | 2026
// handler.go

package enrollment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/middleware"
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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/enrollments", func(r chi.Router) {
		r.Use(authenticator)
		r.Post("/", h.Enroll)
		r.Get("/me", h.ListMine)
	})
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	e, created, err := h.service.Enroll(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.CourseID,
	)
	if err != nil {
		if errors.Is(err, ErrPaymentRequired) {
			core.JSONError(w, core.NewAppError(
				err,
				"this course must be purchased",
				http.StatusForbidden,
				"PAYMENT_REQUIRED",
			))
			return
		}
		core.JSONError(w, err)
		return
	}

	if created {
		core.Created(w, ToEnrollmentResponse(e))
		return
	}
	core.OK(w, ToEnrollmentResponse(e))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListMine(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := make([]EnrolledCourseResponse, 0, len(rows))
	for i := range rows {
		resp = append(resp, ToEnrolledCourseResponse(&rows[i]))
	}

	core.OK(w, resp)
}
