// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/middleware"
)

type HandlerConfig struct {
	ExposeResetCode bool
}

type Handler struct {
	service   *Service
	reset     *ResetFlow
	cfg       HandlerConfig
	validator *validator.Validate
}

func NewHandler(service *Service, reset *ResetFlow, cfg HandlerConfig) *Handler {
	return &Handler{
		service:   service,
		reset:     reset,
		cfg:       cfg,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the auth endpoints. Credential endpoints sit behind
// credentialLimiter.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, credentialLimiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(credentialLimiter)
			r.Post("/login", h.Login)
			r.Post("/register", h.Register)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/reset-password", h.ResetPassword)
			r.Post("/forgot-password/link", h.ForgotPasswordLink)
			r.Post("/reset-password/token", h.ResetPasswordByToken)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Post("/change-password", h.ChangePassword)
		})
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.ChangePassword(
		r.Context(),
		userID,
		req.CurrentPassword,
		req.NewPassword,
	)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.Unauthorized(w, "current password is incorrect")
			return
		}
		core.JSONError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "password updated"})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetCurrentUser(
		r.Context(),
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	ticket, err := h.reset.RequestReset(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.JSONError(w, err)
		return
	}

	resp := ForgotPasswordResponse{
		Message:   "reset code sent",
		ExpiresAt: ticket.ExpiresAt,
	}
	if h.cfg.ExposeResetCode {
		resp.Code = ticket.Code
	}

	core.OK(w, resp)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.reset.ConfirmReset(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "password reset successful"})
}

func (h *Handler) ForgotPasswordLink(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	ticket, err := h.reset.RequestResetLink(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.JSONError(w, err)
		return
	}

	resp := ForgotPasswordResponse{
		Message:   "reset link sent",
		ExpiresAt: ticket.ExpiresAt,
	}
	if h.cfg.ExposeResetCode {
		resp.Token = ticket.Token
	}

	core.OK(w, resp)
}

func (h *Handler) ResetPasswordByToken(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordByTokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.reset.ConfirmResetByToken(r.Context(), req.Token, req.NewPassword); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "password reset successful"})
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		core.Unauthorized(w, "invalid email or password")
	case errors.Is(err, ErrEmailExists):
		core.JSONError(w, core.DuplicateError("email"))
	default:
		core.JSONError(w, err)
	}
}
