// AngelaMos | 2026
// handler.go

package access

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/course"
	"github.com/carterperez-dev/learnhub/internal/middleware"
	"github.com/carterperez-dev/learnhub/internal/storage"
)

type VideosResponse struct {
	Course course.CourseResponse  `json:"course"`
	Videos []course.VideoResponse `json:"videos"`
}

type Handler struct {
	gateway *Gateway
	courses Catalog
	store   storage.Store
}

func NewHandler(gateway *Gateway, courses Catalog, store storage.Store) *Handler {
	return &Handler{gateway: gateway, courses: courses, store: store}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/videos", func(r chi.Router) {
		r.Get("/{courseID}", h.CourseVideos)
		r.With(authenticator).Get("/enrolled/{courseID}", h.EnrolledVideos)
	})
}

// CourseVideos serves free courses to anyone and paid courses to entitled
// bearers of a valid access token.
func (h *Handler) CourseVideos(w http.ResponseWriter, r *http.Request) {
	grant, err := h.gateway.Authorize(
		r.Context(),
		middleware.ExtractToken(r),
		chi.URLParam(r, "courseID"),
	)
	if err != nil {
		writeAccessError(w, err)
		return
	}

	h.writeVideos(w, r, grant)
}

func (h *Handler) EnrolledVideos(w http.ResponseWriter, r *http.Request) {
	grant, err := h.gateway.AuthorizeUser(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "courseID"),
	)
	if err != nil {
		writeAccessError(w, err)
		return
	}

	h.writeVideos(w, r, grant)
}

func (h *Handler) writeVideos(w http.ResponseWriter, r *http.Request, grant *Grant) {
	ctx := r.Context()

	videos, err := h.courses.ListVideos(ctx, grant.Course.ID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := VideosResponse{
		Course: course.ToCourseResponse(grant.Course, nil),
		Videos: make([]course.VideoResponse, 0, len(videos)),
	}
	for i := range videos {
		url, err := h.store.URL(ctx, videos[i].ObjectKey)
		if err != nil {
			core.InternalServerError(w, err)
			return
		}
		resp.Videos = append(resp.Videos, course.ToVideoResponse(&videos[i], url))
	}

	core.OK(w, resp)
}

func writeAccessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "enroll in or purchase this course first")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "authentication required for paid courses")
	default:
		core.JSONError(w, err)
	}
}
