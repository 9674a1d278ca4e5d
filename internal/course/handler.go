// AngelaMos | 2026
// handler.go

package course

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/storage"
)

const multipartMemory = 32 << 20

type Handler struct {
	service       *Service
	validator     *validator.Validate
	maxUploadSize int64
}

func NewHandler(service *Service, maxUploadSize int64) *Handler {
	return &Handler{
		service:       service,
		validator:     validator.New(validator.WithRequiredStructEnabled()),
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/courses", func(r chi.Router) {
		r.Get("/", h.ListCourses)
		r.Get("/{courseID}", h.GetCourse)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(adminOnly)
			r.Post("/", h.CreateCourse)
			r.Post("/{courseID}/videos", h.UploadVideo)
		})
	})
}

func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	params := ListCoursesParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
	}
	params.Normalize()

	courses, total, err := h.service.ListCourses(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := make([]CourseResponse, 0, len(courses))
	for i := range courses {
		resp = append(resp, ToCourseResponse(&courses[i], nil))
	}

	core.Paginated(w, resp, params.Page, params.PageSize, total)
}

func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	course, videos, err := h.service.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToCourseResponse(course, videos))
}

func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	course, err := h.service.CreateCourse(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToCourseResponse(course, nil))
}

func (h *Handler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			core.JSONError(w, core.NewAppError(
				err,
				"upload exceeds size limit",
				http.StatusRequestEntityTooLarge,
				"UPLOAD_TOO_LARGE",
			))
			return
		}
		core.BadRequest(w, "invalid multipart form")
		return
	}
	defer func() {
		//nolint:errcheck // temp file cleanup
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("video")
	if err != nil {
		core.BadRequest(w, "video file is required")
		return
	}
	defer file.Close() //nolint:errcheck

	video, err := h.service.UploadVideo(r.Context(), chi.URLParam(r, "courseID"), VideoUpload{
		Title:       r.FormValue("title"),
		Filename:    header.Filename,
		Body:        file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		if errors.Is(err, storage.ErrUploadUnsupported) {
			core.JSONError(w, core.NewAppError(
				err,
				"video uploads are not enabled",
				http.StatusNotImplemented,
				"UPLOAD_UNSUPPORTED",
			))
			return
		}
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToVideoResponse(video, ""))
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
