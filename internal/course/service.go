// AngelaMos | 2026
// service.go

package course

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/storage"
)

type VideoUpload struct {
	Title       string
	Filename    string
	Body        io.Reader
	Size        int64
	ContentType string
}

type Service struct {
	repo  Repository
	store storage.Store
}

func NewService(repo Repository, store storage.Store) *Service {
	return &Service{repo: repo, store: store}
}

// GetByID treats malformed ids as missing so they never reach the store.
func (s *Service) GetByID(ctx context.Context, id string) (*Course, error) {
	if uuid.Validate(id) != nil {
		return nil, fmt.Errorf("get course: %w", core.ErrNotFound)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetCourse(ctx context.Context, id string) (*Course, []Video, error) {
	course, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	videos, err := s.repo.ListVideos(ctx, course.ID)
	if err != nil {
		return nil, nil, err
	}

	return course, videos, nil
}

func (s *Service) ListCourses(
	ctx context.Context,
	params ListCoursesParams,
) ([]Course, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) ListVideos(ctx context.Context, courseID string) ([]Video, error) {
	return s.repo.ListVideos(ctx, courseID)
}

// CreateCourse stores a course. A paid course needs a positive price; a
// free course never carries one.
func (s *Service) CreateCourse(
	ctx context.Context,
	req CreateCourseRequest,
) (*Course, error) {
	course := &Course{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		IsFree:      req.IsFree,
		Thumbnail:   req.Thumbnail,
	}
	if course.Thumbnail == "" {
		course.Thumbnail = DefaultThumbnail
	}

	if !req.IsFree {
		if req.Price == nil {
			return nil, core.ValidationError("price is required for paid courses")
		}
		cents := int64(math.Round(*req.Price * 100))
		if cents <= 0 {
			return nil, core.ValidationError("price must be positive")
		}
		course.PriceCents = &cents
	}

	if err := s.repo.Create(ctx, course); err != nil {
		return nil, err
	}

	return course, nil
}

// UploadVideo writes the asset to the object store and then records it.
func (s *Service) UploadVideo(
	ctx context.Context,
	courseID string,
	upload VideoUpload,
) (*Video, error) {
	course, err := s.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(upload.ContentType, "video/") {
		return nil, core.ValidationError("file must be a video")
	}

	title := strings.TrimSpace(upload.Title)
	if title == "" {
		title = strings.TrimSuffix(upload.Filename, filepath.Ext(upload.Filename))
	}

	video := &Video{
		ID:       uuid.New().String(),
		CourseID: course.ID,
		Title:    title,
	}
	video.ObjectKey = fmt.Sprintf(
		"courses/%s/%s%s",
		course.ID,
		video.ID,
		strings.ToLower(filepath.Ext(upload.Filename)),
	)

	err = s.store.Put(ctx, storage.Object{
		Key:         video.ObjectKey,
		Body:        upload.Body,
		Size:        upload.Size,
		ContentType: upload.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload video: %w", err)
	}

	if err := s.repo.CreateVideo(ctx, video); err != nil {
		return nil, err
	}

	return video, nil
}
