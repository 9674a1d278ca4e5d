// AngelaMos | 2026
// repository.go

package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/learnhub/internal/core"
)

type Repository interface {
	Create(ctx context.Context, course *Course) error
	GetByID(ctx context.Context, id string) (*Course, error)
	List(ctx context.Context, params ListCoursesParams) ([]Course, int, error)
	CreateVideo(ctx context.Context, video *Video) error
	ListVideos(ctx context.Context, courseID string) ([]Video, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, course *Course) error {
	query := `
		INSERT INTO courses (id, title, description, is_free, price_cents, thumbnail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		course.ID,
		course.Title,
		course.Description,
		course.IsFree,
		course.PriceCents,
		course.Thumbnail,
	).Scan(&course.CreatedAt)
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Course, error) {
	query := `
		SELECT id, title, description, is_free, price_cents, thumbnail, created_at
		FROM courses
		WHERE id = $1`

	var course Course
	err := r.db.GetContext(ctx, &course, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get course: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}

	return &course, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListCoursesParams,
) ([]Course, int, error) {
	params.Normalize()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM courses`); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	query := `
		SELECT id, title, description, is_free, price_cents, thumbnail, created_at
		FROM courses
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	var courses []Course
	if err := r.db.SelectContext(ctx, &courses, query, params.PageSize, params.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	return courses, total, nil
}

func (r *repository) CreateVideo(ctx context.Context, video *Video) error {
	query := `
		INSERT INTO videos (id, course_id, title, object_key)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		video.ID,
		video.CourseID,
		video.Title,
		video.ObjectKey,
	).Scan(&video.CreatedAt)
	if err != nil {
		return fmt.Errorf("create video: %w", err)
	}

	return nil
}

func (r *repository) ListVideos(ctx context.Context, courseID string) ([]Video, error) {
	query := `
		SELECT id, course_id, title, object_key, created_at
		FROM videos
		WHERE course_id = $1
		ORDER BY created_at ASC`

	var videos []Video
	if err := r.db.SelectContext(ctx, &videos, query, courseID); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	return videos, nil
}
