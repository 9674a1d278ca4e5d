// AngelaMos | 2026
// repository.go

package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/learnhub/internal/core"
)

type Repository interface {
	InsertIfAbsent(ctx context.Context, e *Enrollment) (bool, error)
	Exists(ctx context.Context, userID, courseID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]EnrolledCourse, error)
}

type repository struct {
	db core.DBTX
}

// NewRepository binds to a pool or an open transaction.
func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// InsertIfAbsent creates the enrollment unless one already exists for the
// pair. The return value reports whether a row was created; on conflict e
// is filled from the existing row.
func (r *repository) InsertIfAbsent(ctx context.Context, e *Enrollment) (bool, error) {
	query := `
		INSERT INTO enrollments (id, user_id, course_id, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, course_id) DO NOTHING
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		e.ID,
		e.UserID,
		e.CourseID,
		e.Source,
	).Scan(&e.CreatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("insert enrollment: %w", err)
	}

	existing := `
		SELECT id, user_id, course_id, source, created_at
		FROM enrollments
		WHERE user_id = $1 AND course_id = $2`

	if err := r.db.GetContext(ctx, e, existing, e.UserID, e.CourseID); err != nil {
		return false, fmt.Errorf("load existing enrollment: %w", err)
	}

	return false, nil
}

func (r *repository) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, courseID); err != nil {
		return false, fmt.Errorf("enrollment exists: %w", err)
	}

	return exists, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]EnrolledCourse, error) {
	query := `
		SELECT e.id, e.user_id, e.course_id, e.source, e.created_at,
		       c.title, c.description, c.is_free, c.price_cents, c.thumbnail
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.created_at DESC`

	var rows []EnrolledCourse
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	return rows, nil
}
