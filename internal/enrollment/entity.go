// AngelaMos | 2026
// entity.go

package enrollment

import (
	"time"
)

const (
	SourceSelf    = "self"
	SourcePayment = "payment"
)

type Enrollment struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CourseID  string    `db:"course_id"`
	Source    string    `db:"source"`
	CreatedAt time.Time `db:"created_at"`
}

// EnrolledCourse is an enrollment joined with its course.
type EnrolledCourse struct {
	Enrollment
	Title       string `db:"title"`
	Description string `db:"description"`
	IsFree      bool   `db:"is_free"`
	PriceCents  *int64 `db:"price_cents"`
	Thumbnail   string `db:"thumbnail"`
}
