// AngelaMos | 2026
// entity.go

package course

import (
	"time"
)

const DefaultThumbnail = "/default-course.jpg"

type Course struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	IsFree      bool      `db:"is_free"`
	PriceCents  *int64    `db:"price_cents"`
	Thumbnail   string    `db:"thumbnail"`
	CreatedAt   time.Time `db:"created_at"`
}

// Price returns the decimal price, or nil for a free course.
func (c *Course) Price() *float64 {
	if c.IsFree || c.PriceCents == nil {
		return nil
	}
	p := float64(*c.PriceCents) / 100
	return &p
}

type Video struct {
	ID        string    `db:"id"`
	CourseID  string    `db:"course_id"`
	Title     string    `db:"title"`
	ObjectKey string    `db:"object_key"`
	CreatedAt time.Time `db:"created_at"`
}
