// AngelaMos | 2026
// dto.go

package course

import (
	"time"
)

type CreateCourseRequest struct {
	Title       string   `json:"title"       validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"required,max=5000"`
	IsFree      bool     `json:"is_free"`
	Price       *float64 `json:"price"       validate:"omitempty,gt=0,lte=100000"`
	Thumbnail   string   `json:"thumbnail"   validate:"omitempty,max=2048"`
}

type CourseResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	IsFree      bool            `json:"is_free"`
	Price       *float64        `json:"price"`
	Thumbnail   string          `json:"thumbnail"`
	CreatedAt   time.Time       `json:"created_at"`
	Videos      []VideoResponse `json:"videos,omitempty"`
}

type VideoResponse struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ListCoursesParams struct {
	Page     int
	PageSize int
}

func (p *ListCoursesParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListCoursesParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToCourseResponse(c *Course, videos []Video) CourseResponse {
	thumbnail := c.Thumbnail
	if thumbnail == "" {
		thumbnail = DefaultThumbnail
	}

	resp := CourseResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		IsFree:      c.IsFree,
		Price:       c.Price(),
		Thumbnail:   thumbnail,
		CreatedAt:   c.CreatedAt,
	}
	for _, v := range videos {
		resp.Videos = append(resp.Videos, ToVideoResponse(&v, ""))
	}

	return resp
}

func ToVideoResponse(v *Video, url string) VideoResponse {
	return VideoResponse{
		ID:        v.ID,
		CourseID:  v.CourseID,
		Title:     v.Title,
		URL:       url,
		CreatedAt: v.CreatedAt,
	}
}
