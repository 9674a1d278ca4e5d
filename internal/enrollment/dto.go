// AngelaMos | 2026
// dto.go

package enrollment

import (
	"time"

	"github.com/carterperez-dev/learnhub/internal/course"
)

type EnrollRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
}

type EnrollmentResponse struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

type EnrolledCourseResponse struct {
	EnrollmentResponse
	Course course.CourseResponse `json:"course"`
}

func ToEnrollmentResponse(e *Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:        e.ID,
		CourseID:  e.CourseID,
		Source:    e.Source,
		CreatedAt: e.CreatedAt,
	}
}

func ToEnrolledCourseResponse(ec *EnrolledCourse) EnrolledCourseResponse {
	c := course.Course{
		ID:          ec.CourseID,
		Title:       ec.Title,
		Description: ec.Description,
		IsFree:      ec.IsFree,
		PriceCents:  ec.PriceCents,
		Thumbnail:   ec.Thumbnail,
	}

	return EnrolledCourseResponse{
		EnrollmentResponse: ToEnrollmentResponse(&ec.Enrollment),
		Course:             course.ToCourseResponse(&c, nil),
	}
}
