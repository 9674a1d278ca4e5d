// AngelaMos | 2026
// service.go

package enrollment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carterperez-dev/learnhub/internal/course"
	"github.com/carterperez-dev/learnhub/internal/entitlement"
)

var ErrPaymentRequired = errors.New("course requires payment")

type CourseFinder interface {
	GetByID(ctx context.Context, id string) (*course.Course, error)
}

type Service struct {
	repo    Repository
	courses CourseFinder
}

func NewService(repo Repository, courses CourseFinder) *Service {
	return &Service{repo: repo, courses: courses}
}

// Enroll self-enrolls a user into a free course. Enrolling twice returns
// the existing enrollment with created set to false.
func (s *Service) Enroll(
	ctx context.Context,
	userID, courseID string,
) (*Enrollment, bool, error) {
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("enroll: %w", err)
	}

	if entitlement.Classify(c) == entitlement.TierPaid {
		return nil, false, fmt.Errorf("enroll: %w", ErrPaymentRequired)
	}

	e := &Enrollment{
		ID:       uuid.New().String(),
		UserID:   userID,
		CourseID: c.ID,
		Source:   SourceSelf,
	}

	created, err := s.repo.InsertIfAbsent(ctx, e)
	if err != nil {
		return nil, false, fmt.Errorf("enroll: %w", err)
	}

	return e, created, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]EnrolledCourse, error) {
	return s.repo.ListByUser(ctx, userID)
}
