// AngelaMos | 2026
// entitlement.go

package entitlement

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/learnhub/internal/course"
)

type Tier int

const (
	TierFree Tier = iota
	TierPaid
)

func (t Tier) String() string {
	if t == TierFree {
		return "free"
	}
	return "paid"
}

type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "forbidden"
	}
}

// EnrollmentChecker reports whether an enrollment row exists right now.
type EnrollmentChecker interface {
	Exists(ctx context.Context, userID, courseID string) (bool, error)
}

// Engine is the single access policy shared by checkout, self-enrollment
// and video delivery. Every answer reads current store state.
type Engine struct {
	enrollments EnrollmentChecker
}

func NewEngine(enrollments EnrollmentChecker) *Engine {
	return &Engine{enrollments: enrollments}
}

func Classify(c *course.Course) Tier {
	if c.IsFree {
		return TierFree
	}
	return TierPaid
}

// IsEntitled is true for every free course. For a paid course it needs a
// user with an enrollment.
func (e *Engine) IsEntitled(
	ctx context.Context,
	userID string,
	c *course.Course,
) (bool, error) {
	if Classify(c) == TierFree {
		return true, nil
	}
	if userID == "" {
		return false, nil
	}

	ok, err := e.enrollments.Exists(ctx, userID, c.ID)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}

	return ok, nil
}

func (e *Engine) Decide(
	ctx context.Context,
	userID string,
	c *course.Course,
) (Decision, error) {
	entitled, err := e.IsEntitled(ctx, userID, c)
	if err != nil {
		return Forbidden, err
	}

	switch {
	case entitled:
		return Allow, nil
	case userID == "":
		return Unauthenticated, nil
	default:
		return Forbidden, nil
	}
}
