// AngelaMos | 2026
// gateway.go

package access

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/course"
	"github.com/carterperez-dev/learnhub/internal/entitlement"
	"github.com/carterperez-dev/learnhub/internal/middleware"
)

type Catalog interface {
	GetByID(ctx context.Context, id string) (*course.Course, error)
	ListVideos(ctx context.Context, courseID string) ([]course.Video, error)
}

// Grant is the result of a successful authorization. UserID is empty when
// a free course was opened without a credential.
type Grant struct {
	Course *course.Course
	UserID string
}

// Gateway composes token verification with the entitlement engine for
// content requests.
type Gateway struct {
	courses Catalog
	tokens  middleware.TokenVerifier
	engine  *entitlement.Engine
}

func NewGateway(
	courses Catalog,
	tokens middleware.TokenVerifier,
	engine *entitlement.Engine,
) *Gateway {
	return &Gateway{courses: courses, tokens: tokens, engine: engine}
}

// Authorize resolves the course before looking at the credential, so an
// unknown course is NotFound regardless of the token. Free courses never
// need one.
func (g *Gateway) Authorize(
	ctx context.Context,
	bearerToken, courseID string,
) (*Grant, error) {
	c, err := g.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}

	if entitlement.Classify(c) == entitlement.TierFree {
		return &Grant{Course: c}, nil
	}

	if bearerToken == "" {
		return nil, fmt.Errorf("authorize: %w", core.ErrUnauthorized)
	}

	claims, err := g.tokens.VerifyAccessToken(ctx, bearerToken)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", core.ErrTokenInvalid)
	}

	return g.decide(ctx, claims.UserID, c)
}

// AuthorizeUser is Authorize for a caller whose identity was already
// verified upstream.
func (g *Gateway) AuthorizeUser(
	ctx context.Context,
	userID, courseID string,
) (*Grant, error) {
	c, err := g.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}

	return g.decide(ctx, userID, c)
}

func (g *Gateway) decide(
	ctx context.Context,
	userID string,
	c *course.Course,
) (*Grant, error) {
	decision, err := g.engine.Decide(ctx, userID, c)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}

	switch decision {
	case entitlement.Allow:
		return &Grant{Course: c, UserID: userID}, nil
	case entitlement.Unauthenticated:
		return nil, fmt.Errorf("authorize: %w", core.ErrUnauthorized)
	default:
		return nil, fmt.Errorf("authorize: course %s: %w", c.ID, core.ErrForbidden)
	}
}
