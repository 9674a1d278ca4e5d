// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/learnhub/internal/config"
	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/middleware"
)

type Purpose string

const (
	PurposeAccess        Purpose = "access"
	PurposePasswordReset Purpose = "password_reset"
)

const (
	claimRole    = "role"
	claimEmail   = "email"
	claimPurpose = "purpose"
)

// Claims is the identity carried by a signed token.
type Claims struct {
	Subject   string
	Role      string
	Email     string
	Purpose   Purpose
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService issues and verifies HS256 tokens with a single process-wide
// secret. It holds no per-token state.
type TokenService struct {
	key    jwk.Key
	config config.JWTConfig
	now    func() time.Time
}

type TokenOption func(*TokenService)

func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

func NewTokenService(
	cfg config.JWTConfig,
	opts ...TokenOption,
) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token service: empty signing secret")
	}

	key, err := jwk.Import([]byte(cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("import signing secret: %w", err)
	}

	s := &TokenService{
		key:    key,
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Issue signs a token for subjectID valid for ttl from now. Role, Email and
// Purpose are taken from claims; the remaining registered claims are set
// here.
func (s *TokenService) Issue(
	subjectID string,
	claims Claims,
	ttl time.Duration,
) (string, error) {
	if subjectID == "" {
		return "", fmt.Errorf("issue token: empty subject: %w", core.ErrInvalidInput)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("issue token: non-positive ttl: %w", core.ErrInvalidInput)
	}

	purpose := claims.Purpose
	if purpose == "" {
		purpose = PurposeAccess
	}

	now := s.now()

	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(s.config.Issuer).
		Audience([]string{s.config.Audience}).
		Subject(subjectID).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(ttl)).
		Claim(claimRole, claims.Role).
		Claim(claimEmail, claims.Email).
		Claim(claimPurpose, string(purpose)).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), s.key))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

// Verify checks signature, issuer, audience, validity window and purpose.
// Every failure is reported as core.ErrTokenInvalid.
func (s *TokenService) Verify(tokenString string, purpose Purpose) (*Claims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), s.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithAudience(s.config.Audience),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	var got string
	if err := token.Get(claimPurpose, &got); err != nil || Purpose(got) != purpose {
		return nil, fmt.Errorf("verify token: wrong purpose: %w", core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf("verify token: missing subject: %w", core.ErrTokenInvalid)
	}

	claims := &Claims{
		Subject: subject,
		Purpose: purpose,
	}
	//nolint:errcheck // optional claims default to empty
	_ = token.Get(claimRole, &claims.Role)
	//nolint:errcheck // optional claims default to empty
	_ = token.Get(claimEmail, &claims.Email)

	if id, ok := token.JwtID(); ok {
		claims.ID = id
	}
	if iat, ok := token.IssuedAt(); ok {
		claims.IssuedAt = iat
	}
	if exp, ok := token.Expiration(); ok {
		claims.ExpiresAt = exp
	}

	return claims, nil
}

func (s *TokenService) IssueAccessToken(u *UserInfo) (string, time.Time, error) {
	expiresAt := s.now().Add(s.config.AccessTokenExpire)

	token, err := s.Issue(u.ID, Claims{
		Role:    u.Role,
		Email:   u.Email,
		Purpose: PurposeAccess,
	}, s.config.AccessTokenExpire)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

func (s *TokenService) IssueResetToken(u *UserInfo) (string, time.Time, error) {
	expiresAt := s.now().Add(s.config.ResetTokenExpire)

	token, err := s.Issue(u.ID, Claims{
		Email:   u.Email,
		Purpose: PurposePasswordReset,
	}, s.config.ResetTokenExpire)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// VerifyAccessToken adapts Verify to the request authenticator.
func (s *TokenService) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.Verify(tokenString, PurposeAccess)
	if err != nil {
		return nil, err
	}

	return &middleware.AccessTokenClaims{
		UserID: claims.Subject,
		Role:   claims.Role,
		Email:  claims.Email,
	}, nil
}

var _ middleware.TokenVerifier = (*TokenService)(nil)
