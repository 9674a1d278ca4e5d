// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/learnhub/internal/core"
)

func newTestTokens(t *testing.T, clock *testClock) *TokenService {
	t.Helper()
	tokens, err := NewTokenService(testJWTConfig(), WithClock(clock.Now))
	require.NoError(t, err)
	return tokens
}

func TestTokenService_IssueVerifyRoundTrip(t *testing.T) {
	clock := &testClock{now: time.Now()}
	tokens := newTestTokens(t, clock)

	token, err := tokens.Issue("user-1", Claims{
		Role:  "student",
		Email: "student@example.com",
	}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	claims, err := tokens.Verify(token, PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, "student@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, clock.Now().Add(time.Hour), claims.ExpiresAt, time.Second)
}

func TestTokenService_Expiry(t *testing.T) {
	clock := &testClock{now: time.Now()}
	tokens := newTestTokens(t, clock)

	token, err := tokens.Issue("user-1", Claims{Role: "student"}, 10*time.Minute)
	require.NoError(t, err)

	clock.Advance(9 * time.Minute)
	_, err = tokens.Verify(token, PurposeAccess)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = tokens.Verify(token, PurposeAccess)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestTokenService_RejectsBadTokens(t *testing.T) {
	clock := &testClock{now: time.Now()}
	tokens := newTestTokens(t, clock)

	valid, err := tokens.Issue("user-1", Claims{Role: "student"}, time.Hour)
	require.NoError(t, err)

	otherCfg := testJWTConfig()
	otherCfg.Secret = "another-secret-0123456789abcdef-xyz"
	other, err := NewTokenService(otherCfg, WithClock(clock.Now))
	require.NoError(t, err)
	forged, err := other.Issue("user-1", Claims{Role: "admin"}, time.Hour)
	require.NoError(t, err)

	audCfg := testJWTConfig()
	audCfg.Audience = "some-other-api"
	audTokens, err := NewTokenService(audCfg, WithClock(clock.Now))
	require.NoError(t, err)
	wrongAudience, err := audTokens.Issue("user-1", Claims{Role: "student"}, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"forged":         forged,
		"tampered":       tampered,
		"wrong audience": wrongAudience,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Verify(token, PurposeAccess)
			assert.ErrorIs(t, err, core.ErrTokenInvalid)
		})
	}
}

func TestTokenService_PurposeIsolation(t *testing.T) {
	clock := &testClock{now: time.Now()}
	tokens := newTestTokens(t, clock)
	u := &UserInfo{ID: "user-1", Email: "student@example.com", Role: "student"}

	resetToken, _, err := tokens.IssueResetToken(u)
	require.NoError(t, err)

	_, err = tokens.Verify(resetToken, PurposeAccess)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	_, err = tokens.VerifyAccessToken(context.Background(), resetToken)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	claims, err := tokens.Verify(resetToken, PurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)

	accessToken, _, err := tokens.IssueAccessToken(u)
	require.NoError(t, err)
	_, err = tokens.Verify(accessToken, PurposePasswordReset)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestTokenService_VerifyAccessToken(t *testing.T) {
	clock := &testClock{now: time.Now()}
	tokens := newTestTokens(t, clock)

	token, expiresAt, err := tokens.IssueAccessToken(&UserInfo{
		ID:    "user-1",
		Email: "admin@example.com",
		Role:  "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(24*time.Hour), expiresAt)

	claims, err := tokens.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "admin@example.com", claims.Email)
}

func TestTokenService_IssueValidation(t *testing.T) {
	tokens := newTestTokens(t, &testClock{now: time.Now()})

	_, err := tokens.Issue("", Claims{}, time.Hour)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = tokens.Issue("user-1", Claims{}, 0)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Secret = ""

	_, err := NewTokenService(cfg)
	assert.Error(t, err)
}
