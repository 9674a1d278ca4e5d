// AngelaMos | 2026
// handler_test.go

package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/learnhub/internal/middleware"
)

func asAdmin(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, id)
			ctx = context.WithValue(ctx, middleware.UserRoleKey, RoleAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newAdminRouter(t *testing.T, adminID string) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	repo, mock := newMockRepo(t)
	r := chi.NewRouter()
	NewHandler(NewService(repo)).RegisterAdminRoutes(r, asAdmin(adminID), middleware.RequireAdmin)
	return r, mock
}

func TestHandler_ListUsersShowsPendingReset(t *testing.T) {
	router, mock := newAdminRouter(t, "admin-1")
	now := time.Now()
	expires := now.Add(10 * time.Minute)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u-1", "a@example.com", "hash", "A", RoleStudent, "codehash", expires, 3, now, now).
			AddRow("u-2", "b@example.com", "hash", "B", RoleStudent, nil, nil, 0, now, now))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "codehash")

	var body struct {
		Data []AdminUserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.True(t, body.Data[0].PendingReset)
	assert.NotNil(t, body.Data[0].ResetCodeExpiresAt)
	assert.Equal(t, 3, body.Data[0].FailedResetAttempts)
	assert.False(t, body.Data[1].PendingReset)
	assert.Nil(t, body.Data[1].ResetCodeExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_ListUsersRejectsUnknownRole(t *testing.T) {
	router, mock := newAdminRouter(t, "admin-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users/?role=owner", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_UpdateOwnRoleForbidden(t *testing.T) {
	router, mock := newAdminRouter(t, "admin-1")

	req := httptest.NewRequest(http.MethodPut, "/admin/users/admin-1/role",
		strings.NewReader(`{"role":"student"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
