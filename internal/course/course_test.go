// AngelaMos | 2026
// course_test.go

package course

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/storage"
)

const courseID = "8d0c5a51-9a37-4d4e-9d0e-4b1f2a5f1c11"

var courseColumns = []string{
	"id", "title", "description", "is_free", "price_cents", "thumbnail", "created_at",
}

type memoryStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) Put(_ context.Context, obj storage.Object) error {
	b, err := io.ReadAll(obj.Body)
	if err != nil {
		return err
	}
	m.objects[obj.Key] = b
	m.types[obj.Key] = obj.ContentType
	return nil
}

func (m *memoryStore) URL(_ context.Context, key string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *memoryStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := newMemoryStore()
	return NewService(NewRepository(sqlx.NewDb(db, "sqlmock")), store), mock, store
}

func expectCourse(mock sqlmock.Sqlmock, isFree bool, price any) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses")).
		WithArgs(courseID).
		WillReturnRows(sqlmock.NewRows(courseColumns).
			AddRow(courseID, "Go", "Learn Go", isFree, price, "", time.Now()))
}

func TestCourse_Price(t *testing.T) {
	cents := int64(4999)
	paid := &Course{PriceCents: &cents}
	require.NotNil(t, paid.Price())
	assert.InDelta(t, 49.99, *paid.Price(), 0.0001)

	free := &Course{IsFree: true}
	assert.Nil(t, free.Price())
}

func TestService_CreateCourse(t *testing.T) {
	tests := []struct {
		name      string
		req       CreateCourseRequest
		wantCents any
		wantErr   bool
	}{
		{
			name:      "free course drops price",
			req:       CreateCourseRequest{Title: "Intro", Description: "d", IsFree: true, Price: ptr(10.0)},
			wantCents: nil,
		},
		{
			name:      "paid course stored in cents",
			req:       CreateCourseRequest{Title: "Pro", Description: "d", Price: ptr(49.99)},
			wantCents: int64(4999),
		},
		{
			name:    "paid course without price",
			req:     CreateCourseRequest{Title: "Pro", Description: "d"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, _ := newTestService(t)

			if !tt.wantErr {
				mock.ExpectQuery("INSERT INTO courses").
					WithArgs(sqlmock.AnyArg(), tt.req.Title, "d", tt.req.IsFree, tt.wantCents, DefaultThumbnail).
					WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
			}

			c, err := svc.CreateCourse(context.Background(), tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			if tt.wantCents == nil {
				assert.Nil(t, c.PriceCents)
			} else {
				assert.Equal(t, tt.wantCents, *c.PriceCents)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestService_GetByIDMalformed(t *testing.T) {
	svc, mock, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UploadVideo(t *testing.T) {
	svc, mock, store := newTestService(t)

	expectCourse(mock, false, int64(4999))
	mock.ExpectQuery("INSERT INTO videos").
		WithArgs(sqlmock.AnyArg(), courseID, "Lesson 1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	video, err := svc.UploadVideo(context.Background(), courseID, VideoUpload{
		Filename:    "Lesson 1.MP4",
		Body:        bytes.NewReader([]byte("frames")),
		Size:        6,
		ContentType: "video/mp4",
	})
	require.NoError(t, err)

	assert.Equal(t, "courses/"+courseID+"/"+video.ID+".mp4", video.ObjectKey)
	assert.Equal(t, []byte("frames"), store.objects[video.ObjectKey])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UploadVideoRejectsNonVideo(t *testing.T) {
	svc, mock, store := newTestService(t)
	expectCourse(mock, true, nil)

	_, err := svc.UploadVideo(context.Background(), courseID, VideoUpload{
		Filename:    "notes.pdf",
		Body:        bytes.NewReader(nil),
		ContentType: "application/pdf",
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Empty(t, store.objects)
}

func TestHandler_UploadVideoMultipart(t *testing.T) {
	svc, mock, store := newTestService(t)
	expectCourse(mock, true, nil)
	mock.ExpectQuery("INSERT INTO videos").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Welcome"))
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="video"; filename="welcome.webm"`},
		"Content-Type":        {"video/webm"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("webm-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	passthrough := func(next http.Handler) http.Handler { return next }
	r := chi.NewRouter()
	NewHandler(svc, 1<<20).RegisterRoutes(r, passthrough, passthrough)

	req := httptest.NewRequest(http.MethodPost, "/courses/"+courseID+"/videos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env struct {
		Data VideoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Welcome", env.Data.Title)
	assert.Len(t, store.objects, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_GetCourseNotFound(t *testing.T) {
	svc, mock, _ := newTestService(t)
	mock.ExpectQuery("FROM courses").WithArgs(courseID).WillReturnRows(sqlmock.NewRows(courseColumns))

	passthrough := func(next http.Handler) http.Handler { return next }
	r := chi.NewRouter()
	NewHandler(svc, 1<<20).RegisterRoutes(r, passthrough, passthrough)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses/"+courseID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func ptr[T any](v T) *T { return &v }
