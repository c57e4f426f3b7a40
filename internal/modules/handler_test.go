package modules

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/middleware"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

type memModules map[uuid.UUID]*models.Module

func (s memModules) List(_ context.Context, courseID uuid.UUID) ([]models.Module, error) {
	var out []models.Module
	for _, m := range s {
		if m.CourseID == courseID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s memModules) Get(_ context.Context, courseID, id uuid.UUID) (*models.Module, error) {
	m, ok := s[id]
	if !ok || m.CourseID != courseID {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s memModules) Create(_ context.Context, m *models.Module) error {
	m.ID = uuid.New()
	s[m.ID] = m
	return nil
}

func (s memModules) Update(_ context.Context, m *models.Module) error {
	s[m.ID] = m
	return nil
}

func (s memModules) SetImage(_ context.Context, id uuid.UUID, key string) error {
	s[id].ImageKey = &key
	return nil
}

func (s memModules) Delete(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	delete(s, id)
	return nil
}

type oneCourse struct {
	course   *models.Course
	enrolled uuid.UUID
}

func (o oneCourse) Get(_ context.Context, id uuid.UUID) (*models.Course, error) {
	if id != o.course.ID {
		return nil, ErrNotFound
	}
	return o.course, nil
}

func (o oneCourse) IsEnrolled(_ context.Context, courseID, userID uuid.UUID) (bool, error) {
	return courseID == o.course.ID && userID == o.enrolled, nil
}

func (o oneCourse) IsTaughtBy(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil }

type memImages struct {
	objects map[string][]byte
}

func (m *memImages) PutImage(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = b
	return nil
}

func (m *memImages) ImageURL(_ context.Context, key string) (string, error) {
	return "https://media.example/" + key + "?sig=x", nil
}

func (m *memImages) DeleteImage(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func setup(t *testing.T, caller access.Principal, images ImageStore) (*gin.Engine, *models.Module) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	course := &models.Course{ID: uuid.New(), InstructorID: uuid.New()}
	courses := oneCourse{course: course, enrolled: uuid.New()}
	store := memModules{}
	m := &models.Module{CourseID: course.ID, Title: "Intro"}
	require.NoError(t, store.Create(context.Background(), m))
	if caller.UserID == uuid.Nil {
		caller.UserID = course.InstructorID
	}
	if caller.Role == models.RoleStudent {
		caller.UserID = courses.enrolled
	}

	h := NewHandler(store, courses, access.NewPolicy(courses), images, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, caller.UserID)
		c.Set(middleware.ContextUserRole, caller.Role)
	})
	r.PUT("/courses/:id/modules/:module_id/image", h.UploadImage)
	r.GET("/courses/:id/modules/:module_id/image", h.ImageURL)
	return r, m
}

func upload(r http.Handler, path, filename string, data []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("image", filename)
	_, _ = fw.Write(data)
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPut, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadAndFetchImage(t *testing.T) {
	images := &memImages{objects: map[string][]byte{}}
	r, m := setup(t, access.Principal{Role: models.RoleInstructor}, images)
	path := "/courses/" + m.CourseID.String() + "/modules/" + m.ID.String() + "/image"

	w := upload(r, path, "cover.png", []byte("png-bytes"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	key := "modules/" + m.CourseID.String() + "/" + m.ID.String() + ".png"
	assert.Equal(t, []byte("png-bytes"), images.objects[key])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), key)
}

func TestUploadRejectsNonImage(t *testing.T) {
	r, m := setup(t, access.Principal{Role: models.RoleInstructor}, &memImages{objects: map[string][]byte{}})
	path := "/courses/" + m.CourseID.String() + "/modules/" + m.ID.String() + "/image"
	w := upload(r, path, "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudentCannotUpload(t *testing.T) {
	r, m := setup(t, access.Principal{Role: models.RoleStudent}, &memImages{objects: map[string][]byte{}})
	path := "/courses/" + m.CourseID.String() + "/modules/" + m.ID.String() + "/image"
	w := upload(r, path, "cover.png", []byte("x"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestImageStorageDisabled(t *testing.T) {
	r, m := setup(t, access.Principal{Role: models.RoleInstructor}, nil)
	path := "/courses/" + m.CourseID.String() + "/modules/" + m.ID.String() + "/image"
	w := upload(r, path, "cover.png", []byte("x"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
