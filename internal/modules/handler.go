package modules

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/middleware"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/response"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/storage"
)

// Store is the module persistence used by the handler.
type Store interface {
	List(ctx context.Context, courseID uuid.UUID) ([]models.Module, error)
	Get(ctx context.Context, courseID, id uuid.UUID) (*models.Module, error)
	Create(ctx context.Context, m *models.Module) error
	Update(ctx context.Context, m *models.Module) error
	SetImage(ctx context.Context, id uuid.UUID, key string) error
	Delete(ctx context.Context, courseID, id uuid.UUID) error
}

// Courses resolves the course a module belongs to.
type Courses interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

// ImageStore keeps module images. *storage.S3 implements it.
type ImageStore interface {
	PutImage(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	ImageURL(ctx context.Context, key string) (string, error)
	DeleteImage(ctx context.Context, key string) error
}

// ModuleRequest is the body for creating and updating a module.
type ModuleRequest struct {
	Title   string `json:"title" binding:"required,max=100"`
	Content string `json:"content"`
}

// Handler handles module HTTP endpoints nested under a course.
type Handler struct {
	store   Store
	courses Courses
	policy  *access.Policy
	images  ImageStore // nil when S3 is not configured
	logger  *zap.Logger
}

// NewHandler creates a module handler. images may be nil.
func NewHandler(store Store, courses Courses, policy *access.Policy, images ImageStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, courses: courses, policy: policy, images: images, logger: logger}
}

// course loads :id and checks visibility; manage additionally requires the course instructor.
func (h *Handler) course(c *gin.Context, manage bool) (*models.Course, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return nil, false
	}
	ctx := c.Request.Context()
	course, err := h.courses.Get(ctx, id)
	if err != nil {
		response.NotFound(c, "course not found")
		return nil, false
	}
	p := middleware.Principal(c)
	ok, err := h.policy.CanViewCourse(ctx, p, course.ID, course.InstructorID)
	if err != nil {
		response.Internal(c, "failed to check permissions")
		return nil, false
	}
	if !ok {
		response.NotFound(c, "course not found")
		return nil, false
	}
	if manage && !access.CanManageCourse(p, course.InstructorID) {
		response.Forbidden(c, "only the course instructor can change modules")
		return nil, false
	}
	return course, true
}

func (h *Handler) module(c *gin.Context, manage bool) (*models.Module, bool) {
	course, ok := h.course(c, manage)
	if !ok {
		return nil, false
	}
	id, err := uuid.Parse(c.Param("module_id"))
	if err != nil {
		response.BadRequest(c, "invalid module id")
		return nil, false
	}
	m, err := h.store.Get(c.Request.Context(), course.ID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "module not found")
			return nil, false
		}
		response.Internal(c, "failed to load module")
		return nil, false
	}
	return m, true
}

// List handles GET /api/courses/:id/modules.
func (h *Handler) List(c *gin.Context) {
	course, ok := h.course(c, false)
	if !ok {
		return
	}
	list, err := h.store.List(c.Request.Context(), course.ID)
	if err != nil {
		response.Internal(c, "failed to list modules")
		return
	}
	response.OK(c, list)
}

// Create handles POST /api/courses/:id/modules.
func (h *Handler) Create(c *gin.Context) {
	course, ok := h.course(c, true)
	if !ok {
		return
	}
	var req ModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m := &models.Module{CourseID: course.ID, Title: req.Title, Content: req.Content}
	if err := h.store.Create(c.Request.Context(), m); err != nil {
		h.logger.Error("create module", zap.Error(err))
		response.Internal(c, "failed to create module")
		return
	}
	response.Created(c, m)
}

// Get handles GET /api/courses/:id/modules/:module_id.
func (h *Handler) Get(c *gin.Context) {
	m, ok := h.module(c, false)
	if !ok {
		return
	}
	response.OK(c, m)
}

// Update handles PUT /api/courses/:id/modules/:module_id.
func (h *Handler) Update(c *gin.Context) {
	m, ok := h.module(c, true)
	if !ok {
		return
	}
	var req ModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m.Title, m.Content = req.Title, req.Content
	if err := h.store.Update(c.Request.Context(), m); err != nil {
		response.Internal(c, "failed to update module")
		return
	}
	response.OK(c, m)
}

// Delete handles DELETE /api/courses/:id/modules/:module_id. The image is removed best-effort.
func (h *Handler) Delete(c *gin.Context) {
	m, ok := h.module(c, true)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.store.Delete(ctx, m.CourseID, m.ID); err != nil && !errors.Is(err, ErrNotFound) {
		response.Internal(c, "failed to delete module")
		return
	}
	if m.ImageKey != nil && h.images != nil {
		if err := h.images.DeleteImage(ctx, *m.ImageKey); err != nil {
			h.logger.Warn("delete module image", zap.Error(err), zap.String("key", *m.ImageKey))
		}
	}
	response.NoContent(c)
}

// UploadImage handles PUT /api/courses/:id/modules/:module_id/image (multipart field "image").
func (h *Handler) UploadImage(c *gin.Context) {
	if h.images == nil {
		response.ServiceUnavailable(c, "image storage not configured")
		return
	}
	m, ok := h.module(c, true)
	if !ok {
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, "missing file (form field: image)")
		return
	}
	if file.Size > storage.MaxImageSize {
		response.BadRequest(c, "file size exceeds 10MB limit")
		return
	}
	if !storage.ValidateImageType(file.Header.Get("Content-Type"), file.Filename) {
		response.BadRequest(c, "invalid file type: only jpg, png, webp and gif images allowed")
		return
	}
	contentType := storage.ContentTypeForFilename(file.Filename)
	if ct := file.Header.Get("Content-Type"); ct != "" {
		if _, ok := storage.AllowedImageTypes[ct]; ok {
			contentType = ct
		}
	}

	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	ctx := c.Request.Context()
	key := storage.ModuleImageKey(m.CourseID.String(), m.ID.String(), file.Filename)
	if err := h.images.PutImage(ctx, key, contentType, rc, file.Size); err != nil {
		h.logger.Error("S3 upload failed", zap.Error(err), zap.String("module_id", m.ID.String()), zap.String("key", key))
		response.Internal(c, "failed to upload file to storage")
		return
	}
	if m.ImageKey != nil && *m.ImageKey != key {
		if err := h.images.DeleteImage(ctx, *m.ImageKey); err != nil {
			h.logger.Warn("delete replaced module image", zap.Error(err), zap.String("key", *m.ImageKey))
		}
	}
	if err := h.store.SetImage(ctx, m.ID, key); err != nil {
		response.Internal(c, "failed to save image")
		return
	}
	url, err := h.images.ImageURL(ctx, key)
	if err != nil {
		h.logger.Error("presign module image", zap.Error(err))
		response.Internal(c, "failed to create image url")
		return
	}
	response.OK(c, gin.H{"image_key": key, "photo_url": url, "content_type": contentType})
}

// ImageURL handles GET /api/courses/:id/modules/:module_id/image.
func (h *Handler) ImageURL(c *gin.Context) {
	if h.images == nil {
		response.ServiceUnavailable(c, "image storage not configured")
		return
	}
	m, ok := h.module(c, false)
	if !ok {
		return
	}
	if m.ImageKey == nil {
		response.NotFound(c, "module has no image")
		return
	}
	url, err := h.images.ImageURL(c.Request.Context(), *m.ImageKey)
	if err != nil {
		h.logger.Error("presign module image", zap.Error(err))
		response.Internal(c, "failed to create image url")
		return
	}
	response.OK(c, gin.H{"photo_url": url})
}
