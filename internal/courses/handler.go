package courses

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/middleware"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/response"
)

// Store is the course persistence used by the handler.
type Store interface {
	List(ctx context.Context, p access.Principal) ([]models.Course, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Course, error)
	Create(ctx context.Context, c *models.Course) error
	Update(ctx context.Context, c *models.Course) error
	Delete(ctx context.Context, id uuid.UUID) error
	EnrolledStudents(ctx context.Context, courseID uuid.UUID) ([]models.Enrollment, error)
	EligibleStudents(ctx context.Context, courseID uuid.UUID) ([]models.UserInfo, error)
	Enroll(ctx context.Context, courseID, studentID uuid.UUID) (bool, error)
	Unenroll(ctx context.Context, courseID, studentID uuid.UUID) error
}

// CourseRequest is the body for POST /api/courses and PUT /api/courses/:id.
type CourseRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description"`
}

// Handler handles course HTTP endpoints.
type Handler struct {
	store  Store
	policy *access.Policy
	logger *zap.Logger
}

// NewHandler creates a course handler.
func NewHandler(store Store, policy *access.Policy, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, policy: policy, logger: logger}
}

// load resolves :id into a course visible to the caller, writing the error response otherwise.
func (h *Handler) load(c *gin.Context) (*models.Course, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return nil, false
	}
	ctx := c.Request.Context()
	course, err := h.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "course not found")
			return nil, false
		}
		h.logger.Error("load course", zap.Error(err), zap.String("course_id", id.String()))
		response.Internal(c, "failed to load course")
		return nil, false
	}
	ok, err := h.policy.CanViewCourse(ctx, middleware.Principal(c), course.ID, course.InstructorID)
	if err != nil {
		response.Internal(c, "failed to check permissions")
		return nil, false
	}
	if !ok {
		response.NotFound(c, "course not found")
		return nil, false
	}
	return course, true
}

// loadManaged is load plus the requirement that the caller teaches the course or is an admin.
func (h *Handler) loadManaged(c *gin.Context) (*models.Course, bool) {
	course, ok := h.load(c)
	if !ok {
		return nil, false
	}
	if !access.CanManageCourse(middleware.Principal(c), course.InstructorID) {
		response.Forbidden(c, "only the course instructor can do this")
		return nil, false
	}
	return course, true
}

// List handles GET /api/courses.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		h.logger.Error("list courses", zap.Error(err))
		response.Internal(c, "failed to list courses")
		return
	}
	response.OK(c, list)
}

// Create handles POST /api/courses (instructor or admin). The caller becomes the instructor.
func (h *Handler) Create(c *gin.Context) {
	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	course := &models.Course{
		Title:        req.Title,
		Description:  req.Description,
		InstructorID: middleware.Principal(c).UserID,
	}
	if err := h.store.Create(c.Request.Context(), course); err != nil {
		h.logger.Error("create course", zap.Error(err))
		response.Internal(c, "failed to create course")
		return
	}
	response.Created(c, course)
}

// Get handles GET /api/courses/:id.
func (h *Handler) Get(c *gin.Context) {
	course, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, course)
}

// Update handles PUT /api/courses/:id.
func (h *Handler) Update(c *gin.Context) {
	course, ok := h.loadManaged(c)
	if !ok {
		return
	}
	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	course.Title, course.Description = req.Title, req.Description
	if err := h.store.Update(c.Request.Context(), course); err != nil {
		response.Internal(c, "failed to update course")
		return
	}
	response.OK(c, course)
}

// Delete handles DELETE /api/courses/:id.
func (h *Handler) Delete(c *gin.Context) {
	course, ok := h.loadManaged(c)
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), course.ID); err != nil && !errors.Is(err, ErrNotFound) {
		response.Internal(c, "failed to delete course")
		return
	}
	response.NoContent(c)
}

// EnrolledStudents handles GET /api/courses/:id/enrolled-students.
func (h *Handler) EnrolledStudents(c *gin.Context) {
	course, ok := h.loadManaged(c)
	if !ok {
		return
	}
	list, err := h.store.EnrolledStudents(c.Request.Context(), course.ID)
	if err != nil {
		response.Internal(c, "failed to list enrolled students")
		return
	}
	response.OK(c, list)
}

// EligibleStudents handles GET /api/courses/:id/eligible-students.
func (h *Handler) EligibleStudents(c *gin.Context) {
	course, ok := h.loadManaged(c)
	if !ok {
		return
	}
	list, err := h.store.EligibleStudents(c.Request.Context(), course.ID)
	if err != nil {
		response.Internal(c, "failed to list eligible students")
		return
	}
	response.OK(c, list)
}

// Enroll handles POST /api/courses/:id/enroll/:student_id.
func (h *Handler) Enroll(c *gin.Context) {
	course, ok := h.loadManaged(c)
	if !ok {
		return
	}
	studentID, err := uuid.Parse(c.Param("student_id"))
	if err != nil {
		response.NotFound(c, ErrNotEligible.Error())
		return
	}
	created, err := h.store.Enroll(c.Request.Context(), course.ID, studentID)
	switch {
	case errors.Is(err, ErrNotEligible):
		response.NotFound(c, ErrNotEligible.Error())
	case err != nil:
		h.logger.Error("enroll student", zap.Error(err))
		response.Internal(c, "failed to enroll student")
	case !created:
		response.BadRequest(c, "student is already enrolled")
	default:
		h.logger.Info("student enrolled",
			zap.String("course_id", course.ID.String()),
			zap.String("student_id", studentID.String()))
		response.Created(c, gin.H{"detail": "student enrolled successfully"})
	}
}

// Unenroll handles DELETE /api/courses/:id/unenroll/:student_id.
func (h *Handler) Unenroll(c *gin.Context) {
	course, ok := h.loadManaged(c)
	if !ok {
		return
	}
	studentID, err := uuid.Parse(c.Param("student_id"))
	if err != nil {
		response.NotFound(c, ErrNotEnrolled.Error())
		return
	}
	if err := h.store.Unenroll(c.Request.Context(), course.ID, studentID); err != nil {
		if errors.Is(err, ErrNotEnrolled) {
			response.NotFound(c, ErrNotEnrolled.Error())
			return
		}
		response.Internal(c, "failed to unenroll student")
		return
	}
	response.OK(c, gin.H{"detail": "student unenrolled successfully"})
}
