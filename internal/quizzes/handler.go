package quizzes

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/middleware"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/response"
)

// GradeRequest is the body for POST /api/quizzes/grade_response/:response_id.
type GradeRequest struct {
	Points  *float64 `json:"points"`
	Comment *string  `json:"comment"`
}

// Handler exposes the quiz engine over HTTP.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a quiz handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// writeError maps engine errors onto the response envelope.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "not found")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrInvalidPoints), errors.Is(err, ErrTooManyItems),
		errors.Is(err, ErrInvalidBanks), errors.Is(err, ErrInvalidQuiz):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error("quiz request failed", zap.Error(err), zap.String("path", c.FullPath()))
		response.Internal(c, "internal server error")
	}
}

func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// List handles GET /api/quizzes?course_id=.
func (h *Handler) List(c *gin.Context) {
	var courseID *uuid.UUID
	if s := c.Query("course_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid course_id")
			return
		}
		courseID = &id
	}
	list, err := h.svc.ListQuizzes(c.Request.Context(), middleware.Principal(c), courseID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, list)
}

// Create handles POST /api/quizzes.
func (h *Handler) Create(c *gin.Context) {
	var in QuizInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := h.svc.CreateQuiz(c.Request.Context(), middleware.Principal(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, q)
}

// Get handles GET /api/quizzes/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	q, err := h.svc.GetQuiz(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, q)
}

// Update handles PUT /api/quizzes/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in QuizInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := h.svc.UpdateQuiz(c.Request.Context(), middleware.Principal(c), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, q)
}

// Delete handles DELETE /api/quizzes/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteQuiz(c.Request.Context(), middleware.Principal(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	response.NoContent(c)
}

// Questions handles GET /api/quizzes/:id/questions.
func (h *Handler) Questions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.Questions(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, list)
}

// Submit handles POST /api/quizzes/:id/submit.
func (h *Handler) Submit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if _, err := h.svc.Submit(c.Request.Context(), middleware.Principal(c), id, req.Responses); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"status": "submitted"})
}

// Review handles GET /api/quizzes/:id/review for the caller's own attempt.
func (h *Handler) Review(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p := middleware.Principal(c)
	rv, err := h.svc.Review(c.Request.Context(), p, id, p.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, rv)
}

// Submissions handles GET /api/quizzes/:id/submissions.
func (h *Handler) Submissions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListSubmissions(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, list)
}

// StudentSubmission handles GET /api/quizzes/:id/submissions/:user_id.
func (h *Handler) StudentSubmission(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	rv, err := h.svc.Review(c.Request.Context(), middleware.Principal(c), id, userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, rv)
}

// Finalize handles POST /api/quizzes/:id/submissions/:user_id/finalize.
func (h *Handler) Finalize(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	jobID, err := h.svc.Finalize(c.Request.Context(), middleware.Principal(c), id, userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if jobID == "" {
		response.OK(c, gin.H{"status": "finalized"})
		return
	}
	response.Accepted(c, gin.H{"status": "queued", "job_id": jobID})
}

// Grade handles POST /api/quizzes/grade_response/:response_id.
func (h *Handler) Grade(c *gin.Context) {
	id, ok := paramID(c, "response_id")
	if !ok {
		return
	}
	var req GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	r, err := h.svc.GradeResponse(c.Request.Context(), middleware.Principal(c), id, req.Points, req.Comment)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"status": "graded", "id": r.ID, "points": r.Points})
}
