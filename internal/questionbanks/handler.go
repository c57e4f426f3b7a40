package questionbanks

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/middleware"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/questions"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/response"
)

// Store is the bank persistence used by the handler.
type Store interface {
	List(ctx context.Context, p access.Principal) ([]models.QuestionBank, error)
	Get(ctx context.Context, id uuid.UUID) (*models.QuestionBank, error)
	Create(ctx context.Context, b *models.QuestionBank) error
	Rename(ctx context.Context, id uuid.UUID, title string) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddQuestion(ctx context.Context, bankID, questionID uuid.UUID) error
	RemoveQuestion(ctx context.Context, bankID, questionID uuid.UUID) error
	Questions(ctx context.Context, bankID uuid.UUID) ([]models.Question, error)
}

// BankRequest is the body for creating or renaming a bank.
type BankRequest struct {
	Title string `json:"title" binding:"required,max=100"`
}

// MemberRequest is the body for POST /api/question_banks/:id/questions.
type MemberRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
}

// Handler handles question bank endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a question bank handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// load returns the bank if the caller owns it or is an admin; others get 404.
func (h *Handler) load(c *gin.Context) (*models.QuestionBank, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question bank id")
		return nil, false
	}
	b, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "question bank not found")
			return nil, false
		}
		response.Internal(c, "failed to load question bank")
		return nil, false
	}
	p := middleware.Principal(c)
	if !access.IsAdmin(p) && b.OwnerID != p.UserID {
		response.NotFound(c, "question bank not found")
		return nil, false
	}
	return b, true
}

// List handles GET /api/question_banks.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		h.logger.Error("list question banks", zap.Error(err))
		response.Internal(c, "failed to list question banks")
		return
	}
	response.OK(c, list)
}

// Create handles POST /api/question_banks.
func (h *Handler) Create(c *gin.Context) {
	var req BankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	b := &models.QuestionBank{Title: req.Title, OwnerID: middleware.Principal(c).UserID}
	if err := h.store.Create(c.Request.Context(), b); err != nil {
		h.logger.Error("create question bank", zap.Error(err))
		response.Internal(c, "failed to create question bank")
		return
	}
	response.Created(c, b)
}

// Get handles GET /api/question_banks/:id.
func (h *Handler) Get(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, b)
}

// Rename handles PUT /api/question_banks/:id.
func (h *Handler) Rename(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	var req BankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.store.Rename(c.Request.Context(), b.ID, req.Title); err != nil {
		response.Internal(c, "failed to rename question bank")
		return
	}
	b.Title = req.Title
	response.OK(c, b)
}

// Delete handles DELETE /api/question_banks/:id.
func (h *Handler) Delete(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), b.ID); err != nil && !errors.Is(err, ErrNotFound) {
		response.Internal(c, "failed to delete question bank")
		return
	}
	response.NoContent(c)
}

// Questions handles GET /api/question_banks/:id/questions.
func (h *Handler) Questions(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	list, err := h.store.Questions(c.Request.Context(), b.ID)
	if err != nil {
		h.logger.Error("list bank questions", zap.Error(err), zap.String("bank_id", b.ID.String()))
		response.Internal(c, "failed to list questions")
		return
	}
	views := make([]questions.View, len(list))
	for i := range list {
		views[i] = questions.NewView(&list[i])
	}
	response.OK(c, views)
}

// AddQuestion handles POST /api/question_banks/:id/questions.
func (h *Handler) AddQuestion(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.store.AddQuestion(c.Request.Context(), b.ID, req.QuestionID); err != nil {
		if errors.Is(err, questions.ErrNotFound) {
			response.NotFound(c, "question not found")
			return
		}
		response.Internal(c, "failed to add question")
		return
	}
	response.Created(c, gin.H{"question_bank": b.ID, "question_id": req.QuestionID})
}

// RemoveQuestion handles DELETE /api/question_banks/:id/questions/:question_id.
func (h *Handler) RemoveQuestion(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	if err := h.store.RemoveQuestion(c.Request.Context(), b.ID, questionID); err != nil {
		if errors.Is(err, questions.ErrNotFound) {
			response.NotFound(c, "question not in bank")
			return
		}
		response.Internal(c, "failed to remove question")
		return
	}
	response.NoContent(c)
}
