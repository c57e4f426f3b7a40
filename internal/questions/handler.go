package questions

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/database"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/response"
)

// Store is the question persistence used by the handler.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Question, error)
	List(ctx context.Context, f Filter) ([]models.Question, error)
	Create(ctx context.Context, q *models.Question, bankID *uuid.UUID) error
	Update(ctx context.Context, q *models.Question) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler handles question catalog endpoints (instructors and admins).
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a questions handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// List handles GET /api/questions?search=&tags=&question_banks=&is_open_ended=.
func (h *Handler) List(c *gin.Context) {
	f := Filter{Search: c.Query("search"), Tag: c.Query("tags")}
	if s := c.Query("question_banks"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid question_banks")
			return
		}
		f.BankID = &id
	}
	if s := c.Query("is_open_ended"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			response.BadRequest(c, "invalid is_open_ended")
			return
		}
		f.OpenEnded = &b
	}
	list, err := h.store.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list questions", zap.Error(err))
		response.Internal(c, "failed to list questions")
		return
	}
	views := make([]View, len(list))
	for i := range list {
		views[i] = NewView(&list[i])
	}
	response.OK(c, views)
}

// Get handles GET /api/questions/:id.
func (h *Handler) Get(c *gin.Context) {
	q, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, NewView(q))
}

// Create handles POST /api/questions.
func (h *Handler) Create(c *gin.Context) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := req.Build()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.store.Create(c.Request.Context(), q, req.QuestionBank); err != nil {
		if database.IsForeignKeyViolation(err) {
			response.BadRequest(c, "question bank does not exist")
			return
		}
		h.logger.Error("create question", zap.Error(err))
		response.Internal(c, "failed to create question")
		return
	}
	response.Created(c, NewView(q))
}

// Update handles PUT/PATCH /api/questions/:id.
func (h *Handler) Update(c *gin.Context) {
	q, ok := h.load(c)
	if !ok {
		return
	}
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := req.Apply(q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.store.Update(c.Request.Context(), q); err != nil {
		h.logger.Error("update question", zap.Error(err), zap.String("question_id", q.ID.String()))
		response.Internal(c, "failed to update question")
		return
	}
	response.OK(c, NewView(q))
}

// Delete handles DELETE /api/questions/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "question not found")
			return
		}
		response.Internal(c, "failed to delete question")
		return
	}
	response.NoContent(c)
}

func (h *Handler) load(c *gin.Context) (*models.Question, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return nil, false
	}
	q, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "question not found")
			return nil, false
		}
		response.Internal(c, "failed to load question")
		return nil, false
	}
	return q, true
}
