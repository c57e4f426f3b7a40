package auth

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
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/utils"
)

// errUserHidden is the single message for unknown and not-visible users.
const errUserHidden = "you do not have permission to perform this action"

// Users is the user store used by the handler.
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
	Activate(ctx context.Context, id uuid.UUID) error
}

// UserViewer decides whether the caller may see another user's identity card.
type UserViewer interface {
	CanViewUser(ctx context.Context, p access.Principal, target *models.User) (bool, error)
}

// RegisterRequest is the body for POST /accounts/register.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Name      string `json:"name" binding:"max=30"`
	Surname   string `json:"surname" binding:"max=30"`
	IsTeacher bool   `json:"is_teacher"`
}

// LoginRequest is the body for POST /accounts/token.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the login response with JWT.
type TokenResponse struct {
	Token string          `json:"token"`
	User  models.UserInfo `json:"user"`
}

// Handler handles account HTTP endpoints.
type Handler struct {
	users  Users
	viewer UserViewer
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users Users, viewer UserViewer, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{users: users, viewer: viewer, jwt: jwt, logger: logger}
}

// Register handles POST /accounts/register. The account stays inactive until validated.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role := models.RoleStudent
	if req.IsTeacher {
		role = models.RoleInstructor
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	code, err := utils.ValidationCode()
	if err != nil {
		response.Internal(c, "failed to create validation code")
		return
	}
	user, err := h.users.Create(c.Request.Context(), &models.User{
		Email:          req.Email,
		Password:       hash,
		Name:           req.Name,
		Surname:        req.Surname,
		Role:           role,
		ValidationCode: &code,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.BadRequest(c, "email already registered")
			return
		}
		h.logger.Error("register user", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}
	h.logger.Info("validation code issued",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.String("code", code))
	response.Created(c, gin.H{"email": user.Email, "name": user.Name, "surname": user.Surname, "is_teacher": req.IsTeacher})
}

// Validate handles GET /accounts/validate?email=&code=.
func (h *Handler) Validate(c *gin.Context) {
	email, code := c.Query("email"), c.Query("code")
	if email == "" || code == "" {
		response.BadRequest(c, "email and code are required")
		return
	}
	ctx := c.Request.Context()
	user, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.BadRequest(c, "user with this email does not exist")
			return
		}
		response.Internal(c, "failed to load user")
		return
	}
	if user.ValidationCode == nil || *user.ValidationCode != code {
		response.BadRequest(c, "invalid validation code")
		return
	}
	if err := h.users.Activate(ctx, user.ID); err != nil {
		h.logger.Error("activate user", zap.Error(err), zap.String("user_id", user.ID.String()))
		response.Internal(c, "failed to activate user")
		return
	}
	response.OK(c, gin.H{"message": "email confirmed"})
}

// Login handles POST /accounts/token.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil || !user.IsActive || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	token, err := h.jwt.Generate(user)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToInfo()})
}

// UserInfo handles GET /accounts/users/:id. Unknown and hidden users look the same.
func (h *Handler) UserInfo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Forbidden(c, errUserHidden)
		return
	}
	ctx := c.Request.Context()
	target, err := h.users.GetByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		response.Forbidden(c, errUserHidden)
		return
	}
	if err != nil {
		h.logger.Error("load user", zap.Error(err), zap.String("user_id", id.String()))
		response.Internal(c, "internal server error")
		return
	}
	ok, err := h.viewer.CanViewUser(ctx, middleware.Principal(c), target)
	if err != nil {
		h.logger.Error("check user visibility", zap.Error(err))
		response.Internal(c, "failed to check permissions")
		return
	}
	if !ok {
		response.Forbidden(c, errUserHidden)
		return
	}
	response.OK(c, target.ToInfo())
}
