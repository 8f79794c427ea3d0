package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/service/auth"
)

// AuthHandler обслуживает регистрацию, вход и профиль пользователя.
type AuthHandler struct {
	auth   *auth.Service
	users  domain.UserRepository
	logger *log.Entry
}

// NewAuthHandler создаёт handler аутентификации.
func NewAuthHandler(service *auth.Service, users domain.UserRepository, logger *log.Entry) *AuthHandler {
	if logger == nil {
		logger = log.WithField("component", "auth-handler")
	}
	return &AuthHandler{auth: service, users: users, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

// Register обрабатывает POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Validation failed.", "validation_error")
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			respondError(c, http.StatusUnprocessableEntity, "Email is already registered.", "email_taken")
			return
		}
		h.logger.WithError(err).Error("registration failed")
		respondError(c, http.StatusInternalServerError, "Registration failed.", "internal_error")
		return
	}

	respondSuccess(c, http.StatusCreated, "User registered successfully.", toUserResponse(user))
}

// Login обрабатывает POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Validation failed.", "validation_error")
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "Invalid credentials.", "invalid_credentials")
			return
		}
		h.logger.WithError(err).Error("login failed")
		respondError(c, http.StatusInternalServerError, "Login failed.", "internal_error")
		return
	}

	respondSuccess(c, http.StatusOK, "Login successful.", gin.H{
		"token": token,
		"user":  toUserResponse(user),
	})
}

// Refresh обрабатывает POST /auth/refresh: выдаёт новый токен по
// действующему bearer-токену.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, user, err := h.auth.Refresh(c.Request.Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "User not found.", "unauthorized")
			return
		}
		h.logger.WithError(err).Error("token refresh failed")
		respondError(c, http.StatusInternalServerError, "Token refresh failed.", "internal_error")
		return
	}

	respondSuccess(c, http.StatusOK, "Token refreshed", gin.H{
		"token": token,
		"user":  toUserResponse(user),
	})
}

// Logout обрабатывает POST /auth/logout. Токены не хранятся на сервере,
// отзыв сводится к удалению токена на клиенте.
func (h *AuthHandler) Logout(c *gin.Context) {
	respondSuccess(c, http.StatusOK, "Logged out successfully.", nil)
}

// Me обрабатывает GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "User not found.", "unauthorized")
			return
		}
		h.logger.WithError(err).Error("failed to load user")
		respondError(c, http.StatusInternalServerError, "Failed to load user.", "internal_error")
		return
	}

	respondSuccess(c, http.StatusOK, "User information fetched successfully.", toUserResponse(user))
}
