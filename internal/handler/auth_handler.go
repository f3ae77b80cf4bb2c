package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"retrodrome/backend/internal/auth"
	"retrodrome/backend/internal/models"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Nickname string `json:"nickname" binding:"required" example:"retrofan"`
	Email    string `json:"email" binding:"required,email" example:"fan@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"password123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email" example:"fan@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// GoogleSignInInput carries the ID token obtained from the Google
// sign-in popup on the client.
type GoogleSignInInput struct {
	IDToken string `json:"id_token" binding:"required"`
}

// TokenResponse is a successful sign-in: a bearer token plus the
// identity it represents.
type TokenResponse struct {
	Token string        `json:"token"`
	User  auth.Identity `json:"user"`
}

// SessionResponse mirrors the session store's state.
type SessionResponse struct {
	User    *auth.Identity `json:"user"`
	Loading bool           `json:"loading"`
}

// endregion

// AuthHandler exposes the identity provider's sign-in/out operations and
// the session store's state.
type AuthHandler struct {
	service *auth.Service
	session *auth.SessionStore
	db      *gorm.DB
	log     *zap.Logger
}

func NewAuthHandler(service *auth.Service, session *auth.SessionStore, db *gorm.DB, log *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, session: session, db: db, log: log}
}

// Register godoc
// @Summary      Register a new account
// @Description  Creates an email/password account, signs it in, and returns a token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201 {object} TokenResponse
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, identity, err := h.service.Register(c.Request.Context(), input.Nickname, input.Email, input.Password)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, TokenResponse{Token: token, User: *identity})
}

// Login godoc
// @Summary      Sign in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Credentials"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse "Invalid credentials"
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, identity, err := h.service.Login(c.Request.Context(), input.Email, input.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sign-in failed"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token, User: *identity})
}

// GoogleSignIn godoc
// @Summary      Sign in with a Google ID token
// @Description  Verifies the token with Google and creates the account on first sign-in.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body GoogleSignInInput true "Google ID token"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse "Token rejected"
// @Router       /auth/google [post]
func (h *AuthHandler) GoogleSignIn(c *gin.Context) {
	var input GoogleSignInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, identity, err := h.service.SignInWithGoogle(c.Request.Context(), input.IDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Google sign-in failed"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token, User: *identity})
}

// Logout godoc
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]string "{"message": "Signed out"}"
// @Failure      500 {object} ErrorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.LogOut(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sign-out failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// GetSession godoc
// @Summary      Current session state
// @Description  Returns the session store's view: the signed-in identity (or null) and whether the initial provider event is still pending.
// @Tags         auth
// @Produce      json
// @Success      200 {object} SessionResponse
// @Router       /auth/session [get]
func (h *AuthHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, SessionResponse{
		User:    h.session.CurrentUser(),
		Loading: h.session.Loading(),
	})
}

// GetMe godoc
// @Summary      Get the authenticated account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} auth.Identity
// @Failure      404 {object} ErrorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := h.db.First(&user, userID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, auth.Identity{
		ID:       user.ID,
		Nickname: user.Nickname,
		Email:    user.Email,
		Role:     user.Role,
	})
}
