package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chwoo19999-a11y/my-first-project/config"
	"github.com/chwoo19999-a11y/my-first-project/middleware"
	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/services"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

// AuthController handles registration, login and profile lookups.
type AuthController struct {
	users *services.UserService
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(users *services.UserService) *AuthController {
	return &AuthController{users: users}
}

// Register creates an account and returns a token for it.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=2,max=64"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
		Country  string `json:"country"`
		City     string `json:"city_in_korea"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid request payload")
		return
	}

	user, err := a.users.Register(ctx.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Country:  req.Country,
		City:     req.City,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CachePrefixStats)
	a.issueToken(ctx, user)
}

// Login verifies user credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	user, err := a.users.Authenticate(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if models.ErrorCode(err) == models.CodeUnauthorized {
			utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
			return
		}
		respondError(ctx, err)
		return
	}
	a.issueToken(ctx, user)
}

func (a *AuthController) issueToken(ctx *gin.Context, user models.User) {
	ttl := time.Duration(config.Get().TokenTTLHours) * time.Hour
	token, err := utils.GenerateToken(user.ID, user.Username, ttl)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	sess := a.users.SessionFor(user.ID, user.Username)
	utils.Success(ctx, gin.H{
		"token":    token,
		"user":     user,
		"is_admin": sess.IsAdmin,
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	value, _ := ctx.Get(middleware.ContextClaimsKey)
	claims, ok := value.(*utils.Claims)
	if token == "" || !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	expiresAt := time.Now().Add(time.Duration(config.Get().TokenTTLHours) * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(ctx.Request.Context(), token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user including private fields.
func (a *AuthController) Me(ctx *gin.Context) {
	sess := middleware.CurrentSession(ctx)
	user, err := a.users.GetUser(ctx.Request.Context(), sess.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user": user, "is_admin": sess.IsAdmin})
}

// GetUserPublic returns public user info by ID.
func (a *AuthController) GetUserPublic(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	user, err := a.users.GetUser(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, user.View())
}
