package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chwoo19999-a11y/my-first-project/config"
	"github.com/chwoo19999-a11y/my-first-project/services"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextClaimsKey stores the parsed *utils.Claims.
	ContextClaimsKey = "jwt_claims"
	// ContextTokenKey stores the raw bearer token, used by logout.
	ContextTokenKey = "jwt_token"
)

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(ctx.Request.Context(), tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		setIdentity(ctx, tokenString, claims)
		ctx.Next()
	}
}

// AuthOptional attaches the caller's identity when a valid token is sent and lets
// anonymous requests through otherwise.
func AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if tokenString, ok := bearerToken(ctx.GetHeader("Authorization")); ok && tokenString != "" {
			if !utils.IsTokenBlacklisted(ctx.Request.Context(), tokenString) {
				if claims, err := utils.ParseToken(tokenString); err == nil {
					setIdentity(ctx, tokenString, claims)
				}
			}
		}
		ctx.Next()
	}
}

// CurrentSession returns the caller's session; the zero Session means anonymous.
func CurrentSession(ctx *gin.Context) services.Session {
	userID := ctx.GetInt(ContextUserIDKey)
	if userID <= 0 {
		return services.Session{}
	}
	username := ctx.GetString(ContextUsernameKey)
	return services.Session{UserID: userID, Username: username, IsAdmin: config.Get().IsAdmin(username)}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setIdentity(ctx *gin.Context, token string, claims *utils.Claims) {
	ctx.Set(ContextUserIDKey, claims.UserID)
	ctx.Set(ContextUsernameKey, claims.Username)
	ctx.Set(ContextClaimsKey, claims)
	ctx.Set(ContextTokenKey, token)
}
