package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"UFresher/internal/apperror"
	"UFresher/internal/pkg"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
	ContextTokenKey  = "access_token"
)

// Authenticator 由 service.AuthService 实现
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*pkg.Claims, error)
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"msg": msg, "error": apperror.KindForStatus(status)})
}

// bearerToken EventSource 无法设置请求头，SSE 允许用 access_token 查询参数
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if t := c.Query("access_token"); t != "" {
			return t, true
		}
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}

		// 解析 token 并与 redis 中当前有效的 token 比对，通过后续期
		claims, err := auth.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			if apperror.Kind(err) == "unauthorized" {
				abort(c, http.StatusUnauthorized, err.Error())
				return
			}
			abort(c, http.StatusInternalServerError, "session check failed")
			return
		}

		// 注入 user_id 与角色
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextRoleKey, claims.Role)
		c.Set(ContextTokenKey, tokenStr)
		c.Next()
	}
}

// RequireRole 必须挂在 AuthMiddleware 之后
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRoleKey)
		if !slices.Contains(roles, role) {
			abort(c, http.StatusForbidden, "insufficient role")
			return
		}
		c.Next()
	}
}
