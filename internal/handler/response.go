package handler

import (
	"errors"
	"net/http"
	"strconv"

	"UFresher/internal/apperror"
	"UFresher/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusOf 把服务层错误映射为 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError 未分类的错误只记日志，不把内部信息返回给客户端
func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.Error(err))
		msg = "internal server error"
	}
	body := gin.H{"msg": msg, "error": apperror.Kind(err)}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "" {
		body["field"] = appErr.Field
	}
	c.AbortWithStatusJSON(status, body)
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func currentUserID(c *gin.Context) uint64 {
	return c.GetUint64(middleware.ContextUserIDKey)
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(middleware.ContextRoleKey) == "admin"
}

// pathID 解析路径中的正整数 id
func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		writeError(c, apperror.ValidationFailed(name, "invalid "+name))
		return 0, false
	}
	return id, true
}

// queryUint 参数缺省时返回 0
func queryUint(c *gin.Context, name string) (uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(c, apperror.ValidationFailed(name, "invalid "+name))
		return 0, false
	}
	return v, true
}
