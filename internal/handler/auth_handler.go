package handler

import (
	"io"
	"net/http"
	"time"

	"UFresher/internal/middleware"
	"UFresher/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth  *service.AuthService
	email *service.EmailService
	ping  time.Duration
}

func NewAuthHandler(auth *service.AuthService, email *service.EmailService) *AuthHandler {
	return &AuthHandler{auth: auth, email: email, ping: 25 * time.Second}
}

type SendCodeReq struct {
	Email string `json:"email" binding:"required,email"`
}

// RegisterReq 注册请求体
type RegisterReq struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Code     string `json:"code" binding:"required,len=6"`
	Name     string `json:"name" binding:"max=64"`
	College  string `json:"college" binding:"max=128"`
	Stream   string `json:"stream" binding:"max=64"`
}

type LoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ResetReq 忘记密码请求体
type ResetReq struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=64"`
}

type RefreshReq struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=64"`
}

// SendCode scope 取自路径：register 或 reset
func (h *AuthHandler) SendCode(c *gin.Context) {
	var req SendCodeReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.email.SendCode(c.Request.Context(), c.Param("scope"), req.Email); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "code sent"})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterReq
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Code:     req.Code,
		Name:     req.Name,
		College:  req.College,
		Stream:   req.Stream,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginReq
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	ok(c)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	ok(c)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshReq
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), currentUserID(c), req.OldPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	ok(c)
}

func (h *AuthHandler) Session(c *gin.Context) {
	sess, err := h.auth.GetSession(c.Request.Context(), currentUserID(c), c.GetString(middleware.ContextTokenKey))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Events 推送当前用户的登录态变化，SIGNED_OUT 之后关闭连接
func (h *AuthHandler) Events(c *gin.Context) {
	events, cancel := h.auth.Subscribe(currentUserID(c))
	defer cancel()
	stream(c, events, h.ping, func(ev service.Event) bool {
		return ev.Name == service.EventSignedOut
	})
}

// stream 把 hub 事件写成 SSE，定时发送 ping 保活；last 返回 true 时写完即结束
func stream(c *gin.Context, events <-chan service.Event, ping time.Duration, last func(service.Event) bool) {
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	ticker := time.NewTicker(ping)
	defer ticker.Stop()
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case ev, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return last == nil || !last(ev)
		}
	})
}
