package handler

import (
	"net/http"
	"time"

	"UFresher/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	svc  *service.ChatService
	ping time.Duration
}

func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc, ping: 25 * time.Second}
}

type SendMessageReq struct {
	Content string `json:"content" binding:"required"`
}

// List before 为消息 id，向前翻页
func (h *ChatHandler) List(c *gin.Context) {
	before, valid := queryUint(c, "before")
	if !valid {
		return
	}
	limit, valid := queryUint(c, "limit")
	if !valid {
		return
	}
	list, err := h.svc.List(c.Request.Context(), currentUserID(c), c.Param("room"), before, int(limit))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req SendMessageReq
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.svc.Send(c.Request.Context(), currentUserID(c), c.Param("room"), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Stream 订阅房间新消息，鉴权失败时在建立流之前返回错误
func (h *ChatHandler) Stream(c *gin.Context) {
	events, cancel, err := h.svc.Subscribe(c.Request.Context(), currentUserID(c), c.Param("room"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer cancel()
	stream(c, events, h.ping, nil)
}
