package handler

import (
	"net/http"
	"strconv"

	"UFresher/internal/service"

	"github.com/gin-gonic/gin"
)

// StatsHandler 用户看板与管理员统计
type StatsHandler struct {
	svc *service.StatsService
}

func NewStatsHandler(svc *service.StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) User(c *gin.Context) {
	stats, err := h.svc.UserStats(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) Admin(c *gin.Context) {
	stats, err := h.svc.AdminStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type ModerationHandler struct {
	svc *service.ModerationService
}

func NewModerationHandler(svc *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{svc: svc}
}

type ModerationSettingsReq struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// List status 缺省时返回全部记录
func (h *ModerationHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))
	list, err := h.svc.ListLogs(c.Request.Context(), c.Query("status"), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *ModerationHandler) Approve(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	entry, err := h.svc.Approve(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *ModerationHandler) Reject(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	entry, err := h.svc.Reject(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *ModerationHandler) Settings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": h.svc.Enabled(c.Request.Context())})
}

func (h *ModerationHandler) UpdateSettings(c *gin.Context) {
	var req ModerationSettingsReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.SetEnabled(c.Request.Context(), *req.Enabled); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
}
