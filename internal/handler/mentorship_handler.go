package handler

import (
	"net/http"

	"UFresher/internal/service"

	"github.com/gin-gonic/gin"
)

type MentorshipHandler struct {
	svc *service.MentorshipService
}

func NewMentorshipHandler(svc *service.MentorshipService) *MentorshipHandler {
	return &MentorshipHandler{svc: svc}
}

type RequestMentorshipReq struct {
	MentorID uint64 `json:"mentor_id" binding:"required"`
	Topic    string `json:"topic" binding:"max=128"`
}

func (h *MentorshipHandler) Mentors(c *gin.Context) {
	list, err := h.svc.ListMentors(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *MentorshipHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

// Request 重复申请返回已有记录，changed=false
func (h *MentorshipHandler) Request(c *gin.Context) {
	var req RequestMentorshipReq
	if !bindJSON(c, &req) {
		return
	}
	rel, changed, err := h.svc.Request(c.Request.Context(), currentUserID(c), req.MentorID, req.Topic)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if changed {
		status = http.StatusCreated
	}
	c.JSON(status, rel)
}

func (h *MentorshipHandler) Accept(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	rel, err := h.svc.Accept(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}

func (h *MentorshipHandler) Complete(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	rel, err := h.svc.Complete(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}
