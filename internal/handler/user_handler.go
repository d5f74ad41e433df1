package handler

import (
	"net/http"

	"UFresher/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateProfileReq 只更新出现的字段
type UpdateProfileReq struct {
	Name                   *string `json:"name" binding:"omitempty,max=64"`
	College                *string `json:"college" binding:"omitempty,max=128"`
	Stream                 *string `json:"stream" binding:"omitempty,max=64"`
	ProfilePic             *string `json:"profile_pic" binding:"omitempty,max=255"`
	AvailableForMentorship *bool   `json:"available_for_mentorship"`
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.svc.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateProfileReq
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), currentUserID(c), service.ProfileUpdate{
		Name:                   req.Name,
		College:                req.College,
		Stream:                 req.Stream,
		ProfilePic:             req.ProfilePic,
		AvailableForMentorship: req.AvailableForMentorship,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
