package handler

import (
	"net/http"

	"UFresher/internal/service"

	"github.com/gin-gonic/gin"
)

type ClubHandler struct {
	svc *service.ClubService
}

func NewClubHandler(svc *service.ClubService) *ClubHandler {
	return &ClubHandler{svc: svc}
}

type CreateClubReq struct {
	Name        string `json:"name" binding:"required,max=64"`
	Description string `json:"description"`
	CommunityID uint64 `json:"community_id" binding:"required"`
}

// List community_id 缺省时返回全部俱乐部
func (h *ClubHandler) List(c *gin.Context) {
	communityID, valid := queryUint(c, "community_id")
	if !valid {
		return
	}
	list, err := h.svc.List(c.Request.Context(), currentUserID(c), communityID, c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *ClubHandler) Mine(c *gin.Context) {
	list, err := h.svc.UserClubs(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

// Create 创建者自动成为 club head 并加入
func (h *ClubHandler) Create(c *gin.Context) {
	var req CreateClubReq
	if !bindJSON(c, &req) {
		return
	}
	club, err := h.svc.Create(c.Request.Context(), currentUserID(c), service.CreateClubInput{
		Name:        req.Name,
		Description: req.Description,
		CommunityID: req.CommunityID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, club)
}

func (h *ClubHandler) Join(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	changed, err := h.svc.Join(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok", "changed": changed})
}

func (h *ClubHandler) Leave(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	changed, err := h.svc.Leave(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok", "changed": changed})
}

func (h *ClubHandler) Delete(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	ok(c)
}
