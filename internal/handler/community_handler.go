package handler

import (
	"net/http"

	"UFresher/internal/service"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	svc *service.CommunityService
}

func NewCommunityHandler(svc *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

type CreateCommunityReq struct {
	Name        string `json:"name" binding:"required,max=64"`
	Description string `json:"description"`
	CollegeName string `json:"college_name" binding:"required,max=128"`
}

// List 支持 q 按名称和学校模糊过滤
func (h *CommunityHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *CommunityHandler) Get(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	community, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

// Mine 未加入社区时 community 为 null
func (h *CommunityHandler) Mine(c *gin.Context) {
	community, err := h.svc.UserCommunity(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"community": community})
}

func (h *CommunityHandler) Join(c *gin.Context) {
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

func (h *CommunityHandler) Leave(c *gin.Context) {
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

func (h *CommunityHandler) Create(c *gin.Context) {
	var req CreateCommunityReq
	if !bindJSON(c, &req) {
		return
	}
	community, err := h.svc.Create(c.Request.Context(), currentUserID(c), service.CreateCommunityInput{
		Name:        req.Name,
		Description: req.Description,
		CollegeName: req.CollegeName,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, community)
}

func (h *CommunityHandler) Delete(c *gin.Context) {
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
