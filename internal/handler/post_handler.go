package handler

import (
	"net/http"
	"strconv"
	"strings"

	"UFresher/internal/apperror"
	"UFresher/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	svc *service.PostService
}

func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

type CreatePostReq struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content"`
}

// 游标格式 <created_at 毫秒>_<id>，空串表示第一页
func encodeCursor(ts int64, id uint64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(ts, 10) + "_" + strconv.FormatUint(id, 10)
}

func decodeCursor(raw string) (int64, uint64, error) {
	if raw == "" {
		return 0, 0, nil
	}
	tsStr, idStr, found := strings.Cut(raw, "_")
	if !found {
		return 0, 0, apperror.ValidationFailed("cursor", "invalid cursor")
	}
	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return 0, 0, apperror.ValidationFailed("cursor", "invalid cursor")
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, 0, apperror.ValidationFailed("cursor", "invalid cursor")
	}
	return ts, id, nil
}

func (h *PostHandler) Create(c *gin.Context) {
	clubID, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req CreatePostReq
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.svc.CreatePost(c.Request.Context(), currentUserID(c), clubID, req.Title, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// ListByClub 游标分页，next_cursor 为空表示没有下一页
func (h *PostHandler) ListByClub(c *gin.Context) {
	clubID, valid := pathID(c, "id")
	if !valid {
		return
	}
	lastTS, lastID, err := decodeCursor(c.Query("cursor"))
	if err != nil {
		writeError(c, err)
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))

	list, nextID, nextTS, err := h.svc.ListByClubCursor(c.Request.Context(), currentUserID(c), clubID, lastID, lastTS, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"list":        list,
		"next_cursor": encodeCursor(nextTS, nextID),
	})
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.DeletePost(c.Request.Context(), currentUserID(c), id, isAdmin(c)); err != nil {
		writeError(c, err)
		return
	}
	ok(c)
}
