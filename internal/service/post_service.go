package service

import (
	"context"
	"strings"

	"UFresher/internal/apperror"
	"UFresher/internal/model"

	"go.uber.org/zap"
)

const maxPostPageSize = 50

type PostService struct {
	repo       PostStore
	clubs      *ClubService
	moderation *ModerationService
}

func NewPostService(repo PostStore, clubs *ClubService, moderation *ModerationService) *PostService {
	return &PostService{repo: repo, clubs: clubs, moderation: moderation}
}

// CreatePost 只有俱乐部成员可以发帖，命中关键词的帖子进入审核队列
func (s *PostService) CreatePost(ctx context.Context, userID, clubID uint64, title, content string) (*model.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title required")
	}
	if _, err := s.clubs.Get(ctx, clubID); err != nil {
		return nil, err
	}
	ok, err := s.clubs.IsMember(ctx, clubID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Forbidden("join the club to post")
	}

	post := &model.Post{
		ClubID:   clubID,
		AuthorID: userID,
		Title:    title,
		Content:  content,
	}
	if err = s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	if flagged, reason := s.moderation.Screen(ctx, title+"\n"+content); flagged {
		if err = s.moderation.Flag(ctx, model.ContentPost, post.ID, userID, title+"\n"+content, reason); err != nil {
			zap.L().Error("flag post failed", zap.Uint64("post_id", post.ID), zap.Error(err))
		}
	}
	return post, nil
}

// ListByClubCursor 游标分页：首次不传 lastID/lastCreatedAt（或传 0）
// 返回 nextLastID/nextLastCreatedAt 供下一页使用
func (s *PostService) ListByClubCursor(ctx context.Context, userID, clubID, lastID uint64, lastCreatedAt int64, size int) ([]model.Post, uint64, int64, error) {
	ok, err := s.clubs.IsMember(ctx, clubID, userID)
	if err != nil {
		return nil, 0, 0, err
	}
	if !ok {
		return nil, 0, 0, apperror.Forbidden("join the club to read its posts")
	}
	if size <= 0 || size > maxPostPageSize {
		size = 20
	}
	list, err := s.repo.ListByClubCursor(ctx, clubID, lastID, lastCreatedAt, size)
	if err != nil {
		return nil, 0, 0, err
	}
	var nextID uint64
	var nextTS int64
	if len(list) == size {
		last := list[len(list)-1]
		nextID = last.ID
		nextTS = last.CreatedAt.UnixMilli()
	}
	return list, nextID, nextTS, nil
}

// DeletePost 幂等删除：成功/已删除均返回 nil；仅无权限时报错
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint64, isAdmin bool) error {
	affected, err := s.repo.DeleteWithPermission(ctx, postID, userID, isAdmin)
	if err != nil {
		return err
	}
	if affected == 0 {
		// 帖子已删除或不存在，视为幂等成功
		if _, err = s.repo.FindByID(ctx, postID); err != nil {
			return nil
		}
		// 还能读到帖子，说明无权限
		return apperror.Forbidden("only the author, the club head or an admin can delete this post")
	}
	return nil
}
