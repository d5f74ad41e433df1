package service

import (
	"context"
	"strings"
	"sync"

	"UFresher/internal/apperror"
	"UFresher/internal/config"
	"UFresher/internal/model"
	"UFresher/internal/telemetry"

	"go.uber.org/zap"
)

const maxModerationPageSize = 100

type ModerationService struct {
	logs     ModerationStore
	settings SettingsStore
	chats    ChatStore
	posts    PostStore

	mu             sync.RWMutex
	keywords       []string
	defaultEnabled bool
}

func NewModerationService(logs ModerationStore, settings SettingsStore, chats ChatStore, posts PostStore, cfg config.ModerationConfig) *ModerationService {
	s := &ModerationService{logs: logs, settings: settings, chats: chats, posts: posts}
	s.Apply(cfg)
	return s
}

// Apply 热更新关键词列表与默认开关
func (s *ModerationService) Apply(cfg config.ModerationConfig) {
	kw := make([]string, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kw = append(kw, k)
		}
	}
	s.mu.Lock()
	s.keywords = kw
	s.defaultEnabled = cfg.Enabled
	s.mu.Unlock()
	zap.L().Info("moderation keywords loaded", zap.Int("count", len(kw)), zap.Bool("enabled", cfg.Enabled))
}

// Enabled redis 中的管理员设置优先，未设置时使用配置文件
func (s *ModerationService) Enabled(ctx context.Context) bool {
	s.mu.RLock()
	def := s.defaultEnabled
	s.mu.RUnlock()
	v, set, err := s.settings.ModerationEnabled(ctx)
	if err != nil {
		zap.L().Warn("read moderation setting failed", zap.Error(err))
		return def
	}
	if !set {
		return def
	}
	return v
}

func (s *ModerationService) SetEnabled(ctx context.Context, enabled bool) error {
	return s.settings.SetModerationEnabled(ctx, enabled)
}

// Screen 命中关键词时返回 flagged=true 与原因
func (s *ModerationService) Screen(ctx context.Context, content string) (bool, string) {
	if !s.Enabled(ctx) {
		return false, ""
	}
	lower := strings.ToLower(content)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.keywords {
		if strings.Contains(lower, k) {
			return true, "contains blocked keyword: " + k
		}
	}
	return false, ""
}

// Flag 为被标记的内容写一条待审核记录
func (s *ModerationService) Flag(ctx context.Context, contentType string, contentID, authorID uint64, content, reason string) error {
	log := &model.ModerationLog{
		ContentType:     contentType,
		ContentID:       contentID,
		Content:         content,
		AuthorID:        authorID,
		Reason:          reason,
		ModeratorAction: model.ModerationPending,
	}
	if err := s.logs.Create(ctx, log); err != nil {
		return err
	}
	telemetry.ContentFlaggedTotal.WithLabelValues(contentType).Inc()
	return nil
}

// ListLogs status 为空时返回全部
func (s *ModerationService) ListLogs(ctx context.Context, status string, page, size int) ([]model.ModerationLog, error) {
	switch status {
	case "", model.ModerationPending, model.ModerationApproved, model.ModerationRejected:
	default:
		return nil, apperror.ValidationFailed("status", "unknown moderation status: "+status)
	}
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > maxModerationPageSize {
		size = 20
	}
	return s.logs.List(ctx, status, (page-1)*size, size)
}

func (s *ModerationService) Approve(ctx context.Context, adminID, id uint64) (*model.ModerationLog, error) {
	return s.review(ctx, adminID, id, model.ModerationApproved)
}

// Reject 先删除被举报的聊天消息或下架帖子，成功后才把记录标为 rejected，
// 删除失败时记录保持 pending 可重试
func (s *ModerationService) Reject(ctx context.Context, adminID, id uint64) (*model.ModerationLog, error) {
	log, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	switch log.ContentType {
	case model.ContentMessage:
		err = s.chats.Delete(ctx, log.ContentID)
	case model.ContentPost:
		err = s.posts.SetStatus(ctx, log.ContentID, model.PostBanned)
	}
	if err != nil {
		zap.L().Error("remove rejected content failed",
			zap.String("content_type", log.ContentType), zap.Uint64("content_id", log.ContentID), zap.Error(err))
		return nil, err
	}
	return s.review(ctx, adminID, id, model.ModerationRejected)
}

func (s *ModerationService) pending(ctx context.Context, id uint64) (*model.ModerationLog, error) {
	log, err := s.logs.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "moderation log", id)
	}
	if log.ModeratorAction != model.ModerationPending {
		return nil, apperror.Conflict("moderation log already " + log.ModeratorAction)
	}
	return log, nil
}

// review 只有 pending 的记录可以被处理
func (s *ModerationService) review(ctx context.Context, adminID, id uint64, action string) (*model.ModerationLog, error) {
	if _, err := s.pending(ctx, id); err != nil {
		return nil, err
	}
	changed, err := s.logs.Review(ctx, id, action, adminID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, apperror.Conflict("moderation log already reviewed")
	}
	telemetry.ModerationReviewsTotal.WithLabelValues(action).Inc()
	return s.logs.FindByID(ctx, id)
}
