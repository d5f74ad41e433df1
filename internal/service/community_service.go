package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"UFresher/internal/apperror"
	"UFresher/internal/model"
	"UFresher/internal/pkg"
	"UFresher/internal/repository/mysql"
	"UFresher/internal/telemetry"

	"github.com/goburrow/cache"
	"go.uber.org/zap"
)

const cacheLoadTimeout = 3 * time.Second

type CommunityService struct {
	repo       CommunityStore
	memberRepo CommunityMemberStore
	stats      StatsCacheStore
	byID       cache.LoadingCache
}

func NewCommunityService(repo CommunityStore, memberRepo CommunityMemberStore, stats StatsCacheStore) *CommunityService {
	s := &CommunityService{repo: repo, memberRepo: memberRepo, stats: stats}
	s.byID = cache.NewLoadingCache(
		func(key cache.Key) (cache.Value, error) {
			ctx, cancel := context.WithTimeout(context.Background(), cacheLoadTimeout)
			defer cancel()
			return repo.FindByID(ctx, key.(uint64))
		},
		cache.WithMaximumSize(1000),
		cache.WithExpireAfterAccess(10*time.Minute),
	)
	return s
}

// Get 走本地 loading cache，成员变动时失效
func (s *CommunityService) Get(_ context.Context, id uint64) (*model.Community, error) {
	v, err := s.byID.Get(id)
	if err != nil {
		return nil, notFoundOr(err, "community", id)
	}
	c := *v.(*model.Community)
	return &c, nil
}

// List 按创建时间倒序，query 对名称和学校做大小写不敏感的子串匹配
func (s *CommunityService) List(ctx context.Context, query string) ([]model.Community, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return pkg.FilterSlice(list, query, func(c model.Community) []string {
		return []string{c.Name, c.CollegeName}
	}), nil
}

// UserCommunity 用户所在社区，没有时返回 nil
func (s *CommunityService) UserCommunity(ctx context.Context, userID uint64) (*model.Community, error) {
	return s.memberRepo.FindCommunityByUser(ctx, userID)
}

// Join 每个用户只能加入一个社区，重复加入同一社区是幂等的
func (s *CommunityService) Join(ctx context.Context, userID, communityID uint64) (bool, error) {
	if _, err := s.Get(ctx, communityID); err != nil {
		return false, err
	}
	changed, err := s.memberRepo.Join(ctx, communityID, userID)
	if err != nil {
		if errors.Is(err, mysql.ErrAlreadyInCommunity) {
			return false, apperror.Conflict("already in a community")
		}
		if mysql.IsNotFound(err) {
			// 缓存里的社区已被删除
			s.byID.Invalidate(communityID)
			return false, apperror.NotFound("community", communityID)
		}
		return false, err
	}
	if changed {
		s.afterMembershipChange(ctx, communityID, userID, "join")
	}
	return changed, nil
}

func (s *CommunityService) Leave(ctx context.Context, userID, communityID uint64) (bool, error) {
	changed, err := s.memberRepo.Leave(ctx, communityID, userID)
	if err != nil {
		return false, err
	}
	if changed {
		s.afterMembershipChange(ctx, communityID, userID, "leave")
	}
	return changed, nil
}

func (s *CommunityService) afterMembershipChange(ctx context.Context, communityID, userID uint64, action string) {
	s.byID.Invalidate(communityID)
	telemetry.MembershipChangesTotal.WithLabelValues("community", action).Inc()
	invalidateStats(ctx, s.stats, userID)
}

// InvalidateCached 计数被对账修正后丢弃本地缓存
func (s *CommunityService) InvalidateCached(id uint64) {
	s.byID.Invalidate(id)
}

func invalidateStats(ctx context.Context, stats StatsCacheStore, userIDs ...uint64) {
	if stats == nil {
		return
	}
	for _, id := range userIDs {
		if err := stats.Invalidate(ctx, id); err != nil {
			zap.L().Warn("invalidate stats cache failed", zap.Uint64("user_id", id), zap.Error(err))
		}
	}
}

type CreateCommunityInput struct {
	Name        string
	Description string
	CollegeName string
}

// Create 管理员创建社区，创建者没有社区时自动加入
func (s *CommunityService) Create(ctx context.Context, adminID uint64, in CreateCommunityInput) (*model.Community, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "community name required")
	}
	college := strings.TrimSpace(in.CollegeName)
	if college == "" {
		return nil, apperror.ValidationFailed("college_name", "college name required")
	}
	c := &model.Community{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		CollegeName: college,
		CreatorID:   adminID,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if mysql.IsDuplicate(err) {
			return nil, apperror.Conflict("community name already exists")
		}
		return nil, err
	}
	if s.stats != nil {
		_ = s.stats.Invalidate(ctx, adminID)
	}
	return c, nil
}

// Delete 级联删除社区下的俱乐部与成员关系
func (s *CommunityService) Delete(ctx context.Context, id uint64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFoundOr(err, "community", id)
	}
	members, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	s.byID.Invalidate(id)
	invalidateStats(ctx, s.stats, members...)
	zap.L().Info("community deleted", zap.Uint64("community_id", id), zap.Int("members", len(members)))
	return nil
}
