package service

import (
	"context"
	"strings"

	"UFresher/internal/apperror"
	"UFresher/internal/model"
	"UFresher/internal/pkg"
	"UFresher/internal/telemetry"

	"go.uber.org/zap"
)

type ClubService struct {
	repo        ClubStore
	communities *CommunityService
	stats       StatsCacheStore
}

func NewClubService(repo ClubStore, communities *CommunityService, stats StatsCacheStore) *ClubService {
	return &ClubService{repo: repo, communities: communities, stats: stats}
}

// List communityID 为 0 时列出全部俱乐部，并标记调用者是否已加入
func (s *ClubService) List(ctx context.Context, userID, communityID uint64, query string) ([]model.Club, error) {
	list, err := s.repo.List(ctx, communityID)
	if err != nil {
		return nil, err
	}
	list = pkg.FilterSlice(list, query, func(c model.Club) []string {
		return []string{c.Name, c.Description}
	})
	if len(list) == 0 || userID == 0 {
		return list, nil
	}
	ids := make([]uint64, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	joined, err := s.repo.MemberClubIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].IsMember = joined[list[i].ID]
	}
	return list, nil
}

func (s *ClubService) Get(ctx context.Context, id uint64) (*model.Club, error) {
	club, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "club", id)
	}
	return club, nil
}

// UserClubs 用户加入的全部俱乐部
func (s *ClubService) UserClubs(ctx context.Context, userID uint64) ([]model.Club, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].IsMember = true
	}
	return list, nil
}

type CreateClubInput struct {
	Name        string
	Description string
	CommunityID uint64
}

// Create 创建者即负责人，并自动加入
func (s *ClubService) Create(ctx context.Context, userID uint64, in CreateClubInput) (*model.Club, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "club name required")
	}
	if in.CommunityID == 0 {
		return nil, apperror.ValidationFailed("community_id", "community required")
	}
	if _, err := s.communities.Get(ctx, in.CommunityID); err != nil {
		return nil, err
	}
	club := &model.Club{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		CommunityID: in.CommunityID,
		ClubHead:    userID,
		CreatedBy:   userID,
	}
	if err := s.repo.Create(ctx, club); err != nil {
		return nil, err
	}
	club.IsMember = true
	s.afterMembershipChange(ctx, userID, "join")
	zap.L().Info("club created", zap.Uint64("club_id", club.ID), zap.Uint64("user_id", userID))
	return s.withCommunity(ctx, club), nil
}

// withCommunity 重新读取以带上社区信息，失败时返回原对象
func (s *ClubService) withCommunity(ctx context.Context, club *model.Club) *model.Club {
	full, err := s.repo.FindByID(ctx, club.ID)
	if err != nil {
		return club
	}
	full.IsMember = club.IsMember
	return full
}

func (s *ClubService) Join(ctx context.Context, userID, clubID uint64) (bool, error) {
	if _, err := s.Get(ctx, clubID); err != nil {
		return false, err
	}
	changed, err := s.repo.Join(ctx, clubID, userID)
	if err != nil {
		return false, notFoundOr(err, "club", clubID)
	}
	if changed {
		s.afterMembershipChange(ctx, userID, "join")
	}
	return changed, nil
}

func (s *ClubService) Leave(ctx context.Context, userID, clubID uint64) (bool, error) {
	changed, err := s.repo.Leave(ctx, clubID, userID)
	if err != nil {
		return false, err
	}
	if changed {
		s.afterMembershipChange(ctx, userID, "leave")
	}
	return changed, nil
}

// IsMember 聊天与帖子的权限判断
func (s *ClubService) IsMember(ctx context.Context, clubID, userID uint64) (bool, error) {
	return s.repo.IsMember(ctx, clubID, userID)
}

func (s *ClubService) Delete(ctx context.Context, id uint64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	members, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	invalidateStats(ctx, s.stats, members...)
	zap.L().Info("club deleted", zap.Uint64("club_id", id), zap.Int("members", len(members)))
	return nil
}

func (s *ClubService) afterMembershipChange(ctx context.Context, userID uint64, action string) {
	telemetry.MembershipChangesTotal.WithLabelValues("club", action).Inc()
	invalidateStats(ctx, s.stats, userID)
}
