package mysql

import (
	"context"

	"UFresher/internal/model"

	"gorm.io/gorm"
)

type StatsRepository struct {
	DB *gorm.DB
}

// UserStats 仪表盘统计
type UserStats struct {
	CommunitiesJoined int64 `json:"communities_joined"`
	ActiveClubs       int64 `json:"active_clubs"`
	Mentors           int64 `json:"mentors"`
	ActiveConnections int64 `json:"active_connections"`
}

// AdminStats 管理后台统计
type AdminStats struct {
	TotalUsers       int64 `json:"total_users"`
	TotalCommunities int64 `json:"total_communities"`
	TotalClubs       int64 `json:"total_clubs"`
	FlaggedContent   int64 `json:"flagged_content"`
}

func (r *StatsRepository) UserStats(ctx context.Context, userID uint64) (*UserStats, error) {
	db := r.DB.WithContext(ctx)
	s := &UserStats{}
	if err := db.Model(&model.CommunityMember{}).Where("user_id = ?", userID).Count(&s.CommunitiesJoined).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.ClubMembership{}).Where("user_id = ?", userID).Count(&s.ActiveClubs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.User{}).Where("role = ?", model.RoleMentor).Count(&s.Mentors).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Mentorship{}).
		Where("status = ? AND (mentor_id = ? OR mentee_id = ?)", model.MentorshipActive, userID, userID).
		Count(&s.ActiveConnections).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *StatsRepository) AdminStats(ctx context.Context) (*AdminStats, error) {
	db := r.DB.WithContext(ctx)
	s := &AdminStats{}
	if err := db.Model(&model.User{}).Count(&s.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Community{}).Count(&s.TotalCommunities).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Club{}).Count(&s.TotalClubs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.ModerationLog{}).
		Where("moderator_action = ?", model.ModerationPending).
		Count(&s.FlaggedContent).Error; err != nil {
		return nil, err
	}
	return s, nil
}
