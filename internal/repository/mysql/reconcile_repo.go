package mysql

import (
	"context"

	"UFresher/internal/model"

	"gorm.io/gorm"
)

// MemberCountRepository 成员计数对账
type MemberCountRepository struct {
	DB *gorm.DB
}

// CountPair 对账批次中的一行
type CountPair struct {
	ID          uint64
	MemberCount int64
}

// ListCommunities 按 id 游标批量读取社区计数
func (r *MemberCountRepository) ListCommunities(ctx context.Context, lastID uint64, batchSize int) ([]CountPair, error) {
	var list []CountPair
	err := r.DB.WithContext(ctx).Model(&model.Community{}).
		Select("id", "member_count").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error
	return list, err
}

// ListClubs 按 id 游标批量读取俱乐部计数
func (r *MemberCountRepository) ListClubs(ctx context.Context, lastID uint64, batchSize int) ([]CountPair, error) {
	var list []CountPair
	err := r.DB.WithContext(ctx).Model(&model.Club{}).
		Select("id", "member_count").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error
	return list, err
}

func (r *MemberCountRepository) RealCommunityMembers(ctx context.Context, communityID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).Where("community_id = ?", communityID).Count(&n).Error
	return n, err
}

func (r *MemberCountRepository) RealClubMembers(ctx context.Context, clubID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.ClubMembership{}).Where("club_id = ?", clubID).Count(&n).Error
	return n, err
}

func (r *MemberCountRepository) FixCommunity(ctx context.Context, id uint64, n int64) error {
	return r.DB.WithContext(ctx).Model(&model.Community{}).Where("id = ?", id).UpdateColumn("member_count", n).Error
}

func (r *MemberCountRepository) FixClub(ctx context.Context, id uint64, n int64) error {
	return r.DB.WithContext(ctx).Model(&model.Club{}).Where("id = ?", id).UpdateColumn("member_count", n).Error
}
