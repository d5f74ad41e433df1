package mysql

import (
	"context"

	"UFresher/internal/model"

	"gorm.io/gorm"
)

type CommunityRepository struct {
	DB *gorm.DB
}

// Create 创建社区；creator 尚未加入任何社区时自动加入（角色=1）
func (r *CommunityRepository) Create(ctx context.Context, c *model.Community) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&model.CommunityMember{}).Where("user_id = ?", c.CreatorID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		changed, err := joinCommunity(tx, c.ID, c.CreatorID, 1)
		if err != nil {
			return err
		}
		if changed {
			c.MemberCount++
		}
		return nil
	})
}

func (r *CommunityRepository) FindByID(ctx context.Context, id uint64) (*model.Community, error) {
	var community model.Community
	err := r.DB.WithContext(ctx).First(&community, id).Error
	return &community, err
}

func (r *CommunityRepository) FindByName(ctx context.Context, name string) (*model.Community, error) {
	var community model.Community
	err := r.DB.WithContext(ctx).Where("name = ?", name).First(&community).Error
	return &community, err
}

// List 最新创建的在前
func (r *CommunityRepository) List(ctx context.Context) ([]model.Community, error) {
	var list []model.Community
	err := r.DB.WithContext(ctx).Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

// DeleteByID 级联删除俱乐部、成员关系与帖子；幂等，不存在也返回 nil。
// 返回社区成员与其俱乐部成员的并集，供调用方失效缓存
func (r *CommunityRepository) DeleteByID(ctx context.Context, id uint64) ([]uint64, error) {
	var members []uint64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clubIDs := tx.Model(&model.Club{}).Select("id").Where("community_id = ?", id)
		var ids []uint64
		if err := tx.Model(&model.CommunityMember{}).Where("community_id = ?", id).
			Pluck("user_id", &ids).Error; err != nil {
			return err
		}
		var clubMembers []uint64
		if err := tx.Model(&model.ClubMembership{}).Distinct("user_id").Where("club_id IN (?)", clubIDs).
			Pluck("user_id", &clubMembers).Error; err != nil {
			return err
		}
		members = mergeIDs(ids, clubMembers)
		if err := tx.Where("club_id IN (?)", clubIDs).Delete(&model.ClubMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Post{}).Where("club_id IN (?)", clubIDs).
			Update("status", model.PostDeleted).Error; err != nil {
			return err
		}
		if err := tx.Where("community_id = ?", id).Delete(&model.Club{}).Error; err != nil {
			return err
		}
		if err := tx.Where("community_id = ?", id).Delete(&model.CommunityMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Community{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

func mergeIDs(a, b []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(a)+len(b))
	out := make([]uint64, 0, len(a)+len(b))
	for _, list := range [][]uint64{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}
