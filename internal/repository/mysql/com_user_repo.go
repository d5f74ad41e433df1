package mysql

import (
	"context"
	"errors"

	"UFresher/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAlreadyInCommunity = errors.New("already in a community")

type CommunityMemberRepository struct {
	DB *gorm.DB
}

// Join 幂等加入：已是该社区成员返回 changed=false；已在其它社区返回 ErrAlreadyInCommunity；
// 社区不存在返回 gorm.ErrRecordNotFound
func (r *CommunityMemberRepository) Join(ctx context.Context, communityID, userID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		changed, err = joinCommunity(tx, communityID, userID, 0)
		return err
	})
	return changed, err
}

func joinCommunity(tx *gorm.DB, communityID, userID uint64, role int) (bool, error) {
	var existing model.CommunityMember
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&existing).Error
	switch {
	case err == nil:
		if existing.CommunityID == communityID {
			return false, nil
		}
		return false, ErrAlreadyInCommunity
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}

	if err = tx.Create(&model.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        role,
	}).Error; err != nil {
		// 并发加入时由 user_id 唯一索引兜底
		if IsDuplicate(err) {
			return false, ErrAlreadyInCommunity
		}
		return false, err
	}
	// 社区已被删除时返回 not found，事务回滚掉刚写入的成员行
	res := tx.Model(&model.Community{}).Where("id = ?", communityID).
		UpdateColumn("member_count", gorm.Expr("member_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected != 1 {
		return false, gorm.ErrRecordNotFound
	}
	return true, insertOutbox(tx, model.EventCommunityJoined, communityID, userID, nil)
}

// Leave 幂等退出
func (r *CommunityMemberRepository) Leave(ctx context.Context, communityID, userID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			Delete(&model.CommunityMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		if err := tx.Model(&model.Community{}).Where("id = ?", communityID).
			UpdateColumn("member_count", gorm.Expr("GREATEST(0, member_count - 1)")).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventCommunityLeft, communityID, userID, nil)
	})
	return changed, err
}

func (r *CommunityMemberRepository) IsMember(ctx context.Context, communityID, userID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

// FindCommunityByUser 用户所在社区，未加入返回 nil, nil
func (r *CommunityMemberRepository) FindCommunityByUser(ctx context.Context, userID uint64) (*model.Community, error) {
	var list []model.Community
	err := r.DB.WithContext(ctx).
		Joins("JOIN community_members m ON m.community_id = communities.id").
		Where("m.user_id = ?", userID).
		Limit(1).
		Find(&list).Error
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}
