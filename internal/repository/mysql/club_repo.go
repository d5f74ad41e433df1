package mysql

import (
	"context"

	"UFresher/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClubRepository struct {
	DB *gorm.DB
}

// Create 创建俱乐部，创建者同时成为 club_head 并自动加入
func (r *ClubRepository) Create(ctx context.Context, club *model.Club) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Community").Create(club).Error; err != nil {
			return err
		}
		changed, err := joinClub(tx, club.ID, club.CreatedBy)
		if err != nil {
			return err
		}
		if changed {
			club.MemberCount++
		}
		return nil
	})
}

func (r *ClubRepository) FindByID(ctx context.Context, id uint64) (*model.Club, error) {
	var club model.Club
	err := r.DB.WithContext(ctx).Preload("Community").First(&club, id).Error
	return &club, err
}

// List communityID 为 0 时返回全部，按创建时间倒序
func (r *ClubRepository) List(ctx context.Context, communityID uint64) ([]model.Club, error) {
	q := r.DB.WithContext(ctx).Preload("Community")
	if communityID > 0 {
		q = q.Where("community_id = ?", communityID)
	}
	var list []model.Club
	err := q.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

// ListByUser 用户加入的俱乐部
func (r *ClubRepository) ListByUser(ctx context.Context, userID uint64) ([]model.Club, error) {
	var list []model.Club
	err := r.DB.WithContext(ctx).Preload("Community").
		Joins("JOIN club_memberships m ON m.club_id = clubs.id").
		Where("m.user_id = ?", userID).
		Order("m.created_at DESC").
		Find(&list).Error
	return list, err
}

// MemberClubIDs 返回 clubIDs 中用户已加入的集合
func (r *ClubRepository) MemberClubIDs(ctx context.Context, userID uint64, clubIDs []uint64) (map[uint64]bool, error) {
	set := make(map[uint64]bool, len(clubIDs))
	if len(clubIDs) == 0 {
		return set, nil
	}
	var ids []uint64
	if err := r.DB.WithContext(ctx).Model(&model.ClubMembership{}).
		Where("user_id = ? AND club_id IN ?", userID, clubIDs).
		Pluck("club_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *ClubRepository) IsMember(ctx context.Context, clubID, userID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ClubMembership{}).
		Where("club_id = ? AND user_id = ?", clubID, userID).
		Count(&count).Error
	return count > 0, err
}

// Join 幂等加入，返回是否真正新增；俱乐部不存在返回 gorm.ErrRecordNotFound
func (r *ClubRepository) Join(ctx context.Context, clubID, userID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		changed, err = joinClub(tx, clubID, userID)
		return err
	})
	return changed, err
}

func joinClub(tx *gorm.DB, clubID, userID uint64) (bool, error) {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "club_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.ClubMembership{ClubID: clubID, UserID: userID})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	upd := tx.Model(&model.Club{}).Where("id = ?", clubID).
		UpdateColumn("member_count", gorm.Expr("member_count + 1"))
	if upd.Error != nil {
		return false, upd.Error
	}
	if upd.RowsAffected != 1 {
		return false, gorm.ErrRecordNotFound
	}
	return true, insertOutbox(tx, model.EventClubJoined, clubID, userID, nil)
}

// Leave 幂等退出
func (r *ClubRepository) Leave(ctx context.Context, clubID, userID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("club_id = ? AND user_id = ?", clubID, userID).Delete(&model.ClubMembership{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		if err := tx.Model(&model.Club{}).Where("id = ?", clubID).
			UpdateColumn("member_count", gorm.Expr("GREATEST(0, member_count - 1)")).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventClubLeft, clubID, userID, nil)
	})
	return changed, err
}

// DeleteByID 级联删除成员关系，帖子软删除；幂等。返回被移除的成员，供调用方失效缓存
func (r *ClubRepository) DeleteByID(ctx context.Context, id uint64) ([]uint64, error) {
	var members []uint64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ClubMembership{}).Where("club_id = ?", id).
			Pluck("user_id", &members).Error; err != nil {
			return err
		}
		if err := tx.Where("club_id = ?", id).Delete(&model.ClubMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Post{}).Where("club_id = ?", id).
			Update("status", model.PostDeleted).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Club{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}
