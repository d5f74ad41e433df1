package mysql

import (
	"context"
	"errors"

	"UFresher/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MentorshipRepository struct {
	DB *gorm.DB
}

// Request 幂等发起辅导请求：已存在 pending/active 时 changed=false；completed 的关系重新置为 pending
func (r *MentorshipRepository) Request(ctx context.Context, mentorID, menteeID uint64, topic string) (*model.Mentorship, bool, error) {
	var (
		rel     model.Mentorship
		changed bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// select for update 避免竞争
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("mentor_id = ? AND mentee_id = ?", mentorID, menteeID).
			First(&rel).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			rel = model.Mentorship{
				MentorID: mentorID,
				MenteeID: menteeID,
				Topic:    topic,
				Status:   model.MentorshipPending,
			}
			changed = true
			return tx.Create(&rel).Error
		}
		if rel.Status != model.MentorshipCompleted {
			return nil
		}
		if err = tx.Model(&rel).Updates(map[string]any{
			"status": model.MentorshipPending,
			"topic":  topic,
		}).Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	return &rel, changed, err
}

func (r *MentorshipRepository) FindByID(ctx context.Context, id uint64) (*model.Mentorship, error) {
	var m model.Mentorship
	err := r.DB.WithContext(ctx).First(&m, id).Error
	return &m, err
}

// Transition 条件更新状态，from 不匹配时返回 false
func (r *MentorshipRepository) Transition(ctx context.Context, id uint64, from, to string) (bool, error) {
	tx := r.DB.WithContext(ctx).Model(&model.Mentorship{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return tx.RowsAffected > 0, tx.Error
}

// ListByUser 用户作为导师或学员的全部关系
func (r *MentorshipRepository) ListByUser(ctx context.Context, userID uint64) ([]model.Mentorship, error) {
	var list []model.Mentorship
	err := r.DB.WithContext(ctx).
		Where("mentor_id = ? OR mentee_id = ?", userID, userID).
		Order("id DESC").
		Find(&list).Error
	return list, err
}
