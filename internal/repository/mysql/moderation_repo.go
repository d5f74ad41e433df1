package mysql

import (
	"context"
	"time"

	"UFresher/internal/model"

	"gorm.io/gorm"
)

type ModerationRepository struct {
	DB *gorm.DB
}

// Create 写入审核记录并同事务写 outbox
func (r *ModerationRepository) Create(ctx context.Context, log *model.ModerationLog) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(log).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventContentFlagged, log.ID, log.AuthorID, map[string]any{
			"content_type": log.ContentType,
			"content_id":   log.ContentID,
			"reason":       log.Reason,
		})
	})
}

func (r *ModerationRepository) FindByID(ctx context.Context, id uint64) (*model.ModerationLog, error) {
	var log model.ModerationLog
	err := r.DB.WithContext(ctx).First(&log, id).Error
	return &log, err
}

// List status 为空时返回全部，最新的在前
func (r *ModerationRepository) List(ctx context.Context, status string, offset, limit int) ([]model.ModerationLog, error) {
	q := r.DB.WithContext(ctx)
	if status != "" {
		q = q.Where("moderator_action = ?", status)
	}
	var list []model.ModerationLog
	err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

// Review 只允许 pending -> approved/rejected，返回是否发生状态变化
func (r *ModerationRepository) Review(ctx context.Context, id uint64, action string, moderatorID uint64) (bool, error) {
	now := time.Now()
	tx := r.DB.WithContext(ctx).Model(&model.ModerationLog{}).
		Where("id = ? AND moderator_action = ?", id, model.ModerationPending).
		Updates(map[string]any{
			"moderator_action": action,
			"moderator_id":     moderatorID,
			"reviewed_at":      now,
		})
	return tx.RowsAffected > 0, tx.Error
}
