package mysql

import (
	"context"
	"encoding/json"
	"time"

	"UFresher/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// insertOutbox 在调用方事务内写入事件
func insertOutbox(tx *gorm.DB, event string, aggregateID, userID uint64, extra map[string]any) error {
	body := map[string]any{
		"event":        event,
		"event_time":   time.Now().UTC().Format(time.RFC3339Nano),
		"aggregate_id": aggregateID,
		"user_id":      userID,
	}
	for k, v := range extra {
		body[k] = v
	}
	payload, _ := json.Marshal(body)
	return tx.Create(&model.EventOutbox{
		EventType:   event,
		AggregateID: aggregateID,
		UserID:      userID,
		Payload:     string(payload),
		Status:      model.OutboxPending,
	}).Error
}

// ListPending 按 id 顺序取待投递事件
func (r *OutboxRepository) ListPending(ctx context.Context, batchSize int) ([]model.EventOutbox, error) {
	var list []model.EventOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ?", model.OutboxPending).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// MarkFailed 投递失败，retry+1
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.EventOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

// MarkSent 投递成功
func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.EventOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}

// RequeueFailed 把重试次数未超限的失败事件放回 pending
func (r *OutboxRepository) RequeueFailed(ctx context.Context, maxRetry int) (int64, error) {
	tx := r.DB.WithContext(ctx).Model(&model.EventOutbox{}).
		Where("status = ? AND retry < ?", model.OutboxFailed, maxRetry).
		Update("status", model.OutboxPending)
	return tx.RowsAffected, tx.Error
}
