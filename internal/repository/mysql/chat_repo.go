package mysql

import (
	"context"

	"UFresher/internal/model"

	"gorm.io/gorm"
)

type ChatRepository struct {
	DB *gorm.DB
}

func (r *ChatRepository) Create(ctx context.Context, msg *model.ChatMessage) error {
	return r.DB.WithContext(ctx).Create(msg).Error
}

// ListByRoom beforeID=0 取最新一页，结果按 id 升序返回便于直接展示
func (r *ChatRepository) ListByRoom(ctx context.Context, roomID string, beforeID uint64, limit int) ([]model.ChatMessage, error) {
	q := r.DB.WithContext(ctx).Where("room_id = ?", roomID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var list []model.ChatMessage
	if err := q.Order("id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

func (r *ChatRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Delete(&model.ChatMessage{}, id).Error
}
