package mysql

import (
	"context"
	"time"

	"UFresher/internal/model"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Create(post).Error
}

func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).First(&post, "id = ? AND status = ?", id, model.PostNormal).Error
	return &post, err
}

// ListByClubCursor 基于时间游标的查询：索引 (club_id, created_at DESC, id DESC)
// lastCreatedAt=0 表示第一页；否则用 (created_at, id) 作为严格游标
func (r *PostRepository) ListByClubCursor(ctx context.Context, clubID, lastID uint64, lastCreatedAt int64, limit int) ([]model.Post, error) {
	var list []model.Post
	q := r.DB.WithContext(ctx).Where("club_id = ? AND status = ?", clubID, model.PostNormal)
	if lastCreatedAt > 0 {
		// 先比时间，再在同一时间点用 id 打破并列；游标为毫秒时间戳
		ts := time.UnixMilli(lastCreatedAt)
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", ts, ts, lastID)
	}
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}

// SetStatus 审核驳回时把帖子置为 banned
func (r *PostRepository) SetStatus(ctx context.Context, id uint64, status int) error {
	return r.DB.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Update("status", status).Error
}

// DeleteWithPermission 作者、俱乐部负责人或管理员方可删除；幂等（已删除也不报错）
func (r *PostRepository) DeleteWithPermission(ctx context.Context, postID, operatorID uint64, isAdmin bool) (affected int64, err error) {
	tx := r.DB.WithContext(ctx).Exec(`
		UPDATE posts p
		JOIN clubs c ON c.id = p.club_id
		SET p.status = ?
		WHERE p.id = ? AND p.status = ?
		  AND (p.author_id = ? OR c.club_head = ? OR ?)`,
		model.PostDeleted, postID, model.PostNormal, operatorID, operatorID, isAdmin,
	)
	return tx.RowsAffected, tx.Error
}
