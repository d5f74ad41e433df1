package model

import "time"

const (
	ModerationPending  = "pending"
	ModerationApproved = "approved"
	ModerationRejected = "rejected"

	ContentMessage = "message"
	ContentPost    = "post"
)

type ModerationLog struct {
	ID              uint64     `gorm:"primaryKey" json:"id"`
	ContentType     string     `gorm:"size:16;not null" json:"content_type"`
	ContentID       uint64     `gorm:"not null" json:"content_id"`
	Content         string     `gorm:"type:text" json:"content"`
	AuthorID        uint64     `gorm:"not null;index" json:"author_id"`
	Reason          string     `gorm:"size:255" json:"reason"`
	ModeratorAction string     `gorm:"size:16;not null;default:pending;index" json:"moderator_action"`
	ModeratorID     *uint64    `json:"moderator_id,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
