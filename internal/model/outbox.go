package model

import "time"

const (
	EventCommunityJoined = "community_joined"
	EventCommunityLeft   = "community_left"
	EventClubJoined      = "club_joined"
	EventClubLeft        = "club_left"
	EventContentFlagged  = "content_flagged"

	OutboxPending = 0
	OutboxSent    = 1
	OutboxFailed  = 2
)

// EventOutbox 与业务写入同事务落库，由 relayer 异步投递到 kafka
type EventOutbox struct {
	ID          uint64 `gorm:"primaryKey"`
	EventType   string `gorm:"size:32;not null"`
	AggregateID uint64 `gorm:"not null"`
	UserID      uint64 `gorm:"not null"`
	Payload     string `gorm:"type:json;not null"`
	Status      int8   `gorm:"not null;default:0;index;comment:'0=pending,1=sent,2=failed'"`
	Retry       int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (EventOutbox) TableName() string { return "event_outbox" }
