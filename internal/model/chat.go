package model

import "time"

type ChatMessage struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	RoomID    string    `gorm:"size:64;not null;index:idx_room_id,priority:1" json:"room_id"`
	UserID    uint64    `gorm:"not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Flagged   bool      `gorm:"not null;default:false" json:"flagged"`
	CreatedAt time.Time `json:"created_at"`
}
