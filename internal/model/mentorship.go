package model

import "time"

const (
	MentorshipPending   = "pending"
	MentorshipActive    = "active"
	MentorshipCompleted = "completed"
)

type Mentorship struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	MentorID  uint64    `gorm:"not null;index;uniqueIndex:uk_mentor_mentee" json:"mentor_id"`
	MenteeID  uint64    `gorm:"not null;index;uniqueIndex:uk_mentor_mentee" json:"mentee_id"`
	Topic     string    `gorm:"size:128" json:"topic"`
	Status    string    `gorm:"size:16;not null;default:pending" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
