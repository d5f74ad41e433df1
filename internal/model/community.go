package model

import "time"

type Community struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CollegeName string    `gorm:"size:128;not null;index" json:"college_name"`
	CreatorID   uint64    `gorm:"not null;index" json:"created_by"`
	MemberCount int64     `gorm:"not null;default:0" json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CommunityMember 一个用户只能加入一个社区，由 user_id 唯一索引保证
type CommunityMember struct {
	ID          uint64 `gorm:"primaryKey"`
	CommunityID uint64 `gorm:"not null;index"`
	UserID      uint64 `gorm:"not null;uniqueIndex:uk_member_user"`
	Role        int    `gorm:"not null;default:0"` // 0=member, 1=admin
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
