package model

import (
	"strconv"
	"strings"
	"time"
)

type Club struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:64;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CommunityID uint64    `gorm:"not null;index" json:"community_id"`
	ClubHead    uint64    `gorm:"index" json:"club_head"`
	CreatedBy   uint64    `gorm:"not null" json:"created_by"`
	MemberCount int64     `gorm:"not null;default:0" json:"member_count"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Community *CommunitySummary `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	IsMember  bool              `gorm:"-" json:"is_member"`
}

// CommunitySummary 列表里只带出社区名称与学校
type CommunitySummary struct {
	ID          uint64 `json:"-"`
	Name        string `json:"name"`
	CollegeName string `json:"college_name"`
}

func (CommunitySummary) TableName() string { return "communities" }

type ClubMembership struct {
	ID        uint64 `gorm:"primaryKey"`
	ClubID    uint64 `gorm:"not null;uniqueIndex:uk_club_user"`
	UserID    uint64 `gorm:"not null;uniqueIndex:uk_club_user;index"`
	CreatedAt time.Time
}

// ChatRoomID 俱乐部聊天室 id
func ChatRoomID(clubID uint64) string {
	return "club-" + strconv.FormatUint(clubID, 10)
}

// ParseChatRoomID 解析 club-<id>，格式不对返回 false
func ParseChatRoomID(room string) (uint64, bool) {
	rest, ok := strings.CutPrefix(room, "club-")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
