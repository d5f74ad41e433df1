package model

import "time"

const (
	RoleJunior = "junior"
	RoleSenior = "senior"
	RoleMentor = "mentor"
	RoleAdmin  = "admin"
)

type User struct {
	ID                     uint64    `gorm:"primaryKey" json:"id"`
	Username               string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	Name                   string    `gorm:"size:64;not null" json:"name"`
	Password               string    `gorm:"size:255;not null" json:"-"`
	Role                   string    `gorm:"size:16;not null;default:junior;index" json:"role"`
	Email                  string    `gorm:"uniqueIndex;size:64;not null" json:"email"`
	ProfilePic             string    `gorm:"size:255" json:"profile_pic"`
	College                string    `gorm:"size:128" json:"college"`
	Stream                 string    `gorm:"size:64" json:"stream"`
	AvailableForMentorship bool      `gorm:"not null;default:false" json:"available_for_mentorship"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func IsValidRole(role string) bool {
	switch role {
	case RoleJunior, RoleSenior, RoleMentor, RoleAdmin:
		return true
	}
	return false
}

// Session 登录态快照，token 为当前有效的 access token
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user"`
}
