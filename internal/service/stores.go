package service

import (
	"context"
	"time"

	"UFresher/internal/model"
	"UFresher/internal/repository/mysql"
)

// 以下接口由 repository/mysql 与 repository/redis 实现，测试中用内存 fake 替换

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID uint64, hash string) error
	UpdateProfile(ctx context.Context, userID uint64, fields map[string]any) error
	ListMentors(ctx context.Context) ([]model.User, error)
}

type TokenStore interface {
	AddUserToken(ctx context.Context, userID uint64, token string) error
	GetUserToken(ctx context.Context, userID uint64) (string, error)
	ExtendUserToken(ctx context.Context, userID uint64) error
	TokenExpiry(ctx context.Context, userID uint64) (time.Duration, error)
	DeleteUserToken(ctx context.Context, userID uint64) error
	SetRefreshID(ctx context.Context, userID uint64, jti string, ttl time.Duration) error
	RotateRefreshID(ctx context.Context, userID uint64, oldJTI, newJTI string, ttl time.Duration) (bool, error)
}

type CodeStore interface {
	SavePending(ctx context.Context, scope, email, code string) error
	Confirm(ctx context.Context, scope, email string) error
	DeletePending(ctx context.Context, scope, email string) error
	GetConfirmed(ctx context.Context, scope, email string) (string, error)
	DeleteConfirmed(ctx context.Context, scope, email string) error
}

type MailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type CommunityStore interface {
	Create(ctx context.Context, c *model.Community) error
	FindByID(ctx context.Context, id uint64) (*model.Community, error)
	List(ctx context.Context) ([]model.Community, error)
	DeleteByID(ctx context.Context, id uint64) ([]uint64, error)
}

type CommunityMemberStore interface {
	Join(ctx context.Context, communityID, userID uint64) (bool, error)
	Leave(ctx context.Context, communityID, userID uint64) (bool, error)
	IsMember(ctx context.Context, communityID, userID uint64) (bool, error)
	FindCommunityByUser(ctx context.Context, userID uint64) (*model.Community, error)
}

type ClubStore interface {
	Create(ctx context.Context, club *model.Club) error
	FindByID(ctx context.Context, id uint64) (*model.Club, error)
	List(ctx context.Context, communityID uint64) ([]model.Club, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Club, error)
	MemberClubIDs(ctx context.Context, userID uint64, clubIDs []uint64) (map[uint64]bool, error)
	IsMember(ctx context.Context, clubID, userID uint64) (bool, error)
	Join(ctx context.Context, clubID, userID uint64) (bool, error)
	Leave(ctx context.Context, clubID, userID uint64) (bool, error)
	DeleteByID(ctx context.Context, id uint64) ([]uint64, error)
}

type PostStore interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id uint64) (*model.Post, error)
	ListByClubCursor(ctx context.Context, clubID, lastID uint64, lastCreatedAt int64, limit int) ([]model.Post, error)
	SetStatus(ctx context.Context, id uint64, status int) error
	DeleteWithPermission(ctx context.Context, postID, operatorID uint64, isAdmin bool) (int64, error)
}

type ChatStore interface {
	Create(ctx context.Context, msg *model.ChatMessage) error
	ListByRoom(ctx context.Context, roomID string, beforeID uint64, limit int) ([]model.ChatMessage, error)
	Delete(ctx context.Context, id uint64) error
}

type ModerationStore interface {
	Create(ctx context.Context, log *model.ModerationLog) error
	FindByID(ctx context.Context, id uint64) (*model.ModerationLog, error)
	List(ctx context.Context, status string, offset, limit int) ([]model.ModerationLog, error)
	Review(ctx context.Context, id uint64, action string, moderatorID uint64) (bool, error)
}

type SettingsStore interface {
	ModerationEnabled(ctx context.Context) (bool, bool, error)
	SetModerationEnabled(ctx context.Context, enabled bool) error
}

type MentorshipStore interface {
	Request(ctx context.Context, mentorID, menteeID uint64, topic string) (*model.Mentorship, bool, error)
	FindByID(ctx context.Context, id uint64) (*model.Mentorship, error)
	Transition(ctx context.Context, id uint64, from, to string) (bool, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Mentorship, error)
}

type StatsStore interface {
	UserStats(ctx context.Context, userID uint64) (*mysql.UserStats, error)
	AdminStats(ctx context.Context) (*mysql.AdminStats, error)
}

type StatsCacheStore interface {
	Get(ctx context.Context, userID uint64, dst any) (bool, error)
	Set(ctx context.Context, userID uint64, v any) error
	Invalidate(ctx context.Context, userID uint64) error
}

type OutboxStore interface {
	ListPending(ctx context.Context, batchSize int) ([]model.EventOutbox, error)
	MarkFailed(ctx context.Context, id uint64) error
	MarkSent(ctx context.Context, id uint64) error
	RequeueFailed(ctx context.Context, maxRetry int) (int64, error)
}

type MemberCountStore interface {
	ListCommunities(ctx context.Context, lastID uint64, batchSize int) ([]mysql.CountPair, error)
	ListClubs(ctx context.Context, lastID uint64, batchSize int) ([]mysql.CountPair, error)
	RealCommunityMembers(ctx context.Context, communityID uint64) (int64, error)
	RealClubMembers(ctx context.Context, clubID uint64) (int64, error)
	FixCommunity(ctx context.Context, id uint64, n int64) error
	FixClub(ctx context.Context, id uint64, n int64) error
}
