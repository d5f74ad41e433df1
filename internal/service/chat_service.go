package service

import (
	"context"
	"strings"

	"UFresher/internal/apperror"
	"UFresher/internal/model"

	"go.uber.org/zap"
)

const (
	EventChatMessage   = "message"
	maxChatPageSize    = 100
	maxChatMessageSize = 2000
)

func ChatTopic(room string) string {
	return "chat:" + room
}

type ChatService struct {
	repo       ChatStore
	clubs      *ClubService
	moderation *ModerationService
	hub        *Hub
}

func NewChatService(repo ChatStore, clubs *ClubService, moderation *ModerationService, hub *Hub) *ChatService {
	return &ChatService{repo: repo, clubs: clubs, moderation: moderation, hub: hub}
}

// authorize 房间必须是 club-<id> 且调用者是该俱乐部成员
func (s *ChatService) authorize(ctx context.Context, userID uint64, room string) error {
	clubID, ok := model.ParseChatRoomID(room)
	if !ok {
		return apperror.ValidationFailed("room", "invalid chat room: "+room)
	}
	if _, err := s.clubs.Get(ctx, clubID); err != nil {
		return err
	}
	member, err := s.clubs.IsMember(ctx, clubID, userID)
	if err != nil {
		return err
	}
	if !member {
		return apperror.Forbidden("join the club to use its chat")
	}
	return nil
}

// List 按时间正序返回 beforeID 之前的一页消息
func (s *ChatService) List(ctx context.Context, userID uint64, room string, beforeID uint64, limit int) ([]model.ChatMessage, error) {
	if err := s.authorize(ctx, userID, room); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxChatPageSize {
		limit = 50
	}
	return s.repo.ListByRoom(ctx, room, beforeID, limit)
}

// Send 命中关键词的消息仍然保存，但标记 flagged 并进入审核队列
func (s *ChatService) Send(ctx context.Context, userID uint64, room, content string) (*model.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "message cannot be empty")
	}
	if len(content) > maxChatMessageSize {
		return nil, apperror.ValidationFailed("content", "message too long")
	}
	if err := s.authorize(ctx, userID, room); err != nil {
		return nil, err
	}

	flagged, reason := s.moderation.Screen(ctx, content)
	msg := &model.ChatMessage{
		RoomID:  room,
		UserID:  userID,
		Content: content,
		Flagged: flagged,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}
	if flagged {
		if err := s.moderation.Flag(ctx, model.ContentMessage, msg.ID, userID, content, reason); err != nil {
			zap.L().Error("flag chat message failed", zap.Uint64("message_id", msg.ID), zap.Error(err))
		}
	}
	s.hub.Publish(ctx, ChatTopic(room), EventChatMessage, msg)
	return msg, nil
}

// Subscribe 校验权限后订阅房间的新消息
func (s *ChatService) Subscribe(ctx context.Context, userID uint64, room string) (<-chan Event, func(), error) {
	if err := s.authorize(ctx, userID, room); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.Subscribe(ChatTopic(room))
	return ch, cancel, nil
}
