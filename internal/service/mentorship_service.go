package service

import (
	"context"
	"strings"

	"UFresher/internal/apperror"
	"UFresher/internal/model"

	"go.uber.org/zap"
)

type MentorshipService struct {
	repo  MentorshipStore
	users UserStore
	stats StatsCacheStore
}

func NewMentorshipService(repo MentorshipStore, users UserStore, stats StatsCacheStore) *MentorshipService {
	return &MentorshipService{repo: repo, users: users, stats: stats}
}

// ListMentors 角色为 mentor 且开放辅导的用户
func (s *MentorshipService) ListMentors(ctx context.Context) ([]model.User, error) {
	return s.users.ListMentors(ctx)
}

func (s *MentorshipService) List(ctx context.Context, userID uint64) ([]model.Mentorship, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Request 已有 pending/active 关系时幂等返回原关系
func (s *MentorshipService) Request(ctx context.Context, menteeID, mentorID uint64, topic string) (*model.Mentorship, bool, error) {
	if mentorID == 0 {
		return nil, false, apperror.ValidationFailed("mentor_id", "mentor required")
	}
	if mentorID == menteeID {
		return nil, false, apperror.ValidationFailed("mentor_id", "cannot request mentorship from yourself")
	}
	mentor, err := s.users.FindByID(ctx, mentorID)
	if err != nil {
		return nil, false, notFoundOr(err, "mentor", mentorID)
	}
	if mentor.Role != model.RoleMentor || !mentor.AvailableForMentorship {
		return nil, false, apperror.ValidationFailed("mentor_id", "user is not available for mentorship")
	}
	rel, changed, err := s.repo.Request(ctx, mentorID, menteeID, strings.TrimSpace(topic))
	if err != nil {
		return nil, false, err
	}
	if changed {
		zap.L().Info("mentorship requested", zap.Uint64("mentor_id", mentorID), zap.Uint64("mentee_id", menteeID))
	}
	return rel, changed, nil
}

// Accept 只有导师本人可以接受 pending 请求
func (s *MentorshipService) Accept(ctx context.Context, mentorID, id uint64) (*model.Mentorship, error) {
	rel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "mentorship", id)
	}
	if rel.MentorID != mentorID {
		return nil, apperror.Forbidden("only the mentor can accept this request")
	}
	return s.transition(ctx, rel, model.MentorshipPending, model.MentorshipActive)
}

// Complete 双方任一方都可以结束进行中的辅导
func (s *MentorshipService) Complete(ctx context.Context, userID, id uint64) (*model.Mentorship, error) {
	rel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "mentorship", id)
	}
	if rel.MentorID != userID && rel.MenteeID != userID {
		return nil, apperror.Forbidden("not part of this mentorship")
	}
	return s.transition(ctx, rel, model.MentorshipActive, model.MentorshipCompleted)
}

func (s *MentorshipService) transition(ctx context.Context, rel *model.Mentorship, from, to string) (*model.Mentorship, error) {
	ok, err := s.repo.Transition(ctx, rel.ID, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Conflict("mentorship is not " + from)
	}
	rel.Status = to
	// active 连接数变化，两边的统计缓存都要失效
	if s.stats != nil {
		_ = s.stats.Invalidate(ctx, rel.MentorID)
		_ = s.stats.Invalidate(ctx, rel.MenteeID)
	}
	return rel, nil
}
