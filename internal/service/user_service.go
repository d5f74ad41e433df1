package service

import (
	"context"
	"strings"

	"UFresher/internal/apperror"
	"UFresher/internal/model"
)

type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetProfile(ctx context.Context, userID uint64) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	return u, nil
}

// ProfileUpdate nil 字段表示不修改
type ProfileUpdate struct {
	Name                   *string
	College                *string
	Stream                 *string
	ProfilePic             *string
	AvailableForMentorship *bool
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint64, in ProfileUpdate) (*model.User, error) {
	fields := make(map[string]any)
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "name cannot be empty")
		}
		fields["name"] = name
	}
	if in.College != nil {
		fields["college"] = strings.TrimSpace(*in.College)
	}
	if in.Stream != nil {
		fields["stream"] = strings.TrimSpace(*in.Stream)
	}
	if in.ProfilePic != nil {
		fields["profile_pic"] = strings.TrimSpace(*in.ProfilePic)
	}
	if in.AvailableForMentorship != nil {
		fields["available_for_mentorship"] = *in.AvailableForMentorship
	}
	if len(fields) > 0 {
		if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.GetProfile(ctx, userID)
}
