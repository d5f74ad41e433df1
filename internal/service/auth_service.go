package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"UFresher/internal/apperror"
	"UFresher/internal/model"
	"UFresher/internal/pkg"
	"UFresher/internal/repository/mysql"
	"UFresher/internal/repository/redis"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// 认证状态变化事件
const (
	EventSignedIn       = "SIGNED_IN"
	EventSignedOut      = "SIGNED_OUT"
	EventTokenRefreshed = "TOKEN_REFRESHED"
)

// AuthTopic 用户认证事件的订阅主题
func AuthTopic(userID uint64) string {
	return "auth:" + strconv.FormatUint(userID, 10)
}

type AuthService struct {
	users         UserStore
	tokens        TokenStore
	email         *EmailService
	jwt           *pkg.JWT
	hub           *Hub
	defaultAvatar string
}

func NewAuthService(users UserStore, tokens TokenStore, email *EmailService, jwt *pkg.JWT, hub *Hub, defaultAvatar string) *AuthService {
	return &AuthService{
		users:         users,
		tokens:        tokens,
		email:         email,
		jwt:           jwt,
		hub:           hub,
		defaultAvatar: defaultAvatar,
	}
}

type RegisterInput struct {
	Username string
	Password string
	Email    string
	Code     string
	Name     string
	College  string
	Stream   string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.email.VerifyCode(ctx, redis.ScopeRegister, email, in.Code); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	user := &model.User{
		Username:   in.Username,
		Name:       name,
		Password:   string(hash),
		Email:      email,
		Role:       model.RoleJunior,
		ProfilePic: s.avatarFor(in.Username),
		College:    in.College,
		Stream:     in.Stream,
	}
	if err = s.users.Create(ctx, user); err != nil {
		if mysql.IsDuplicate(err) {
			return nil, apperror.Conflict("username or email already registered")
		}
		return nil, err
	}
	s.email.ConsumeCode(ctx, redis.ScopeRegister, email)
	return user, nil
}

// avatarFor 以用户名作为头像种子，邮箱不出现在第三方 URL 里
func (s *AuthService) avatarFor(seed string) string {
	if s.defaultAvatar == "" {
		return ""
	}
	if strings.Contains(s.defaultAvatar, "%s") {
		return fmt.Sprintf(s.defaultAvatar, url.QueryEscape(seed))
	}
	return s.defaultAvatar
}

// Login 支持用户名或邮箱登录，新 token 会覆盖其它设备上的旧 token
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.Session, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if mysql.IsNotFound(err) {
			return nil, apperror.Unauthorized("invalid username or password")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperror.Unauthorized("invalid username or password")
	}

	pair, err := s.jwt.GeneratePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	// 覆盖 refresh jti，其它设备上的 refresh token 随之失效
	if err = s.tokens.SetRefreshID(ctx, user.ID, pair.RefreshID, s.jwt.RefreshTTL()); err != nil {
		return nil, err
	}
	sess, err := s.issue(ctx, user, pair)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(ctx, AuthTopic(user.ID), EventSignedIn, broadcastSession(sess))
	zap.L().Info("user signed in", zap.Uint64("user_id", user.ID))
	return sess, nil
}

// issue 保存 access token 并组装会话，refresh jti 由调用方先行登记
func (s *AuthService) issue(ctx context.Context, user *model.User, pair *pkg.Pair) (*model.Session, error) {
	if err := s.tokens.AddUserToken(ctx, user.ID, pair.AccessToken); err != nil {
		return nil, err
	}
	return &model.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         user,
	}, nil
}

// broadcastSession 推送给其它连接的登录态不带 token
func broadcastSession(sess *model.Session) *model.Session {
	return &model.Session{ExpiresAt: sess.ExpiresAt, User: sess.User}
}

func (s *AuthService) Logout(ctx context.Context, userID uint64) error {
	if err := s.tokens.DeleteUserToken(ctx, userID); err != nil {
		return err
	}
	s.hub.Publish(ctx, AuthTopic(userID), EventSignedOut, nil)
	return nil
}

// Refresh 用 refresh token 换新的一对 token。每个 refresh token 只能用一次，
// 登出、改密或在别处登录后旧的 refresh token 都会被拒绝
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.Session, error) {
	claims, err := s.jwt.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized(err.Error())
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if mysql.IsNotFound(err) {
			return nil, apperror.Unauthorized("user no longer exists")
		}
		return nil, err
	}
	pair, err := s.jwt.GeneratePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	rotated, err := s.tokens.RotateRefreshID(ctx, user.ID, claims.ID, pair.RefreshID, s.jwt.RefreshTTL())
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, apperror.Unauthorized("refresh token revoked, please sign in again")
	}
	sess, err := s.issue(ctx, user, pair)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(ctx, AuthTopic(user.ID), EventTokenRefreshed, broadcastSession(sess))
	return sess, nil
}

// GetSession 当前登录态，token 为本次请求使用的 access token
func (s *AuthService) GetSession(ctx context.Context, userID uint64, token string) (*model.Session, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	ttl, err := s.tokens.TokenExpiry(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.Session{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(ttl),
		User:        user,
	}, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.email.VerifyCode(ctx, redis.ScopeReset, email, code); err != nil {
		return err
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return notFoundOr(err, "user", email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err = s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	s.email.ConsumeCode(ctx, redis.ScopeReset, email)
	// 重置后旧会话全部失效
	return s.Logout(ctx, user.ID)
}

// ChangePassword 登录态修改密码，成功后需要重新登录
func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, "user", userID)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return apperror.ValidationFailed("old_password", "old password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err = s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}
	return s.Logout(ctx, userID)
}

// Authenticate 供中间件使用：校验 access token 并确认它是该用户当前唯一有效的 token
func (s *AuthService) Authenticate(ctx context.Context, token string) (*pkg.Claims, error) {
	claims, err := s.jwt.ParseAccess(token)
	if err != nil {
		if errors.Is(err, pkg.ErrTokenExpired) {
			return nil, apperror.Unauthorized("token expired")
		}
		return nil, apperror.Unauthorized("invalid token")
	}
	stored, err := s.tokens.GetUserToken(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, redis.ErrTokenNotFound) {
			return nil, apperror.Unauthorized("session expired, please sign in again")
		}
		return nil, err
	}
	if stored != token {
		return nil, apperror.Unauthorized("signed in elsewhere")
	}
	if err = s.tokens.ExtendUserToken(ctx, claims.UserID); err != nil {
		zap.L().Warn("extend token failed", zap.Uint64("user_id", claims.UserID), zap.Error(err))
	}
	return claims, nil
}

// Subscribe 订阅某个用户的认证事件
func (s *AuthService) Subscribe(userID uint64) (<-chan Event, func()) {
	return s.hub.Subscribe(AuthTopic(userID))
}
