package service

import (
	"context"
	"strings"

	"UFresher/internal/apperror"
	"UFresher/internal/pkg"
	"UFresher/internal/repository/redis"

	"go.uber.org/zap"
)

var emailSubjects = map[string]string{
	redis.ScopeRegister: "UFresher sign-up code",
	redis.ScopeReset:    "UFresher password reset code",
}

type EmailService struct {
	codes  CodeStore
	mailer MailSender
}

func NewEmailService(codes CodeStore, mailer MailSender) *EmailService {
	return &EmailService{codes: codes, mailer: mailer}
}

// SendCode 先写 pending，邮件发出后转为 confirmed，发送失败不会留下可用的验证码
func (s *EmailService) SendCode(ctx context.Context, scope, email string) error {
	subject, ok := emailSubjects[scope]
	if !ok {
		return apperror.ValidationFailed("scope", "unknown code scope: "+scope)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}

	code, err := pkg.NewEmailCode()
	if err != nil {
		return err
	}
	if err = s.codes.SavePending(ctx, scope, email, code); err != nil {
		return err
	}

	html := pkg.EmailCodeHTML(scope, code, redis.DefaultEmailCodeTTL)
	if err = s.mailer.Send(ctx, email, subject, html); err != nil {
		_ = s.codes.DeletePending(ctx, scope, email)
		zap.L().Warn("send code mail failed", zap.String("scope", scope), zap.Error(err))
		return err
	}

	if err = s.codes.Confirm(ctx, scope, email); err != nil {
		_ = s.codes.DeletePending(ctx, scope, email)
		return err
	}
	return nil
}

// VerifyCode 只校验不消费，调用方在业务写入成功后再调用 ConsumeCode
func (s *EmailService) VerifyCode(ctx context.Context, scope, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	val, err := s.codes.GetConfirmed(ctx, scope, email)
	if err != nil || code == "" || val != code {
		return apperror.ValidationFailed("code", "invalid or expired verification code")
	}
	return nil
}

// ConsumeCode 作废验证码，失败只记日志，验证码仍会随 TTL 过期
func (s *EmailService) ConsumeCode(ctx context.Context, scope, email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.codes.DeleteConfirmed(ctx, scope, email); err != nil {
		zap.L().Warn("consume code failed", zap.String("scope", scope), zap.Error(err))
	}
}
