package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ardabasoglu/verida-sub002/config"
	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/internal/repository"
	"github.com/ardabasoglu/verida-sub002/pkg/jwt"
)

// ── 认证模块业务错误 ──

var (
	ErrEmailExists        = errors.New("邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUserDisabled       = errors.New("账号已被停用")
	ErrInvalidToken       = errors.New("无效或已过期的令牌")
	ErrWrongPassword      = errors.New("原密码错误")
)

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// RequestLoginLink 发送免密登录链接；邮箱未注册时静默成功，不泄露注册状态
	RequestLoginLink(ctx context.Context, email string) error
	VerifyLoginToken(ctx context.Context, token string) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	mailer    MailSender
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	mailer MailSender,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		mailer:    mailer,
		logger:    logger,
	}
}

// ────────────────────── Register ──────────────────────

// Register 注册新用户。系统内首个用户自动成为 system_admin，其余默认 member。
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := model.RoleMember
	count, err := s.repo.User.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		role = model.RoleSystemAdmin
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户注册成功",
		zap.String("user_id", user.UserID),
		zap.String("role", user.Role))
	return s.issueTokens(user)
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	return s.issueTokens(user)
}

// ────────────────────── 免密登录 ──────────────────────

func (s *authService) RequestLoginLink(ctx context.Context, email string) error {
	user, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 静默返回，响应与成功路径不可区分
			s.logger.Info("免密登录请求的邮箱未注册", zap.String("email", email))
			return nil
		}
		return err
	}
	if !user.IsActive {
		s.logger.Info("免密登录请求的账号已停用", zap.String("user_id", user.UserID))
		return nil
	}

	// 顺带清理过期令牌，避免 verification_tokens 无限膨胀
	if n, err := s.repo.Token.DeleteExpired(ctx, time.Now()); err != nil {
		s.logger.Warn("清理过期登录令牌失败", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("已清理过期登录令牌", zap.Int64("count", n))
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	token := hex.EncodeToString(raw)

	vt := &model.VerificationToken{
		Identifier: email,
		Token:      token,
		ExpiresAt:  time.Now().Add(s.cfg.Auth.LoginLinkTTL),
	}
	if err := s.repo.Token.Create(ctx, vt); err != nil {
		s.logger.Error("保存登录令牌失败", zap.Error(err))
		return err
	}

	if s.mailer == nil || !s.mailer.Enabled() {
		s.logger.Warn("邮件通道未配置，免密登录链接无法送达", zap.String("email", email))
		return nil
	}

	link := fmt.Sprintf("%s/auth/verify?token=%s", s.cfg.Server.BaseURL, token)
	body := fmt.Sprintf(
		"<p>您好 %s，</p><p>点击以下链接登录内网门户（%s 内有效）：</p><p><a href=\"%s\">%s</a></p>",
		user.Name, s.cfg.Auth.LoginLinkTTL, link, link,
	)
	if err := s.mailer.Send(email, "内网门户登录链接", body); err != nil {
		s.logger.Error("发送登录链接失败", zap.String("email", email), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) VerifyLoginToken(ctx context.Context, token string) (*dto.TokenResponse, error) {
	vt, err := s.repo.Token.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	// 消费即删除，过期令牌同样作废
	if vt.Expired(time.Now()) {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.User.GetByEmail(ctx, vt.Identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	return s.issueTokens(user)
}

// ────────────────────── Refresh ──────────────────────

// Refresh 用 Refresh Token 换取新 Token 对；旧 Refresh Token 立即拉黑（轮换）
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != "refresh" {
		return nil, ErrInvalidToken
	}

	if blacklisted, err := s.isBlacklisted(ctx, claims.ID); err != nil {
		return nil, err
	} else if blacklisted {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	s.blacklistClaims(ctx, claims)
	return s.issueTokens(user)
}

// ────────────────────── Logout ──────────────────────

// Logout 将当前 Access Token 拉黑至自然过期
func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtMgr.ParseToken(accessToken)
	if err != nil {
		// 已过期/无效的 Token 视为已登出
		return nil
	}
	s.blacklistClaims(ctx, claims)
	return nil
}

// ────────────────────── GetCurrentUser / ChangePassword ──────────────────────

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hash)
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新密码失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.logger.Info("密码已修改", zap.String("user_id", userID))
	return nil
}

// ── 内部辅助方法 ──

func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         *toUserResponse(user),
	}, nil
}

func (s *authService) isBlacklisted(ctx context.Context, jti string) (bool, error) {
	if s.blacklist == nil {
		return false, nil
	}
	return s.blacklist.IsBlacklisted(ctx, jti)
}

// blacklistClaims 按剩余有效期拉黑 jti；Redis 不可用时仅记日志
func (s *authService) blacklistClaims(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil {
		s.logger.Warn("黑名单存储不可用，Token 将在自然过期前保持有效")
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("拉黑 Token 失败", zap.String("jti", claims.ID), zap.Error(err))
	}
}
