package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ardabasoglu/verida-sub002/config"
	"github.com/ardabasoglu/verida-sub002/internal/dto"
	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/pkg/jwt"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BaseURL: "http://localhost:8080"},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 168 * time.Hour,
			LoginLinkTTL:    30 * time.Minute,
		},
	}
}

func setupTestAuthService() (AuthService, *mockUserRepo, *mockTokenRepo, *mockBlacklist, *mockMailSender) {
	cfg := testAuthConfig()
	repo, users, _, _, _, tokens := newTestRepository()
	blacklist := newMockBlacklist()
	mailer := &mockMailSender{enabled: true}

	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := NewAuthService(cfg, repo, jwtMgr, blacklist, mailer, zap.NewNop())
	return svc, users, tokens, blacklist, mailer
}

func createTestUser(users *mockUserRepo, id, email, password string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &model.User{
		UserID:       id,
		Name:         "测试用户",
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleMember,
		IsActive:     true,
	}
	users.users[id] = user
	users.users["email:"+email] = user
	return user
}

// ── Register ──

func TestRegister_FirstUserIsSystemAdmin(t *testing.T) {
	svc, _, _, _, _ := setupTestAuthService()

	result, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "第一个用户",
		Email:    "first@corp.test",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if result.User.Role != model.RoleSystemAdmin {
		t.Errorf("首个用户应为 system_admin，实际=%s", result.User.Role)
	}

	second, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "第二个用户",
		Email:    "second@corp.test",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("第二次 Register 应成功: %v", err)
	}
	if second.User.Role != model.RoleMember {
		t.Errorf("后续用户应为 member，实际=%s", second.User.Role)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, users, _, _, _ := setupTestAuthService()
	createTestUser(users, "user-1", "taken@corp.test", "password123")

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "重复用户",
		Email:    "taken@corp.test",
		Password: "password123",
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
}

// ── Login ──

func TestLogin_Success(t *testing.T) {
	svc, users, _, _, _ := setupTestAuthService()
	createTestUser(users, "user-1", "u1@corp.test", "password123")

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "u1@corp.test",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("Token 对不应为空")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", result.ExpiresIn)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, users, _, _, _ := setupTestAuthService()
	createTestUser(users, "user-1", "u1@corp.test", "password123")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "u1@corp.test",
		Password: "wrong_password",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _, _, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@corp.test",
		Password: "password123",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("未知邮箱与密码错误应返回同一错误，实际: %v", err)
	}
}

func TestLogin_DisabledUser(t *testing.T) {
	svc, users, _, _, _ := setupTestAuthService()
	u := createTestUser(users, "user-1", "u1@corp.test", "password123")
	u.IsActive = false

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "u1@corp.test",
		Password: "password123",
	})
	if !errors.Is(err, ErrUserDisabled) {
		t.Errorf("期望 ErrUserDisabled，实际: %v", err)
	}
}

// ── 免密登录 ──

func TestRequestLoginLink_SilentOnUnknownEmail(t *testing.T) {
	svc, _, tokens, _, mailer := setupTestAuthService()

	if err := svc.RequestLoginLink(context.Background(), "nobody@corp.test"); err != nil {
		t.Errorf("未知邮箱应静默成功: %v", err)
	}
	if len(tokens.tokens) != 0 {
		t.Error("未知邮箱不应生成令牌")
	}
	if len(mailer.sent) != 0 {
		t.Error("未知邮箱不应发送邮件")
	}
}

func TestLoginLink_FullFlow(t *testing.T) {
	svc, users, tokens, _, mailer := setupTestAuthService()
	createTestUser(users, "user-1", "u1@corp.test", "password123")

	if err := svc.RequestLoginLink(context.Background(), "u1@corp.test"); err != nil {
		t.Fatalf("RequestLoginLink 应成功: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("期望发送 1 封邮件，实际=%d", len(mailer.sent))
	}

	// 取出生成的令牌
	var raw string
	for token := range tokens.tokens {
		raw = token
	}
	if raw == "" {
		t.Fatal("应生成登录令牌")
	}

	result, err := svc.VerifyLoginToken(context.Background(), raw)
	if err != nil {
		t.Fatalf("VerifyLoginToken 应成功: %v", err)
	}
	if result.User.Email != "u1@corp.test" {
		t.Errorf("期望登录用户 u1@corp.test，实际=%s", result.User.Email)
	}

	// 令牌一次性：重复消费失败
	if _, err := svc.VerifyLoginToken(context.Background(), raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("已消费令牌期望 ErrInvalidToken，实际: %v", err)
	}
}

// 每次请求链接时顺带清理过期令牌，防止 verification_tokens 堆积
func TestRequestLoginLink_SweepsExpiredTokens(t *testing.T) {
	svc, users, tokens, _, _ := setupTestAuthService()
	createTestUser(users, "user-1", "u1@corp.test", "password123")

	tokens.tokens["stale-token"] = &model.VerificationToken{
		TokenID:    "token-stale",
		Identifier: "old@corp.test",
		Token:      "stale-token",
		ExpiresAt:  time.Now().Add(-time.Hour),
	}

	if err := svc.RequestLoginLink(context.Background(), "u1@corp.test"); err != nil {
		t.Fatalf("RequestLoginLink 应成功: %v", err)
	}

	if _, ok := tokens.tokens["stale-token"]; ok {
		t.Error("过期令牌应在请求时被清理")
	}
	// 清理后仅剩新生成的令牌
	if len(tokens.tokens) != 1 {
		t.Errorf("期望仅剩 1 个有效令牌，实际=%d", len(tokens.tokens))
	}
}

func TestVerifyLoginToken_Expired(t *testing.T) {
	svc, users, tokens, _, _ := setupTestAuthService()
	createTestUser(users, "user-1", "u1@corp.test", "password123")

	tokens.tokens["expired-token"] = &model.VerificationToken{
		TokenID:    "token-x",
		Identifier: "u1@corp.test",
		Token:      "expired-token",
		ExpiresAt:  time.Now().Add(-time.Minute),
	}

	_, err := svc.VerifyLoginToken(context.Background(), "expired-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("过期令牌期望 ErrInvalidToken，实际: %v", err)
	}
}

// ── Refresh ──

func TestRefresh_RotatesAndBlacklistsOld(t *testing.T) {
	svc, users, _, blacklist, _ := setupTestAuthService()
	createTestUser(users, "user-1", "u1@corp.test", "password123")

	login, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "u1@corp.test", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh 应成功: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("新 AccessToken 不应为空")
	}
	if len(blacklist.jtis) != 1 {
		t.Errorf("旧 Refresh Token 应被拉黑，黑名单大小=%d", len(blacklist.jtis))
	}

	// 旧 Refresh Token 轮换后不可再用
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("已轮换的 Refresh Token 期望 ErrInvalidToken，实际: %v", err)
	}
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc, users, _, _, _ := setupTestAuthService()
	createTestUser(users, "user-1", "u1@corp.test", "password123")

	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "u1@corp.test", Password: "password123"})

	_, err := svc.Refresh(context.Background(), login.AccessToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Access Token 不能用于刷新，期望 ErrInvalidToken，实际: %v", err)
	}
}

// ── Logout ──

func TestLogout_BlacklistsToken(t *testing.T) {
	svc, users, _, blacklist, _ := setupTestAuthService()
	createTestUser(users, "user-1", "u1@corp.test", "password123")

	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "u1@corp.test", Password: "password123"})

	if err := svc.Logout(context.Background(), login.AccessToken); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	if len(blacklist.jtis) != 1 {
		t.Errorf("登出后 Token 应被拉黑，黑名单大小=%d", len(blacklist.jtis))
	}
}

// ── ChangePassword ──

func TestChangePassword(t *testing.T) {
	svc, users, _, _, _ := setupTestAuthService()
	createTestUser(users, "user-1", "u1@corp.test", "old_password")

	// 原密码错误
	err := svc.ChangePassword(context.Background(), "user-1", &dto.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "new_password1",
	})
	if !errors.Is(err, ErrWrongPassword) {
		t.Errorf("期望 ErrWrongPassword，实际: %v", err)
	}

	// 修改成功后新密码可登录
	err = svc.ChangePassword(context.Background(), "user-1", &dto.ChangePasswordRequest{
		OldPassword: "old_password",
		NewPassword: "new_password1",
	})
	if err != nil {
		t.Fatalf("ChangePassword 应成功: %v", err)
	}
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "u1@corp.test", Password: "new_password1"}); err != nil {
		t.Errorf("新密码登录应成功: %v", err)
	}
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "u1@corp.test", Password: "old_password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("旧密码登录应失败，实际: %v", err)
	}
}
