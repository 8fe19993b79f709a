package model

import "time"

// VerificationToken 免密登录验证令牌表 — 对应 verification_tokens
// 一次性消费，到期失效。
type VerificationToken struct {
	TokenID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"token_id"`
	Identifier string    `gorm:"type:varchar(255);not null;index"               json:"identifier"` // 邮箱
	Token      string    `gorm:"type:varchar(255);not null;uniqueIndex"         json:"-"`
	ExpiresAt  time.Time `gorm:"not null"                                       json:"expires_at"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (VerificationToken) TableName() string { return "verification_tokens" }

// Expired 判断令牌是否已过期
func (t *VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
