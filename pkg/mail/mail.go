package mail

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/ardabasoglu/verida-sub002/config"
)

// Sender SMTP 邮件发送器
// 所有调用方按"尽力而为"处理：发送失败记日志，不影响主流程。
type Sender struct {
	cfg    *config.MailConfig
	logger *zap.Logger
}

// NewSender 创建邮件发送器
func NewSender(cfg *config.MailConfig, logger *zap.Logger) *Sender {
	return &Sender{cfg: cfg, logger: logger}
}

// Enabled 邮件通道是否已配置
func (s *Sender) Enabled() bool {
	return s.cfg.Enabled()
}

// Send 发送一封 HTML 邮件
func (s *Sender) Send(to, subject, body string) error {
	if !s.Enabled() {
		return fmt.Errorf("邮件通道未配置")
	}

	// UTF-8 + HTML 头
	msg := "MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		fmt.Sprintf("From: %s\r\n", s.cfg.From) +
		fmt.Sprintf("To: %s\r\n", to) +
		fmt.Sprintf("Subject: %s\r\n", subject) +
		"\r\n" + body

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}
