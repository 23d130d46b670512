package mail

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// maxAttempts 发送重试预算
const maxAttempts = 3

// Sender 邮件发送器：SMTP发送HTML邮件，带退避重试
type Sender struct {
	host   string
	port   int
	from   string
	logger *zap.SugaredLogger

	// 可注入以便测试
	send  func(m *gomail.Message) error
	sleep func(d time.Duration)
}

// NewSender 创建邮件发送器。465端口走SSL，其余端口走STARTTLS。
func NewSender(host string, port int, from, password string, logger *zap.SugaredLogger) *Sender {
	dialer := gomail.NewDialer(host, port, from, password)
	dialer.SSL = port == 465

	return &Sender{
		host:   host,
		port:   port,
		from:   from,
		logger: logger,
		send:   func(m *gomail.Message) error { return dialer.DialAndSend(m) },
		sleep:  time.Sleep,
	}
}

// Send 发送HTML邮件，最多尝试 maxAttempts 次，线性退避。
// SMTP 450 是服务器的临时延迟信号，重试大概率能成功；其他错误也会
// 消耗重试预算，预算用尽后作为投递失败返回。
func (s *Sender) Send(recipients []string, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", recipients...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			wait := time.Duration(2*(attempt-1)) * time.Second
			s.logger.Infof("第 %d 次重试，等待 %s...", attempt-1, wait)
			s.sleep(wait)
		}

		s.logger.Infof("正在连接SMTP服务器: %s:%d", s.host, s.port)
		err := s.send(msg)
		if err == nil {
			s.logger.Infof("✓ 邮件发送成功，接收者: %s", strings.Join(recipients, ", "))
			return nil
		}

		lastErr = err
		if isTransientDeferral(err) {
			s.logger.Warnf("检测到临时错误(450)，尝试 %d/%d: %v", attempt, maxAttempts, err)
		} else {
			s.logger.Errorf("SMTP错误，尝试 %d/%d: %v", attempt, maxAttempts, err)
		}
	}

	s.logger.Error("建议：")
	s.logger.Error("  1. 稍后再试（可能是发送频率限制）")
	s.logger.Error("  2. 检查邮箱设置是否允许发送")
	s.logger.Error("  3. 确认SMTP密码正确")
	return fmt.Errorf("邮件发送失败（已尝试 %d 次）: %w", maxAttempts, lastErr)
}

// isTransientDeferral 判断是否是SMTP临时延迟信号（状态码450）
func isTransientDeferral(err error) bool {
	return err != nil && strings.Contains(err.Error(), "450")
}
