package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier 运行结果的Telegram通知器（可选）
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.SugaredLogger
}

// New 创建通知器。token或chatID未配置时返回nil，调用方据此跳过通知。
func New(token string, chatID int64, logger *zap.SugaredLogger) *Notifier {
	if token == "" || chatID == 0 {
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Warnf("⚠️ Telegram通知器初始化失败，本次运行不发送通知: %v", err)
		return nil
	}

	logger.Infof("Telegram通知器已就绪: @%s", bot.Self.UserName)
	return &Notifier{bot: bot, chatID: chatID, logger: logger}
}

// NotifyRun 发送一条运行结果消息。通知失败只记录日志，不影响运行结果。
func (n *Notifier) NotifyRun(subject string, itemCount int, success bool) {
	if n == nil {
		return
	}

	status := "✓ 发送成功"
	if !success {
		status = "✗ 发送失败"
	}
	text := fmt.Sprintf("%s\n%s\n收录新闻 %d 条", subject, status, itemCount)

	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		n.logger.Warnf("⚠️ Telegram通知发送失败: %v", err)
	}
}
