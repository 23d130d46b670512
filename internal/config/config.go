package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 保存一次运行所需的全部配置，启动时构建一次，之后只读
type Config struct {
	// Gemini API配置
	GeminiAPIKey string

	// 邮箱配置
	SMTPServer     string
	SMTPPort       int
	SenderEmail    string
	SenderPassword string
	ReceiverEmails []string

	// 天气数据来源（weather.com.cn）
	BeijingWeatherURL string
	JinanWeatherURL   string

	// 新闻筛选
	RecencyWindowDays int

	// 网络超时
	FetchTimeout time.Duration // 抓取网页
	AITimeout    time.Duration // 单次生成请求
	SMTPTimeout  time.Duration

	// Telegram运行通知（可选，不配置则跳过）
	TelegramBotToken string
	TelegramChatID   int64

	// 哈利波特角色列表
	Characters []string
}

// Load 加载.env文件和环境变量，返回填好默认值的配置
func Load() *Config {
	// .env不存在时直接使用进程环境变量
	_ = godotenv.Load()

	cfg := &Config{
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		SMTPServer:     getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SenderEmail:    os.Getenv("SENDER_EMAIL"),
		SenderPassword: os.Getenv("SENDER_PASSWORD"),

		BeijingWeatherURL: getEnv("BEIJING_WEATHER_URL", "https://www.weather.com.cn/weather1d/101011700.shtml"),
		JinanWeatherURL:   getEnv("JINAN_WEATHER_URL", "https://www.weather.com.cn/weather1d/101120107.shtml"),

		RecencyWindowDays: getEnvInt("RECENCY_WINDOW_DAYS", 2),

		FetchTimeout: 15 * time.Second,
		AITimeout:    120 * time.Second,
		SMTPTimeout:  30 * time.Second,

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		Characters: []string{
			"多比", "哈利·波特", "麦格教授", "邓布利多", "赫敏·格兰杰",
			"罗恩·韦斯莱", "斯内普教授", "海格", "卢娜·洛夫古德",
			"纳威·隆巴顿", "金妮·韦斯莱", "小天狼星布莱克", "卢平教授",
			"韦斯莱先生", "韦斯莱夫人", "德拉科·马尔福", "伏地魔", "奇洛教授",
		},
	}

	if raw := os.Getenv("RECEIVER_EMAILS"); raw != "" {
		for _, addr := range strings.Split(raw, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				cfg.ReceiverEmails = append(cfg.ReceiverEmails, addr)
			}
		}
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.TelegramChatID = id
		}
	}

	return cfg
}

// Validate 检查必填配置，每缺一项返回一条带补救提示的错误
func (c *Config) Validate() []error {
	var errs []error

	if c.GeminiAPIKey == "" {
		errs = append(errs, fmt.Errorf("GEMINI_API_KEY 未设置：请在 .env 中配置 Gemini API密钥（https://aistudio.google.com/apikey）"))
	}
	if c.SenderEmail == "" {
		errs = append(errs, fmt.Errorf("SENDER_EMAIL 未设置：请在 .env 中配置发件人邮箱"))
	}
	if c.SenderPassword == "" {
		errs = append(errs, fmt.Errorf("SENDER_PASSWORD 未设置：请在 .env 中配置邮箱应用密码（不是登录密码）"))
	}
	if len(c.ReceiverEmails) == 0 {
		errs = append(errs, fmt.Errorf("RECEIVER_EMAILS 未设置：请在 .env 中配置收件人列表，逗号分隔"))
	}

	return errs
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
