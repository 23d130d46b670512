package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Generator 抽象出生成服务，便于测试时注入假实现
type Generator interface {
	// GenerateText 发送提示词，返回自由文本
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateJSON 发送提示词，要求结构化JSON输出并解析到out
	GenerateJSON(ctx context.Context, prompt string, out any) error
}

// GeminiClient 表示Gemini生成服务的客户端
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewGeminiClient 创建Gemini客户端
func NewGeminiClient(ctx context.Context, apiKey string, timeout time.Duration, logger *zap.SugaredLogger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("创建Gemini客户端失败: %w", err)
	}

	logger.Info("Gemini客户端初始化成功")
	return &GeminiClient{
		client:  client,
		model:   "gemini-2.5-flash",
		timeout: timeout,
		logger:  logger,
	}, nil
}

// TestConnection 检查Gemini服务是否可用
func (c *GeminiClient) TestConnection(ctx context.Context) error {
	response, err := c.GenerateText(ctx, "请用一个词回答：正常")
	if err != nil {
		return fmt.Errorf("Gemini连接测试失败: %w", err)
	}
	c.logger.Infof("✓ Gemini连接测试通过: %s", strings.TrimSpace(response))
	return nil
}

// GenerateText 发送一次生成请求并返回文本结果
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, nil)
}

// GenerateJSON 发送一次生成请求，要求JSON输出，并解析到out。
// 超时、传输错误、响应不可解析统一作为错误返回，由调用方走各自的降级路径。
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, out any) error {
	text, err := c.generate(ctx, prompt, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return err
	}

	cleaned := cleanJSONResponse(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("解析Gemini响应失败: %w, 内容: %s", err, firstRunes(cleaned, 200))
	}
	return nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Infof("发送生成请求（提示词 %d 字符）", len([]rune(prompt)))

	content := genai.NewContentFromText(prompt, genai.RoleUser)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{content}, config)
	if err != nil {
		return "", fmt.Errorf("调用Gemini失败: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Gemini返回了空响应")
	}
	return text, nil
}

// cleanJSONResponse 去掉模型偶尔包上的Markdown代码块和多余文字，
// 保留最外层的JSON对象或数组
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	objStart := strings.Index(content, "{")
	arrStart := strings.Index(content, "[")

	start := objStart
	end := strings.LastIndex(content, "}")
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		start = arrStart
		end = strings.LastIndex(content, "]")
	}

	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

func firstRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
