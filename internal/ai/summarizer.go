package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ArticleInput 批量处理的单篇输入
type ArticleInput struct {
	Title   string
	Content string
	URL     string
	Source  string
	Date    time.Time
}

// ProcessedItem 处理完成的新闻条目。
// URL、日期、来源始终从输入原样携带，生成服务只负责译名、总结和分类。
type ProcessedItem struct {
	TitleEN  string
	TitleCN  string
	Summary  string
	Category string // A=天体物理 B=心理学与神经科学 C=其他
	URL      string
	Source   string
	Date     time.Time
}

// batchItemResponse 批量处理响应中的单项
type batchItemResponse struct {
	OriginalTitle string `json:"original_title"`
	TitleCN       string `json:"title_cn"`
	Summary       string `json:"summary"`
	Category      string `json:"category"`
}

// maxContentRunes 每篇文章送入提示词的正文长度上限
const maxContentRunes = 5000

const placeholderSummary = "AI处理失败，请查看原文"

// Summarizer 批量新闻处理器：一次调用完成标题翻译、内容总结和领域分类
type Summarizer struct {
	gen    Generator
	logger *zap.SugaredLogger
}

// NewSummarizer 创建批量处理器。gen 为 nil 时所有调用直接降级为透传。
func NewSummarizer(gen Generator, logger *zap.SugaredLogger) *Summarizer {
	return &Summarizer{gen: gen, logger: logger}
}

// SummarizeBatch 一次生成请求处理整批文章。
//
// 响应按位置与输入对齐：第i项的URL/日期/来源永远取自输入第i项。
// 响应条数少于输入时只用对齐的前缀，多余的输入静默丢弃（已知局限）。
// 响应顺序与输入不一致时模型侧无法察觉——提示词要求保序，但没有基于
// 标识符的匹配手段，这里沿用按位置对齐的行为。
// 整体失败时降级为透传：原标题充当译名，固定占位总结，条数与输入一致。
func (s *Summarizer) SummarizeBatch(ctx context.Context, articles []ArticleInput) []ProcessedItem {
	if len(articles) == 0 {
		return nil
	}

	if s.gen == nil {
		s.logger.Warn("生成服务不可用，批量处理降级为透传")
		return passthrough(articles)
	}

	prompt := buildBatchPrompt(articles)

	var results []batchItemResponse
	if err := s.gen.GenerateJSON(ctx, prompt, &results); err != nil {
		s.logger.Errorf("批量处理新闻失败: %v", err)
		return passthrough(articles)
	}

	items := make([]ProcessedItem, 0, len(results))
	for i, res := range results {
		if i >= len(articles) {
			break
		}
		src := articles[i]
		items = append(items, ProcessedItem{
			TitleEN:  src.Title,
			TitleCN:  withDefault(res.TitleCN, src.Title),
			Summary:  withDefault(res.Summary, "暂无总结"),
			Category: normalizeCategory(res.Category),
			URL:      src.URL,
			Source:   src.Source,
			Date:     src.Date,
		})
	}

	s.logger.Infof("批量处理完成: 输入 %d 篇, 输出 %d 条", len(articles), len(items))
	return items
}

// passthrough 降级路径：逐条透传，保证流水线总能以输入条数结束
func passthrough(articles []ArticleInput) []ProcessedItem {
	items := make([]ProcessedItem, 0, len(articles))
	for _, src := range articles {
		items = append(items, ProcessedItem{
			TitleEN:  src.Title,
			TitleCN:  src.Title,
			Summary:  placeholderSummary,
			Category: "C",
			URL:      src.URL,
			Source:   src.Source,
			Date:     src.Date,
		})
	}
	return items
}

func normalizeCategory(c string) string {
	switch strings.ToUpper(strings.TrimSpace(c)) {
	case "A":
		return "A"
	case "B":
		return "B"
	default:
		return "C"
	}
}

func buildBatchPrompt(articles []ArticleInput) string {
	var articlesText strings.Builder
	for i, art := range articles {
		articlesText.WriteString(fmt.Sprintf(`
文章 %d:
标题: %s
内容: %s
---
`, i+1, art.Title, firstRunes(art.Content, maxContentRunes)))
	}

	return fmt.Sprintf(`请批量处理以下 %d 篇科学新闻/论文。

对于每一篇文章，请完成：
1. 将标题翻译成中文（准确、专业，保持学术风格）
2. 用中文总结文章核心内容，采用**倒金字塔结构**（先写最重要的发现/结论，再补充关键细节和背景）。总结为一个完整的小段落，可以稍长，但须精炼专业。
3. 判断文章领域：A=天体物理学，B=心理学与神经科学，C=其他科学发现

**输出列表必须与输入文章一一对应、顺序完全一致。**

输入文章列表：
%s

请严格按照以下 JSON 格式返回列表（不要包含 Markdown 代码块标记）：
[
    {
        "original_title": "原英文标题",
        "title_cn": "中文翻译标题",
        "summary": "中文总结内容（倒金字塔结构，一个小段落）",
        "category": "A"
    }
]`, len(articles), articlesText.String())
}
