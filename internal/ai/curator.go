package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"DailyReportBot/internal/news"
	"DailyReportBot/internal/weather"

	"go.uber.org/zap"
)

// CurationResult 策展结果：问候语、两城建议和选中的新闻编号。
// Degraded 为 true 表示生成调用失败，内容来自确定性的降级模板。
type CurationResult struct {
	Greeting        string
	AdviceBeijing   string
	AdviceJinan     string
	SelectedIndices []int // 1-based，对应送入提示词的编号
	Degraded        bool
}

// masterResponse Gemini主内容调用的结构化响应。
// 编号用 json.Number 接收：个别非整数编号只丢弃该项，不让整个响应解析失败。
type masterResponse struct {
	Greeting      string        `json:"greeting"`
	AdviceBeijing string        `json:"advice_beijing"`
	AdviceJinan   string        `json:"advice_jinan"`
	Indices       []json.Number `json:"selected_news_indices"`
}

// fallbackSelectionLimit 降级时选取的条数上限
const fallbackSelectionLimit = 15

// Curator 内容策展器：一次生成调用同时产出问候、建议和新闻筛选
type Curator struct {
	gen    Generator
	logger *zap.SugaredLogger
}

// NewCurator 创建策展器。gen 可以为 nil，此时所有调用直接走降级路径。
func NewCurator(gen Generator, logger *zap.SugaredLogger) *Curator {
	return &Curator{gen: gen, logger: logger}
}

// Curate 以指定角色的口吻，根据天气和完整候选列表生成主内容。
// 生成调用失败或响应不可解析时返回降级结果，本身从不返回错误（生成调用不重试）。
func (c *Curator) Curate(ctx context.Context, character string, beijing, jinan weather.Forecast, feed []news.Candidate) CurationResult {
	if c.gen == nil {
		c.logger.Warn("生成服务不可用，使用降级内容")
		return c.fallback(character, len(feed))
	}

	prompt := buildMasterPrompt(character, beijing, jinan, feed)

	var resp masterResponse
	if err := c.gen.GenerateJSON(ctx, prompt, &resp); err != nil {
		c.logger.Errorf("生成主要内容失败: %v", err)
		return c.fallback(character, len(feed))
	}

	if resp.Greeting == "" {
		c.logger.Error("主内容响应缺少问候语，使用降级内容")
		return c.fallback(character, len(feed))
	}

	result := CurationResult{
		Greeting:      resp.Greeting,
		AdviceBeijing: withDefault(resp.AdviceBeijing, genericAdvice),
		AdviceJinan:   withDefault(resp.AdviceJinan, genericAdvice),
	}

	// 非整数编号静默丢弃（类型检查）；越界的留给 ResolveIndices 过滤（边界检查）
	for _, raw := range resp.Indices {
		if idx, err := raw.Int64(); err == nil {
			result.SelectedIndices = append(result.SelectedIndices, int(idx))
		}
	}

	c.logger.Infof("AI选中了 %d 条新闻", len(result.SelectedIndices))
	return result
}

const genericAdvice = "请根据天气情况适当增减衣物。"

func (c *Curator) fallback(character string, feedLen int) CurationResult {
	n := min(fallbackSelectionLimit, feedLen)
	indices := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		indices = append(indices, i)
	}

	return CurationResult{
		Greeting:        fmt.Sprintf("%s祝您早安！新的一天开始了！", character),
		AdviceBeijing:   genericAdvice,
		AdviceJinan:     genericAdvice,
		SelectedIndices: indices,
		Degraded:        true,
	}
}

// ResolveIndices 把1-based编号映射回候选记录。
// 越界的编号静默跳过——这是正常的过滤，不算错误；选取顺序保持不变。
func ResolveIndices(feed []news.Candidate, indices []int) []news.Candidate {
	var selected []news.Candidate
	for _, idx := range indices {
		if idx >= 1 && idx <= len(feed) {
			selected = append(selected, feed[idx-1])
		}
	}
	return selected
}

// buildMasterPrompt 构建主内容提示词：天气 + 带编号的完整新闻清单。
// 编号是生成服务引用新闻的唯一通道，清单顺序必须与聚合结果完全一致。
func buildMasterPrompt(character string, beijing, jinan weather.Forecast, feed []news.Candidate) string {
	var newsText strings.Builder
	for i, c := range feed {
		newsText.WriteString(fmt.Sprintf("%d. [%s] %s (%s)\n", i+1, c.Source, c.Title, c.Date.Format("2006-01-02")))
	}

	return fmt.Sprintf(`你是哈利波特世界中的%s。请完成以下任务（**请全程使用中文回答**）：

1. **角色问候**：以%s的第一人称口吻用中文写一段开场白（100-150字）。
   - 总结今日天气（北京和济南）。
   - **简要提及今日科学界发生的有趣事情**（根据新闻列表）。
   - 语气符合角色性格，清新自然。

2. **天气建议**：分别为北京和济南给出穿衣建议（2-3行，实用具体，包含穿衣和带伞/保暖提醒）。

3. **新闻筛选**：从列表中选出 10-25 条最重要的科学新闻。
   **优先领域A - 天体物理学**（以下关键词平权）：
   - 球状星团(globular cluster)、白矮星(white dwarf)、毫秒脉冲星(millisecond pulsar)
   - 观测天体物理学(observational astrophysics)、恒星演化(stellar evolution)
   - 望远镜(telescope)、星震学(asteroseismology)
   - 中子星(neutron star)、X射线天文学(X-ray astronomy)、引力波(gravitational wave)
   - 变星(variable star)、恒星物理(stellar physics)、脉冲星(pulsar)

   **优先领域B - 心理学与神经科学**（以下关键词平权）：
   - 元认知(metacognition)、fMRI、脑成像(brain imaging)
   - 认知神经科学(cognitive neuroscience)、工作记忆(working memory)
   - 注意力(attention)、决策(decision making)、意识(consciousness)
   - 成瘾(addiction)、奖赏系统(reward system)、多巴胺(dopamine)
   - 心理学(psychology)、神经科学(neuroscience)

   **筛选原则**：
   - 如果其他领域有重大科学发现，也应包含
   - **日期优先**：同等重要性下，优先选择日期更近的新闻（今天 > 昨天）
   - 数量建议 10-25 条，如果重要新闻较多可扩展到 30 条

输入数据：
【天气】
- 北京：%s，%s，%s
- 济南：%s，%s，%s

【新闻列表】
%s

请严格按照以下 JSON 格式返回（不要包含 Markdown 代码块标记）：
{
    "greeting": "角色开场白内容...",
    "advice_beijing": "北京穿衣建议...",
    "advice_jinan": "济南穿衣建议...",
    "selected_news_indices": [1, 3, 5]
}`,
		character, character,
		beijing.Condition, beijing.Temperature, beijing.Wind,
		jinan.Condition, jinan.Temperature, jinan.Wind,
		newsText.String(),
	)
}

func withDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
