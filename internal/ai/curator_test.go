package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"DailyReportBot/internal/news"
	"DailyReportBot/internal/weather"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeGenerator 返回预设响应的生成服务假实现
type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, prompt string, out any) error {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(cleanJSONResponse(f.response)), out)
}

func testFeed(n int) []news.Candidate {
	feed := make([]news.Candidate, 0, n)
	for i := 0; i < n; i++ {
		feed = append(feed, news.Candidate{
			Title:  "Candidate title",
			URL:    "https://example.com/" + string(rune('a'+i)),
			Source: "Nature News",
			Date:   time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		})
	}
	return feed
}

func testForecast(city string) weather.Forecast {
	return weather.Forecast{
		City:        city,
		Condition:   "晴",
		Temperature: "20/28℃",
		Wind:        "南风 <3级",
	}
}

func TestCurateParsesMasterResponse(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"greeting": "早上好！我是赫敏。",
		"advice_beijing": "今天适合穿长袖。",
		"advice_jinan": "记得带伞。",
		"selected_news_indices": [1, 3, 2]
	}`}
	c := NewCurator(gen, zap.NewNop().Sugar())

	result := c.Curate(context.Background(), "赫敏·格兰杰", testForecast("北京"), testForecast("济南"), testFeed(3))

	assert.False(t, result.Degraded)
	assert.Equal(t, "早上好！我是赫敏。", result.Greeting)
	assert.Equal(t, "今天适合穿长袖。", result.AdviceBeijing)
	assert.Equal(t, "记得带伞。", result.AdviceJinan)
	assert.Equal(t, []int{1, 3, 2}, result.SelectedIndices)
}

func TestCurateDiscardsNonIntegerIndices(t *testing.T) {
	// 个别非整数编号丢弃，其余正常保留
	gen := &fakeGenerator{response: `{
		"greeting": "早上好！",
		"advice_beijing": "穿外套。",
		"advice_jinan": "穿外套。",
		"selected_news_indices": [1, 1.5, 3]
	}`}
	c := NewCurator(gen, zap.NewNop().Sugar())

	result := c.Curate(context.Background(), "卢娜", testForecast("北京"), testForecast("济南"), testFeed(3))

	assert.False(t, result.Degraded)
	assert.Equal(t, []int{1, 3}, result.SelectedIndices)
}

func TestCurateFallbackOnGenerationError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("服务超时")}
	c := NewCurator(gen, zap.NewNop().Sugar())

	result := c.Curate(context.Background(), "多比", testForecast("北京"), testForecast("济南"), testFeed(20))

	assert.True(t, result.Degraded)
	assert.Contains(t, result.Greeting, "多比")
	assert.Equal(t, genericAdvice, result.AdviceBeijing)
	assert.Equal(t, genericAdvice, result.AdviceJinan)
	// 降级选取前 min(15, len) 条
	require.Len(t, result.SelectedIndices, 15)
	assert.Equal(t, 1, result.SelectedIndices[0])
	assert.Equal(t, 15, result.SelectedIndices[14])
}

func TestCurateFallbackOnEmptyGreeting(t *testing.T) {
	gen := &fakeGenerator{response: `{"greeting": "", "selected_news_indices": [1]}`}
	c := NewCurator(gen, zap.NewNop().Sugar())

	result := c.Curate(context.Background(), "海格", testForecast("北京"), testForecast("济南"), testFeed(5))

	assert.True(t, result.Degraded)
	assert.NotEmpty(t, result.Greeting)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, result.SelectedIndices)
}

func TestCurateNilGeneratorFallsBack(t *testing.T) {
	c := NewCurator(nil, zap.NewNop().Sugar())

	result := c.Curate(context.Background(), "小天狼星", testForecast("北京"), testForecast("济南"), testFeed(2))

	assert.True(t, result.Degraded)
	assert.Equal(t, []int{1, 2}, result.SelectedIndices)
}

func TestCurateAdviceDefaultsWhenMissing(t *testing.T) {
	gen := &fakeGenerator{response: `{"greeting": "早安！", "selected_news_indices": [2]}`}
	c := NewCurator(gen, zap.NewNop().Sugar())

	result := c.Curate(context.Background(), "纳威", testForecast("北京"), testForecast("济南"), testFeed(3))

	assert.False(t, result.Degraded)
	assert.Equal(t, genericAdvice, result.AdviceBeijing)
	assert.Equal(t, genericAdvice, result.AdviceJinan)
}

func TestCuratePromptContainsNumberedFeed(t *testing.T) {
	gen := &fakeGenerator{response: `{"greeting": "早安！", "selected_news_indices": []}`}
	c := NewCurator(gen, zap.NewNop().Sugar())

	feed := testFeed(3)
	c.Curate(context.Background(), "赫敏·格兰杰", testForecast("北京"), testForecast("济南"), feed)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	// 编号从1开始，天气数据原样进入提示词
	assert.Contains(t, prompt, "1. [Nature News]")
	assert.Contains(t, prompt, "3. [Nature News]")
	assert.Contains(t, prompt, "20/28℃")
	assert.Contains(t, prompt, "赫敏·格兰杰")
}

func TestResolveIndicesFiltersOutOfRange(t *testing.T) {
	feed := testFeed(2)

	selected := ResolveIndices(feed, []int{1, 99, 2, 0, -3})

	require.Len(t, selected, 2)
	assert.Equal(t, feed[0].URL, selected[0].URL)
	assert.Equal(t, feed[1].URL, selected[1].URL)
}

func TestResolveIndicesPreservesSelectionOrder(t *testing.T) {
	feed := testFeed(3)

	selected := ResolveIndices(feed, []int{3, 1})

	require.Len(t, selected, 2)
	assert.Equal(t, feed[2].URL, selected[0].URL)
	assert.Equal(t, feed[0].URL, selected[1].URL)
}

func TestResolveIndicesEmpty(t *testing.T) {
	assert.Empty(t, ResolveIndices(testFeed(3), nil))
	assert.Empty(t, ResolveIndices(nil, []int{1}))
}
