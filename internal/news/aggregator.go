package news

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Aggregator 管理多个新闻源的收集与合并
type Aggregator struct {
	sources []Source
	logger  *zap.SugaredLogger
}

// NewAggregator 创建新闻聚合器
func NewAggregator(logger *zap.SugaredLogger, sources ...Source) *Aggregator {
	return &Aggregator{
		sources: sources,
		logger:  logger,
	}
}

// FetchAll 按固定顺序依次抓取所有新闻源。
// 某个源失败只记录日志并贡献空结果，聚合本身没有失败模式。
func (a *Aggregator) FetchAll(ctx context.Context) [][]Candidate {
	batches := make([][]Candidate, 0, len(a.sources))

	for _, source := range a.sources {
		candidates, err := source.Fetch(ctx)
		if err != nil {
			a.logger.Warnf("⚠️ 获取 %s 失败: %v", source.Name(), err)
			batches = append(batches, nil)
			continue
		}
		a.logger.Infof("  - %s: %d 条", source.Name(), len(candidates))
		batches = append(batches, candidates)
	}

	return batches
}

// Aggregate 合并所有源的结果：
//   - 保持源顺序展平，保证编号稳定
//   - 按URL去重，首次出现者保留
//   - 日期归一化为日历日，早于 now-windowDays 的丢弃
func Aggregate(batches [][]Candidate, windowDays int, now time.Time) []Candidate {
	cutoff := Normalize(now).AddDate(0, 0, -windowDays)
	seen := make(map[string]bool)

	var feed []Candidate
	for _, batch := range batches {
		for _, c := range batch {
			if c.URL == "" || seen[c.URL] {
				continue
			}
			seen[c.URL] = true

			c.Date = Normalize(c.Date)
			if c.Date.IsZero() {
				c.Date = Normalize(now)
			}
			if c.Date.Before(cutoff) {
				continue
			}

			feed = append(feed, c)
		}
	}

	return feed
}

// Normalize 去掉时刻，只保留日历日
func Normalize(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
