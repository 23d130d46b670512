package news

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// fetchDocument 带浏览器头抓取页面并解析为goquery文档
func fetchDocument(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("状态码异常: %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

// NatureNewsSource Nature最新新闻页面
type NatureNewsSource struct {
	URL        string
	Limit      int
	HTTPClient *http.Client
}

func (s *NatureNewsSource) Name() string { return "Nature News" }

func (s *NatureNewsSource) Fetch(ctx context.Context) ([]Candidate, error) {
	doc, err := fetchDocument(ctx, s.HTTPClient, s.URL)
	if err != nil {
		return nil, fmt.Errorf("获取 Nature 新闻失败: %w", err)
	}

	var candidates []Candidate
	doc.Find("div.c-article-item__content").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= s.Limit {
			return false
		}

		title := strings.TrimSpace(sel.Find("h3.c-article-item__title").First().Text())
		if title == "" {
			return true
		}

		url, _ := sel.Find("a").First().Attr("href")
		if url != "" && !strings.HasPrefix(url, "http") {
			url = "https://www.nature.com" + url
		}

		// 日期格式如 "03 DEC 2025"
		dateStr := strings.TrimSpace(sel.Find("span.c-article-item__date").First().Text())

		candidates = append(candidates, Candidate{
			Title:  title,
			URL:    url,
			Source: s.Name(),
			Date:   ParseDate(dateStr, time.Now()),
		})
		return true
	})

	return candidates, nil
}

// NatureResearchSource Nature研究文章列表页面
type NatureResearchSource struct {
	URL        string
	Limit      int
	HTTPClient *http.Client
}

func (s *NatureResearchSource) Name() string { return "Nature Research" }

func (s *NatureResearchSource) Fetch(ctx context.Context) ([]Candidate, error) {
	doc, err := fetchDocument(ctx, s.HTTPClient, s.URL)
	if err != nil {
		return nil, fmt.Errorf("获取 Nature 研究文章失败: %w", err)
	}

	var candidates []Candidate
	doc.Find("article").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= s.Limit {
			return false
		}

		titleElem := sel.Find("h3 a, h2 a").First()
		title := strings.TrimSpace(titleElem.Text())
		if title == "" {
			return true
		}

		url, _ := titleElem.Attr("href")
		if strings.HasPrefix(url, "/") {
			url = "https://www.nature.com" + url
		}

		dateStr, _ := sel.Find("time").First().Attr("datetime")

		candidates = append(candidates, Candidate{
			Title:  title,
			URL:    url,
			Source: s.Name(),
			Date:   ParseDate(dateStr, time.Now()),
		})
		return true
	})

	return candidates, nil
}

// releaseDatePattern 从 ScienceDaily 的URL中提取日期。
// 格式: /releases/YYYY/MM/YYMMDDHHMMSS.htm，日取文件名的第三组数字
var releaseDatePattern = regexp.MustCompile(`/releases/(\d{4})/(\d{2})/\d{4}(\d{2})\d{6}\.htm`)

// ScienceDailySource ScienceDaily板块页面（主页、科学板块、大脑认知共用）
type ScienceDailySource struct {
	SourceName string
	URL        string
	Limit      int
	HTTPClient *http.Client
}

func (s *ScienceDailySource) Name() string { return s.SourceName }

func (s *ScienceDailySource) Fetch(ctx context.Context) ([]Candidate, error) {
	doc, err := fetchDocument(ctx, s.HTTPClient, s.URL)
	if err != nil {
		return nil, fmt.Errorf("获取 %s 失败: %w", s.SourceName, err)
	}

	var candidates []Candidate
	seen := make(map[string]bool)

	doc.Find(`a[href*="/releases/"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		url, _ := sel.Attr("href")
		if url == "" || seen[url] {
			return true
		}
		seen[url] = true

		title := strings.TrimSpace(sel.Text())
		// 过短的链接文字是栏目导航，不是标题
		if len(title) < 10 {
			return true
		}

		fullURL := url
		if strings.HasPrefix(fullURL, "/") {
			fullURL = "https://www.sciencedaily.com" + fullURL
		}

		candidates = append(candidates, Candidate{
			Title:  title,
			URL:    fullURL,
			Source: s.SourceName,
			Date:   extractReleaseDate(url, time.Now()),
		})

		return len(candidates) < s.Limit
	})

	return candidates, nil
}

// extractReleaseDate 从URL提取发布日期，失败时默认今天
func extractReleaseDate(url string, now time.Time) time.Time {
	if m := releaseDatePattern.FindStringSubmatch(url); m != nil {
		if t, err := time.Parse("2006-01-02", fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])); err == nil {
			return t
		}
	}
	return Normalize(now)
}

// RSSSource 通用RSS新闻源
type RSSSource struct {
	SourceName string
	URL        string
	Limit      int
	HTTPClient *http.Client
}

func (s *RSSSource) Name() string { return s.SourceName }

func (s *RSSSource) Fetch(ctx context.Context) ([]Candidate, error) {
	parser := gofeed.NewParser()
	parser.Client = s.HTTPClient
	parser.UserAgent = browserUA

	feed, err := parser.ParseURLWithContext(s.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("获取RSS失败 %s: %w", s.SourceName, err)
	}

	var candidates []Candidate
	for i, item := range feed.Items {
		if i >= s.Limit {
			break
		}
		if item.Title == "" || item.Link == "" {
			continue
		}

		date := Normalize(time.Now())
		if item.PublishedParsed != nil {
			date = Normalize(*item.PublishedParsed)
		}

		candidates = append(candidates, Candidate{
			Title:  strings.TrimSpace(item.Title),
			URL:    item.Link,
			Source: s.SourceName,
			Date:   date,
		})
	}

	return candidates, nil
}

// dateFormats 新闻源常见的日期格式
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	"02 Jan 2006",
	"January 2, 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseDate 解析各种格式的日期并归一化为日历日。
// 解析失败时返回"今天"：没有日期的标题仍然有用，不因此丢弃（降级不丢弃）。
func ParseDate(dateStr string, now time.Time) time.Time {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return Normalize(now)
	}

	// "03 DEC 2025" 这种全大写月份需要先转成标准形式
	normalized := dateStr
	if len(dateStr) > 3 && strings.ToUpper(dateStr) == dateStr {
		normalized = strings.Title(strings.ToLower(dateStr))
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, normalized); err == nil {
			return Normalize(t)
		}
	}

	return Normalize(now)
}

// DefaultSources 返回全部默认新闻源
func DefaultSources(timeout time.Duration) []Source {
	client := &http.Client{Timeout: timeout}

	return []Source{
		&NatureNewsSource{URL: "https://www.nature.com/latest-news", Limit: 30, HTTPClient: client},
		&NatureResearchSource{URL: "https://www.nature.com/nature/research-articles", Limit: 30, HTTPClient: client},
		&ScienceDailySource{SourceName: "ScienceDaily", URL: "https://www.sciencedaily.com/", Limit: 50, HTTPClient: client},
		&ScienceDailySource{SourceName: "ScienceDaily Top", URL: "https://www.sciencedaily.com/news/top/science/", Limit: 30, HTTPClient: client},
		&ScienceDailySource{SourceName: "ScienceDaily Brain", URL: "https://www.sciencedaily.com/news/mind_brain/", Limit: 30, HTTPClient: client},
		&RSSSource{SourceName: "Nature News", URL: "https://www.nature.com/nature.rss", Limit: 30, HTTPClient: client},
	}
}
