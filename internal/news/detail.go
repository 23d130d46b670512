package news

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// maxBodyRunes 正文截断上限，控制下游生成请求的长度
const maxBodyRunes = 3000

const unknown = "未知"

// requestDelay 连续抓取文章之间的礼貌性延迟，避免给源站压力
const requestDelay = 500 * time.Millisecond

// DetailFetcher 抓取单篇文章的详细内容
type DetailFetcher struct {
	httpClient *http.Client
	logger     *zap.SugaredLogger
	delay      time.Duration
}

// NewDetailFetcher 创建文章详情抓取器
func NewDetailFetcher(timeout time.Duration, logger *zap.SugaredLogger) *DetailFetcher {
	return &DetailFetcher{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		delay:      requestDelay,
	}
}

// Fetch 抓取一篇文章的标题、摘要和正文。
// 按域名选择解析策略；不认识的域名和任何抓取错误都返回空内容的占位结果，
// 调用方看到空正文时自行决定用摘要继续还是跳过。
func (f *DetailFetcher) Fetch(ctx context.Context, candidate Candidate) ArticleDetail {
	f.logger.Infof("正在获取文章详情: %s", candidate.URL)

	empty := ArticleDetail{Title: unknown, URL: candidate.URL}

	host := hostOf(candidate.URL)
	var strategy func(*goquery.Document, string) ArticleDetail
	switch {
	case strings.Contains(host, "nature.com"):
		strategy = parseNatureArticle
	case strings.Contains(host, "sciencedaily.com"):
		strategy = parseScienceDailyArticle
	case strings.Contains(host, "science.org"):
		strategy = parseScienceArticle
	default:
		return empty
	}

	doc, err := fetchDocument(ctx, f.httpClient, candidate.URL)
	if err != nil {
		f.logger.Errorf("获取文章详情失败 %s: %v", candidate.URL, err)
		return empty
	}

	return strategy(doc, candidate.URL)
}

// FetchAll 依次抓取多篇文章，抓取之间加入礼貌性延迟
func (f *DetailFetcher) FetchAll(ctx context.Context, candidates []Candidate) []ArticleDetail {
	details := make([]ArticleDetail, 0, len(candidates))
	for i, c := range candidates {
		if i > 0 {
			time.Sleep(f.delay)
		}
		details = append(details, f.Fetch(ctx, c))
	}
	return details
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func parseNatureArticle(doc *goquery.Document, url string) ArticleDetail {
	title := strings.TrimSpace(doc.Find("h1.c-article-title, h1").First().Text())
	if title == "" {
		title = unknown
	}

	abstract := strings.TrimSpace(doc.Find("div#Abs1-content, div.c-article-section__content").First().Text())

	body := extractBodyText(doc.Find("div.c-article-body, article").First())
	if body == "" {
		body = abstract
	}

	return ArticleDetail{
		Title:    title,
		Abstract: abstract,
		FullText: truncateRunes(body, maxBodyRunes),
		URL:      url,
	}
}

func parseScienceDailyArticle(doc *goquery.Document, url string) ArticleDetail {
	title := strings.TrimSpace(doc.Find("#headline").First().Text())
	if title == "" {
		title = unknown
	}

	abstract := strings.TrimSpace(doc.Find("#abstract").First().Text())

	body := extractBodyText(doc.Find("#story_text").First())
	if body == "" {
		body = abstract
	}

	return ArticleDetail{
		Title:    title,
		Abstract: abstract,
		FullText: truncateRunes(body, maxBodyRunes),
		URL:      url,
	}
}

func parseScienceArticle(doc *goquery.Document, url string) ArticleDetail {
	title := strings.TrimSpace(doc.Find("h1.article__headline, h1").First().Text())
	if title == "" {
		title = unknown
	}

	abstract := strings.TrimSpace(doc.Find("div.article__summary, p.article__teaser").First().Text())

	body := extractBodyText(doc.Find("div.article__body, article").First())
	if body == "" {
		body = abstract
	}

	return ArticleDetail{
		Title:    title,
		Abstract: abstract,
		FullText: truncateRunes(body, maxBodyRunes),
		URL:      url,
	}
}

// extractBodyText 取正文纯文本，去掉script和style
func extractBodyText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	sel.Find("script, style").Remove()

	var parts []string
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return strings.TrimSpace(sel.Text())
	}
	return strings.Join(parts, "\n")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
