package weather

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Forecast 表示一个城市的当日天气
type Forecast struct {
	City        string   `json:"city"`
	Condition   string   `json:"weather"`
	CurrentTemp string   `json:"current_temp"`
	Temperature string   `json:"temperature"` // 低~高温度范围
	Wind        string   `json:"wind"`
	Sunrise     string   `json:"sunrise"`
	Sunset      string   `json:"sunset"`
	Alerts      []string `json:"alerts"`
}

// Parser weather.com.cn天气解析器
type Parser struct {
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// 风向class到中文的映射
var windDirections = map[string]string{
	"N": "北风", "NE": "东北风", "E": "东风", "SE": "东南风",
	"S": "南风", "SW": "西南风", "W": "西风", "NW": "西北风",
}

const unknown = "未知"

// NewParser 创建天气解析器
func NewParser(timeout time.Duration, logger *zap.SugaredLogger) *Parser {
	return &Parser{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch 抓取并解析单个城市的天气页面。
// 任何网络或解析错误都降级为"未知"的Forecast，不会中断整个流程。
func (p *Parser) Fetch(ctx context.Context, url string) Forecast {
	p.logger.Infof("正在获取天气数据: %s", url)

	doc, err := p.load(ctx, url)
	if err != nil {
		p.logger.Errorf("获取天气数据失败: %v", err)
		return unknownForecast()
	}

	result := p.parse(doc)
	p.logger.Infof("成功解析天气数据: %s", result.City)
	return result
}

func (p *Parser) load(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return goquery.NewDocumentFromReader(resp.Body)
}

func (p *Parser) parse(doc *goquery.Document) Forecast {
	result := unknownForecast()

	// 城市名称来自面包屑导航
	crumbs := doc.Find("div.crumbs a")
	if crumbs.Length() >= 2 {
		result.City = strings.TrimSpace(crumbs.Eq(1).Text())
	}

	// 实况温度
	if t := strings.TrimSpace(doc.Find("div.sk div.tem span").First().Text()); t != "" {
		result.CurrentTemp = t + "°C"
	}

	// 白天天气状况
	if w := strings.TrimSpace(doc.Find("div.t ul li p.wea").First().Text()); w != "" {
		result.Condition = w
	}

	// 温度范围：第一个li是白天最高温，第二个是夜间最低温
	high := strings.TrimSpace(doc.Find("div.t ul li:first-child p.tem span").First().Text())
	low := strings.TrimSpace(doc.Find("div.t ul li:nth-child(2) p.tem span").First().Text())
	if high != "" && low != "" {
		result.Temperature = low + "~" + high + "°C"
	}

	// 风力风向
	windElem := doc.Find("div.t ul li p.win span").First()
	if level := strings.TrimSpace(windElem.Text()); level != "" {
		result.Wind = level
		if class, ok := windElem.Parent().Find("i").First().Attr("class"); ok {
			if dir, exists := windDirections[strings.TrimSpace(class)]; exists {
				result.Wind = dir + " " + level
			}
		} else if title, ok := windElem.Attr("title"); ok && title != "" {
			result.Wind = title
		}
	}

	// 日出日落
	if s := strings.TrimSpace(doc.Find("p.sunUp span").First().Text()); s != "" {
		result.Sunrise = strings.TrimPrefix(s, "日出 ")
	}
	if s := strings.TrimSpace(doc.Find("p.sunDown span").First().Text()); s != "" {
		result.Sunset = strings.TrimPrefix(s, "日落 ")
	}

	// 天气预警：只取展示中的预警链接
	doc.Find("div.sk_alarm a").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		if !strings.Contains(style, "display: block") {
			return
		}
		text, ok := sel.Attr("title")
		if !ok || text == "" {
			text = strings.TrimSpace(sel.Text())
		}
		if text != "" {
			result.Alerts = append(result.Alerts, text)
		}
	})

	return result
}

func unknownForecast() Forecast {
	return Forecast{
		City:        unknown,
		Condition:   unknown,
		CurrentTemp: unknown,
		Temperature: unknown,
		Wind:        unknown,
		Sunrise:     unknown,
		Sunset:      unknown,
		Alerts:      []string{},
	}
}
