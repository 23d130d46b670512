package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"time"

	"DailyReportBot/internal/ai"
	"DailyReportBot/internal/weather"
)

//go:embed templates/email.html.tmpl
var emailTemplate string

//go:embed templates/test_email.html.tmpl
var testEmailTemplate string

// DailyReport 一次运行产出的完整报告，组装后不再修改
type DailyReport struct {
	Character     string
	Greeting      string
	AdviceByCity  map[string]string           // 键: beijing, jinan
	WeatherByCity map[string]weather.Forecast // 键: beijing, jinan
	Items         []ai.ProcessedItem
	GeneratedAt   time.Time
}

// Assemble 组装每日报告
func Assemble(character string, curation ai.CurationResult, beijing, jinan weather.Forecast, items []ai.ProcessedItem, now time.Time) DailyReport {
	return DailyReport{
		Character: character,
		Greeting:  curation.Greeting,
		AdviceByCity: map[string]string{
			"beijing": curation.AdviceBeijing,
			"jinan":   curation.AdviceJinan,
		},
		WeatherByCity: map[string]weather.Forecast{
			"beijing": beijing,
			"jinan":   jinan,
		},
		Items:       items,
		GeneratedAt: now,
	}
}

// Subject 邮件主题
func (r DailyReport) Subject() string {
	return fmt.Sprintf("每日魔法报告-%s", r.GeneratedAt.Format("2006-01-02"))
}

// 模板视图结构

type cityView struct {
	Name    string
	Weather weather.Forecast
	Advice  string
}

type itemView struct {
	TitleCN     string
	TitleEN     string
	SourceShort string
	URL         string
	Date        string
	Summary     string
}

type categoryView struct {
	Title string
	Items []itemView
}

type reportView struct {
	Character  string
	Greeting   string
	Beijing    cityView
	Jinan      cityView
	Categories []categoryView
}

// 新闻来源简称
var sourceShortNames = map[string]string{
	"Nature News":               "Nature",
	"Nature":                    "Nature",
	"Nature Research":           "Nat Research",
	"Nature Astronomy":          "Nat Astron",
	"Nature Reviews Psychology": "Nat Rev Psych",
	"Nature Communications":     "Nat Commun",
	"Science":                   "Science",
	"ScienceDaily":              "ScienceDaily",
	"ScienceDaily Top":          "ScienceDaily",
	"ScienceDaily Brain":        "ScienceDaily",
	"ScienceDaily Space":        "ScienceDaily",
	"PsyPost":                   "PsyPost",
	"Neuroscience News":         "Neuro News",
	"PNAS Psychology":           "PNAS",
}

var categoryTitles = map[string]string{
	"A": "🔭 天体物理",
	"B": "🧠 元认知与心理学",
	"C": "📰 其他科学发现",
}

// RenderHTML 渲染每日报告邮件正文
func RenderHTML(r DailyReport) (string, error) {
	tmpl, err := template.New("email").Parse(emailTemplate)
	if err != nil {
		return "", fmt.Errorf("解析邮件模板失败: %w", err)
	}

	view := reportView{
		Character:  r.Character,
		Greeting:   r.Greeting,
		Beijing:    cityView{Name: "北京", Weather: r.WeatherByCity["beijing"], Advice: r.AdviceByCity["beijing"]},
		Jinan:      cityView{Name: "济南", Weather: r.WeatherByCity["jinan"], Advice: r.AdviceByCity["jinan"]},
		Categories: groupByCategory(r.Items),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("渲染邮件模板失败: %w", err)
	}
	return buf.String(), nil
}

// groupByCategory 按领域分组，固定 A、B、C 顺序输出，空组跳过
func groupByCategory(items []ai.ProcessedItem) []categoryView {
	grouped := map[string][]itemView{}
	for _, item := range items {
		cat := item.Category
		if _, ok := categoryTitles[cat]; !ok {
			cat = "C"
		}
		grouped[cat] = append(grouped[cat], itemView{
			TitleCN:     item.TitleCN,
			TitleEN:     item.TitleEN,
			SourceShort: simplifySource(item.Source),
			URL:         item.URL,
			Date:        item.Date.Format("2006-01-02"),
			Summary:     item.Summary,
		})
	}

	var categories []categoryView
	for _, key := range []string{"A", "B", "C"} {
		if len(grouped[key]) == 0 {
			continue
		}
		categories = append(categories, categoryView{
			Title: fmt.Sprintf("%s (%d)", categoryTitles[key], len(grouped[key])),
			Items: grouped[key],
		})
	}
	return categories
}

func simplifySource(source string) string {
	if short, ok := sourceShortNames[source]; ok {
		return short
	}
	return source
}

// RenderTestHTML 渲染连通性测试邮件（不经过AI和新闻流水线）
func RenderTestHTML(now time.Time) (string, error) {
	tmpl, err := template.New("test").Parse(testEmailTemplate)
	if err != nil {
		return "", fmt.Errorf("解析测试邮件模板失败: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{
		"Time": now.Format("2006-01-02 15:04:05"),
	}); err != nil {
		return "", fmt.Errorf("渲染测试邮件模板失败: %w", err)
	}
	return buf.String(), nil
}
