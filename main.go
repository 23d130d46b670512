package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"DailyReportBot/internal/ai"
	"DailyReportBot/internal/config"
	"DailyReportBot/internal/logging"
	"DailyReportBot/internal/mail"
	"DailyReportBot/internal/news"
	"DailyReportBot/internal/notify"
	"DailyReportBot/internal/report"
	"DailyReportBot/internal/weather"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	testMode := flag.Bool("test", false, "测试模式（保存HTML到文件）")
	noSend := flag.Bool("no-send", false, "不发送邮件（与--test配合使用）")
	emailTest := flag.Bool("email-test", false, "发送测试邮件（不消耗API token）")
	flag.Parse()

	logger, err := logging.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "日志器初始化失败: %v\n", err)
		return 1
	}
	defer logger.Sync()

	// 加载并验证配置：缺少必填项时直接退出，不产生任何网络请求
	cfg := config.Load()
	if errs := cfg.Validate(); len(errs) > 0 {
		logger.Error("配置验证失败:")
		for _, e := range errs {
			logger.Errorf("  - %v", e)
		}
		return 1
	}

	runID := uuid.New().String()[:8]
	logger.Infof("============================================================")
	logger.Infof("每日报告机器人启动 (run %s)", runID)
	logger.Infof("时间: %s", time.Now().Format("2006-01-02 15:04:05"))
	logger.Infof("============================================================")

	ctx := context.Background()
	sender := mail.NewSender(cfg.SMTPServer, cfg.SMTPPort, cfg.SenderEmail, cfg.SenderPassword, logger)
	notifier := notify.New(cfg.TelegramBotToken, cfg.TelegramChatID, logger)

	// 邮件测试模式：发送固定测试邮件，完全绕过AI和新闻流水线
	if *emailTest {
		logger.Info("邮件测试模式")
		html, err := report.RenderTestHTML(time.Now())
		if err != nil {
			logger.Errorf("生成测试邮件失败: %v", err)
			return 1
		}

		subject := fmt.Sprintf("邮件测试 - %s", time.Now().Format("2006-01-02 15:04"))
		logger.Infof("正在发送测试邮件到: %s", strings.Join(cfg.ReceiverEmails, ", "))
		if err := sender.Send(cfg.ReceiverEmails, subject, html); err != nil {
			logger.Errorf("✗ 测试邮件发送失败: %v", err)
			return 1
		}
		logger.Info("✓ 测试邮件发送成功！")
		return 0
	}

	// 正常模式：生成完整报告
	dailyReport, err := generateDailyReport(ctx, cfg, logger)
	if err != nil {
		logger.Errorf("生成报告失败: %v", err)
		return 1
	}

	html, err := report.RenderHTML(dailyReport)
	if err != nil {
		logger.Errorf("生成邮件HTML失败: %v", err)
		return 1
	}
	logger.Info("  - 邮件HTML已生成")

	// 测试模式：保存HTML到文件方便预览
	if *testMode {
		outputFile := fmt.Sprintf("/tmp/daily_report_%s_%s.html", time.Now().Format("20060102_150405"), runID)
		if err := os.WriteFile(outputFile, []byte(html), 0644); err != nil {
			logger.Errorf("保存HTML失败: %v", err)
		} else {
			logger.Infof("✓ 测试模式：邮件HTML已保存到 %s", outputFile)
		}
	}

	if *noSend {
		logger.Info("✓ 跳过邮件发送（--no-send 参数）")
		return 0
	}

	subject := dailyReport.Subject()
	logger.Infof("正在发送邮件到: %s", strings.Join(cfg.ReceiverEmails, ", "))
	if err := sender.Send(cfg.ReceiverEmails, subject, html); err != nil {
		logger.Errorf("✗ 邮件发送失败: %v", err)
		notifier.NotifyRun(subject, len(dailyReport.Items), false)
		return 1
	}

	logger.Info("✓ 每日报告发送成功！")
	notifier.NotifyRun(subject, len(dailyReport.Items), true)
	return 0
}

// generateDailyReport 执行完整流水线：
// 天气 → 新闻聚合 → AI策展 → 详情抓取 → 批量总结 → 组装报告。
// 各阶段都有自己的降级路径，这里只会因为模板等本地问题失败。
func generateDailyReport(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (report.DailyReport, error) {
	// 1. 解析天气数据
	logger.Info("[1/5] 获取并解析天气数据...")
	weatherParser := weather.NewParser(cfg.FetchTimeout, logger)
	beijing := weatherParser.Fetch(ctx, cfg.BeijingWeatherURL)
	jinan := weatherParser.Fetch(ctx, cfg.JinanWeatherURL)
	logger.Infof("  - 北京天气: %s", beijing.Condition)
	logger.Infof("  - 济南天气: %s", jinan.Condition)

	// 2. 获取科学新闻（多源）
	logger.Info("[2/5] 获取科学新闻...")
	aggregator := news.NewAggregator(logger, news.DefaultSources(cfg.FetchTimeout)...)
	batches := aggregator.FetchAll(ctx)
	feed := news.Aggregate(batches, cfg.RecencyWindowDays, time.Now())
	logger.Infof("  - 过滤后保留最近%d天的新闻: %d 条", cfg.RecencyWindowDays, len(feed))

	// 3. AI策展：问候 + 建议 + 新闻筛选，一次请求
	logger.Info("[3/5] AI处理数据（统一请求）...")
	character := cfg.Characters[rand.IntN(len(cfg.Characters))]
	logger.Infof("  - 选择角色: %s", character)

	// 客户端创建失败不中断运行：策展和总结都会走降级路径
	var generator ai.Generator
	gemini, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.AITimeout, logger)
	if err != nil {
		logger.Errorf("⚠️ Gemini客户端创建失败，本次运行使用降级内容: %v", err)
	} else {
		if err := gemini.TestConnection(ctx); err != nil {
			logger.Warnf("⚠️ %v", err)
		}
		generator = gemini
	}

	curator := ai.NewCurator(generator, logger)
	curation := curator.Curate(ctx, character, beijing, jinan, feed)
	selected := ai.ResolveIndices(feed, curation.SelectedIndices)
	logger.Infof("  - 筛选出 %d 条重点新闻", len(selected))

	// 4. 抓取选中文章的详情
	logger.Info("[4/5] 获取文章详情...")
	detailFetcher := news.NewDetailFetcher(cfg.FetchTimeout, logger)
	details := detailFetcher.FetchAll(ctx, selected)

	inputs := make([]ai.ArticleInput, 0, len(selected))
	for i, c := range selected {
		content := details[i].FullText
		if content == "" {
			content = details[i].Abstract
		}
		if content == "" {
			content = "无内容"
		}
		inputs = append(inputs, ai.ArticleInput{
			Title:   c.Title,
			Content: content,
			URL:     c.URL,
			Source:  c.Source,
			Date:    c.Date,
		})
	}

	// 5. 批量总结与翻译
	logger.Info("[5/5] 批量处理新闻内容...")
	summarizer := ai.NewSummarizer(generator, logger)
	items := summarizer.SummarizeBatch(ctx, inputs)

	return report.Assemble(character, curation, beijing, jinan, items, time.Now()), nil
}
