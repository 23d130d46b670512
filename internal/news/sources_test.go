package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateFormats(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 30, 0, 0, time.UTC)

	cases := []struct {
		input string
		want  time.Time
	}{
		{"2025-12-03", date(2025, 12, 3)},
		{"2025-12-03T15:04:05Z", date(2025, 12, 3)},
		{"2025-12-03T15:04:05+08:00", date(2025, 12, 3)},
		{"03 Dec 2025", date(2025, 12, 3)},
		{"03 DEC 2025", date(2025, 12, 3)}, // Nature的全大写月份
		{"December 3, 2025", date(2025, 12, 3)},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseDate(tc.input, now), "input: %s", tc.input)
	}
}

func TestParseDateFallsBackToToday(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 30, 0, 0, time.UTC)
	today := date(2026, 8, 30)

	// 解析不了的日期降级为今天，不丢弃记录
	assert.Equal(t, today, ParseDate("", now))
	assert.Equal(t, today, ParseDate("not a date", now))
	assert.Equal(t, today, ParseDate("昨天", now))
}

func TestExtractReleaseDate(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 30, 0, 0, time.UTC)

	got := extractReleaseDate("/releases/2026/08/260829120000.htm", now)
	assert.Equal(t, date(2026, 8, 29), got)

	// 没有日期段的URL降级为今天
	got = extractReleaseDate("/news/top/science/", now)
	assert.Equal(t, date(2026, 8, 30), got)
}

const natureNewsHTML = `<html><body>
<div class="c-article-item__content">
  <h3 class="c-article-item__title">Astronomers spot a new millisecond pulsar</h3>
  <a href="/articles/d41586-026-00001-1">link</a>
  <span class="c-article-item__date">29 AUG 2026</span>
</div>
<div class="c-article-item__content">
  <h3 class="c-article-item__title">Working memory study surprises researchers</h3>
  <a href="https://www.nature.com/articles/d41586-026-00002-2">link</a>
  <span class="c-article-item__date">30 AUG 2026</span>
</div>
<div class="c-article-item__content">
  <!-- 没有标题的条目被跳过 -->
  <a href="/articles/d41586-026-00003-3">link</a>
</div>
</body></html>`

func TestNatureNewsSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(natureNewsHTML))
	}))
	defer srv.Close()

	source := &NatureNewsSource{URL: srv.URL, Limit: 30, HTTPClient: srv.Client()}

	candidates, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "Astronomers spot a new millisecond pulsar", candidates[0].Title)
	assert.Equal(t, "https://www.nature.com/articles/d41586-026-00001-1", candidates[0].URL)
	assert.Equal(t, "Nature News", candidates[0].Source)
	assert.Equal(t, date(2026, 8, 29), candidates[0].Date)

	// 已是完整URL的不再加前缀
	assert.Equal(t, "https://www.nature.com/articles/d41586-026-00002-2", candidates[1].URL)
}

const scienceDailyHTML = `<html><body>
<a href="/releases/2026/08/260829093000.htm">Gravitational wave detector finds unusual signal in binary system</a>
<a href="/releases/2026/08/260829093000.htm">Gravitational wave detector finds unusual signal in binary system</a>
<a href="/releases/2026/08/260830110000.htm">Dopamine pathways reshape decision making under stress, study says</a>
<a href="/releases/2026/08/260830120000.htm">short</a>
<a href="/about.htm">About</a>
</body></html>`

func TestScienceDailySourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(scienceDailyHTML))
	}))
	defer srv.Close()

	source := &ScienceDailySource{SourceName: "ScienceDaily", URL: srv.URL, Limit: 50, HTTPClient: srv.Client()}

	candidates, err := source.Fetch(context.Background())
	require.NoError(t, err)
	// 重复URL、过短标题、非releases链接都被跳过
	require.Len(t, candidates, 2)

	assert.Equal(t, "https://www.sciencedaily.com/releases/2026/08/260829093000.htm", candidates[0].URL)
	assert.Equal(t, date(2026, 8, 29), candidates[0].Date)
	assert.Equal(t, date(2026, 8, 30), candidates[1].Date)
}

func TestScienceDailySourceRespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(scienceDailyHTML))
	}))
	defer srv.Close()

	source := &ScienceDailySource{SourceName: "ScienceDaily", URL: srv.URL, Limit: 1, HTTPClient: srv.Client()}

	candidates, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestSourceFetchErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	source := &NatureNewsSource{URL: srv.URL, Limit: 30, HTTPClient: srv.Client()}

	_, err := source.Fetch(context.Background())
	assert.Error(t, err)
}

const rssFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Nature</title>
<item>
  <title>Neutron star merger observed in nearby galaxy</title>
  <link>https://www.nature.com/articles/x1</link>
  <pubDate>Sat, 29 Aug 2026 08:00:00 GMT</pubDate>
</item>
<item>
  <title>Metacognition in children develops earlier than thought</title>
  <link>https://www.nature.com/articles/x2</link>
</item>
</channel></rss>`

func TestRSSSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFeedXML))
	}))
	defer srv.Close()

	source := &RSSSource{SourceName: "Nature News", URL: srv.URL, Limit: 30, HTTPClient: srv.Client()}

	candidates, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "Neutron star merger observed in nearby galaxy", candidates[0].Title)
	assert.Equal(t, date(2026, 8, 29), candidates[0].Date)
	// 没有pubDate的条目日期默认为今天
	assert.False(t, candidates[1].Date.IsZero())
}
