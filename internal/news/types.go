package news

import (
	"context"
	"time"
)

// Candidate 表示一条待筛选的新闻标题记录
type Candidate struct {
	Title  string    `json:"title"`
	URL    string    `json:"url"`
	Source string    `json:"source"`
	Date   time.Time `json:"date"` // 只保留日期部分
}

// Source 表示一个新闻源
type Source interface {
	Fetch(ctx context.Context) ([]Candidate, error)
	Name() string
}

// ArticleDetail 表示单篇文章的详细内容
type ArticleDetail struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	FullText string `json:"full_text"` // 已截断到上限
	URL      string `json:"url"`
}
