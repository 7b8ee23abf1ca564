package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang-ticker-analyzer/internal/analyzer/config"
	"golang-ticker-analyzer/pkg/logger"

	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
	gocache "github.com/patrickmn/go-cache"
)

// NewsRepository fetches recent headlines and extracts article bodies for the
// AI council context.
type NewsRepository interface {
	GetHeadlines(ctx context.Context, symbol string) ([]string, error)
	// NewsVelocity is headlines per hour over the trailing 24h window.
	NewsVelocity(ctx context.Context, symbol string) (float64, error)
	GetTopStory(ctx context.Context, symbol string) (string, error)
}

type newsRepository struct {
	client *http.Client
	cfg    *config.Config
	logger *logger.Logger
	parser *gofeed.Parser
	cache  *gocache.Cache
}

// NewNewsRepository creates a new RSS-backed news repository.
func NewNewsRepository(cfg *config.Config, log *logger.Logger) NewsRepository {
	return &newsRepository{
		client: &http.Client{Timeout: 30 * time.Second},
		cfg:    cfg,
		logger: log,
		parser: gofeed.NewParser(),
		cache:  gocache.New(10*time.Minute, 30*time.Minute),
	}
}

func (r *newsRepository) GetHeadlines(ctx context.Context, symbol string) ([]string, error) {
	feed, err := r.fetchFeed(ctx, symbol)
	if err != nil {
		return nil, err
	}

	limit := r.cfg.News.MaxHeadlines
	if limit <= 0 {
		limit = 10
	}

	headlines := make([]string, 0, limit)
	for _, item := range feed.Items {
		if len(headlines) >= limit {
			break
		}
		when := ""
		if item.PublishedParsed != nil {
			when = item.PublishedParsed.Format("2006-01-02 15:04")
		}
		headlines = append(headlines, fmt.Sprintf("[%s] %s", when, item.Title))
	}
	return headlines, nil
}

func (r *newsRepository) NewsVelocity(ctx context.Context, symbol string) (float64, error) {
	feed, err := r.fetchFeed(ctx, symbol)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	recent := 0
	for _, item := range feed.Items {
		if item.PublishedParsed != nil && item.PublishedParsed.After(cutoff) {
			recent++
		}
	}
	return float64(recent) / 24, nil
}

func (r *newsRepository) GetTopStory(ctx context.Context, symbol string) (string, error) {
	feed, err := r.fetchFeed(ctx, symbol)
	if err != nil {
		return "", err
	}
	if len(feed.Items) == 0 || feed.Items[0].Link == "" {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.Items[0].Link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read article: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		// An unparseable article is context we can live without.
		r.logger.Warn("Failed to extract article content", logger.ErrorField(err), logger.StringField("url", feed.Items[0].Link))
		return "", nil
	}

	content := doc.Content()
	const maxStory = 2000
	if len(content) > maxStory {
		content = content[:maxStory]
	}
	return content, nil
}

func (r *newsRepository) fetchFeed(ctx context.Context, symbol string) (*gofeed.Feed, error) {
	cacheKey := "feed:" + symbol
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.(*gofeed.Feed), nil
	}

	url := fmt.Sprintf("%s?s=%s&region=US&lang=en-US", r.cfg.News.RSSURL, symbol)
	feed, err := r.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse news feed: %w", err)
	}

	r.cache.Set(cacheKey, feed, gocache.DefaultExpiration)
	return feed, nil
}
