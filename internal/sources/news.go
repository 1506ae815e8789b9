package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	radar "risk-radar/internal/radar/domain"
)

const defaultNewsAPIURL = "https://newsapi.org/v2/top-headlines"

var geopoliticalKeywords = []string{
	"war", "invasion", "military", "sanctions", "tariff", "trade war",
	"conflict", "nuclear", "missile", "attack", "terrorism", "coup",
}

var presidentialKeywords = []string{
	"president", "executive order", "white house", "oval office",
	"presidential address", "state of the union", "emergency declaration",
}

var regulatoryKeywords = []string{
	"sec", "cftc", "fed", "federal reserve", "treasury", "regulation",
	"enforcement", "investigation", "subpoena", "lawsuit", "antitrust",
}

// Article is a headline from the news API.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PublishedAt string `json:"publishedAt"`
}

type headlinesResponse struct {
	Status   string    `json:"status"`
	Articles []Article `json:"articles"`
}

// NewsMonitor polls a headline feed and emits tier 3 events for
// unscheduled market-moving news. Keyword matching handles the common
// cases; an optional classifier picks up articles the keywords miss.
type NewsMonitor struct {
	apiKey     string
	apiURL     string
	client     *http.Client
	clock      Clock
	classifier Classifier
	logger     *log.Logger
}

// NewsOption customizes a NewsMonitor.
type NewsOption func(*NewsMonitor)

// WithNewsAPIURL overrides the headline endpoint.
func WithNewsAPIURL(u string) NewsOption {
	return func(m *NewsMonitor) {
		if u != "" {
			m.apiURL = u
		}
	}
}

// WithNewsClient overrides the HTTP client.
func WithNewsClient(client *http.Client) NewsOption {
	return func(m *NewsMonitor) {
		if client != nil {
			m.client = client
		}
	}
}

// WithNewsClock overrides the monitor clock.
func WithNewsClock(clock Clock) NewsOption {
	return func(m *NewsMonitor) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithClassifier attaches a fallback classifier for unmatched articles.
func WithClassifier(c Classifier) NewsOption {
	return func(m *NewsMonitor) {
		m.classifier = c
	}
}

// NewNewsMonitor builds the news monitor source.
func NewNewsMonitor(apiKey string, logger *log.Logger, opts ...NewsOption) (*NewsMonitor, error) {
	if logger == nil {
		return nil, errors.New("news monitor: nil logger")
	}
	m := &NewsMonitor{
		apiKey: apiKey,
		apiURL: defaultNewsAPIURL,
		client: &http.Client{Timeout: 15 * time.Second},
		clock:  systemClock{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Name returns the source name.
func (m *NewsMonitor) Name() string { return "news-monitor" }

// FetchEvents polls the headline feed and classifies articles. Without
// an API key it returns no events.
func (m *NewsMonitor) FetchEvents(ctx context.Context) ([]radar.Event, error) {
	if m.apiKey == "" {
		return nil, nil
	}
	articles, err := m.pollHeadlines(ctx)
	if err != nil {
		return nil, err
	}
	var events []radar.Event
	for _, article := range articles {
		if event, ok := m.classifyArticle(ctx, article); ok {
			events = append(events, event)
		}
	}
	return events, nil
}

func (m *NewsMonitor) pollHeadlines(ctx context.Context) ([]Article, error) {
	params := url.Values{}
	params.Set("apiKey", m.apiKey)
	params.Set("category", "business")
	params.Set("country", "us")
	params.Set("pageSize", "50")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("news monitor: build request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news monitor: poll headlines: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, fmt.Errorf("news monitor: unexpected status %d", resp.StatusCode)
	}
	var parsed headlinesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("news monitor: decode response: %w", err)
	}
	return parsed.Articles, nil
}

func (m *NewsMonitor) classifyArticle(ctx context.Context, article Article) (radar.Event, bool) {
	content := strings.ToLower(article.Title + " " + article.Description)

	category, ok := detectCategory(content)
	if !ok {
		return m.classifyWithFallback(ctx, article)
	}

	impactHours := 6
	switch category {
	case radar.CategoryGeopolitical:
		impactHours = 24
	case radar.CategoryRegulatory:
		impactHours = 12
	}

	return radar.Event{
		ID:             newEventID("news"),
		Title:          articleTitle(article),
		Category:       category,
		Tier:           radar.Tier3,
		ScheduledTime:  m.publishedTime(article),
		ImpactWindow:   time.Duration(impactHours) * time.Hour,
		AffectedAssets: affectedAssets(category, content),
	}, true
}

func (m *NewsMonitor) classifyWithFallback(ctx context.Context, article Article) (radar.Event, bool) {
	if m.classifier == nil {
		return radar.Event{}, false
	}
	result, err := m.classifier.ClassifyNews(ctx, article.Title, article.Description)
	if err != nil {
		m.logger.Printf("news monitor: classify %q: %v", article.Title, err)
		return radar.Event{}, false
	}
	if !result.MarketMoving || result.Confidence < 0.5 {
		return radar.Event{}, false
	}
	return radar.Event{
		ID:             newEventID("news"),
		Title:          articleTitle(article),
		Category:       result.Category,
		Tier:           result.Tier,
		ScheduledTime:  m.publishedTime(article),
		ImpactWindow:   time.Duration(result.ImpactHours) * time.Hour,
		AffectedAssets: result.AffectedAssets,
	}, true
}

func (m *NewsMonitor) publishedTime(article Article) time.Time {
	if article.PublishedAt != "" {
		if t, err := time.Parse(time.RFC3339, article.PublishedAt); err == nil {
			return t
		}
	}
	return m.clock.Now().UTC()
}

func articleTitle(article Article) string {
	if article.Title == "" {
		return "Unknown News Event"
	}
	return article.Title
}

func detectCategory(content string) (radar.Category, bool) {
	for _, kw := range geopoliticalKeywords {
		if strings.Contains(content, kw) {
			return radar.CategoryGeopolitical, true
		}
	}
	for _, kw := range presidentialKeywords {
		if strings.Contains(content, kw) {
			return radar.CategoryGeopolitical, true
		}
	}
	for _, kw := range regulatoryKeywords {
		if strings.Contains(content, kw) {
			return radar.CategoryRegulatory, true
		}
	}
	return "", false
}

func affectedAssets(category radar.Category, content string) []string {
	set := map[string]bool{"SPY": true, "QQQ": true}

	if category == radar.CategoryGeopolitical {
		set["BTC"] = true
		set["GOLD"] = true
	}
	if category == radar.CategoryRegulatory {
		if strings.Contains(content, "crypto") || strings.Contains(content, "bitcoin") ||
			strings.Contains(content, "digital asset") {
			set["BTC"] = true
		}
		set["GOLD"] = true
	}
	if strings.Contains(content, "gold") || strings.Contains(content, "precious metal") {
		set["GOLD"] = true
	}
	if strings.Contains(content, "bitcoin") || strings.Contains(content, "crypto") {
		set["BTC"] = true
	}

	assets := make([]string, 0, len(set))
	for asset := range set {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}
