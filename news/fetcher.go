package news

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	models "github.com/Bam1010yod/TradingDashboard-sub000/database/models_pkg"
)

// Feed is one configured headline source.
type Feed struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"` // stamped on every article when the feed is single-topic
	Format   string `json:"format"`   // "rss" (default) or "html"

	// CSS selectors used when Format is "html". Item defaults to
	// "article", Title to "h3, h2", Link to "a".
	ItemSelector  string `json:"item_selector,omitempty"`
	TitleSelector string `json:"title_selector,omitempty"`
	LinkSelector  string `json:"link_selector,omitempty"`
}

// RSS document structure
type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// Fetcher pulls headlines from configured sources. One shared limiter
// paces all requests so a long feed list cannot hammer the sources.
type Fetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
	feeds   []Feed
}

// NewFetcher creates a fetcher for the given feeds, capped at
// requestsPerMinute across all of them.
func NewFetcher(feeds []Feed, requestsPerMinute int) *Fetcher {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1)

	return &Fetcher{
		client:  client,
		limiter: limiter,
		feeds:   feeds,
	}
}

// DefaultFeeds covers the macro calendar that moves index futures.
func DefaultFeeds() []Feed {
	return []Feed{
		{Name: "Federal Reserve", URL: "https://www.federalreserve.gov/feeds/press_all.xml", Category: "central-bank"},
		{Name: "CNBC Markets", URL: "https://www.cnbc.com/id/20910258/device/rss/rss.html"},
		{Name: "MarketWatch", URL: "https://feeds.marketwatch.com/marketwatch/topstories/"},
		{Name: "Yahoo Finance", URL: "https://finance.yahoo.com/news/rssindex"},
	}
}

// FetchAll pulls every configured feed and returns the combined articles.
// Individual feed failures are logged and skipped; the call errors only
// when every feed fails.
func (f *Fetcher) FetchAll(ctx context.Context) ([]models.NewsArticle, error) {
	var articles []models.NewsArticle
	failed := 0

	for _, feed := range f.feeds {
		batch, err := f.fetchFeed(ctx, feed)
		if err != nil {
			log.Printf("⚠️  News feed %s failed: %v", feed.Name, err)
			failed++
			continue
		}
		articles = append(articles, batch...)
	}

	if failed > 0 && failed == len(f.feeds) {
		return nil, fmt.Errorf("FetchAll: all %d feeds failed", failed)
	}
	return articles, nil
}

// fetchFeed downloads one source with retry and parses it per its format.
func (f *Fetcher) fetchFeed(ctx context.Context, feed Feed) ([]models.NewsArticle, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body []byte
	operation := func() error {
		resp, err := f.client.R().SetContext(ctx).Get(feed.URL)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", feed.Name, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("HTTP error %d from %s", resp.StatusCode(), feed.Name)
		}
		body = resp.Body()
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoffStrategy); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if feed.Format == "html" {
		return f.parseHTML(body, feed, now)
	}
	return f.parseRSS(body, feed, now)
}

// parseRSS converts an RSS payload into article rows. Items without a
// title or link are dropped.
func (f *Fetcher) parseRSS(body []byte, feed Feed, now time.Time) ([]models.NewsArticle, error) {
	var doc rssDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse RSS from %s: %w", feed.Name, err)
	}

	articles := make([]models.NewsArticle, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}

		body := CleanHTML(item.Description)
		category := feed.Category
		if category == "" {
			category = Categorize(title + " " + body)
		}

		articles = append(articles, models.NewsArticle{
			Title:       title,
			Body:        body,
			Source:      feed.Name,
			Category:    category,
			URL:         link,
			PublishedAt: parsePubDate(item.PubDate, now),
			FetchedAt:   now,
		})
	}
	return articles, nil
}

// parseHTML extracts headlines from an HTML page using the feed's
// selectors.
func (f *Fetcher) parseHTML(body []byte, feed Feed, now time.Time) ([]models.NewsArticle, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", feed.Name, err)
	}

	itemSelector := feed.ItemSelector
	if itemSelector == "" {
		itemSelector = "article"
	}
	titleSelector := feed.TitleSelector
	if titleSelector == "" {
		titleSelector = "h3, h2"
	}
	linkSelector := feed.LinkSelector
	if linkSelector == "" {
		linkSelector = "a"
	}

	var articles []models.NewsArticle
	doc.Find(itemSelector).Each(func(i int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find(titleSelector).First().Text())
		if title == "" {
			return
		}

		href, exists := s.Find(linkSelector).First().Attr("href")
		if !exists || href == "" {
			return
		}

		snippet := strings.TrimSpace(s.Find("p").First().Text())
		category := feed.Category
		if category == "" {
			category = Categorize(title + " " + snippet)
		}

		articles = append(articles, models.NewsArticle{
			Title:       title,
			Body:        snippet,
			Source:      feed.Name,
			Category:    category,
			URL:         absoluteURL(feed.URL, href),
			PublishedAt: now,
			FetchedAt:   now,
		})
	})
	return articles, nil
}

// Keyword buckets mapping headlines to the scorer's macro categories.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"central-bank", []string{"federal reserve", "fomc", "rate decision", "rate hike", "rate cut", "powell", "interest rate", "central bank"}},
	{"economic-data", []string{"cpi", "inflation", "nonfarm payroll", "jobs report", "gdp", "pmi", "retail sales", "unemployment"}},
	{"volatility", []string{"volatility", "vix", "selloff", "sell-off", "crash", "turmoil"}},
	{"futures", []string{"futures", "s&p 500", "nasdaq", "dow jones", "treasury yield"}},
}

// Categorize maps headline text to a macro category. Unmatched text gets
// an empty category and relies on keyword relevance downstream.
func Categorize(text string) string {
	text = strings.ToLower(text)
	for _, bucket := range categoryKeywords {
		for _, kw := range bucket.keywords {
			if strings.Contains(text, kw) {
				return bucket.category
			}
		}
	}
	return ""
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanHTML strips markup from an RSS description so keyword scoring sees
// plain text.
func CleanHTML(htmlContent string) string {
	if htmlContent == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return stripTags(htmlContent)
	}

	text := strings.TrimSpace(doc.Text())
	if text == "" {
		return stripTags(htmlContent)
	}
	return whitespacePattern.ReplaceAllString(text, " ")
}

// stripTags is the regex fallback when the snippet is not parseable HTML.
func stripTags(content string) string {
	content = htmlTagPattern.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "&nbsp;", " ")
	content = strings.ReplaceAll(content, "&amp;", "&")
	content = strings.ReplaceAll(content, "&lt;", "<")
	content = strings.ReplaceAll(content, "&gt;", ">")
	content = strings.ReplaceAll(content, "&quot;", "\"")
	content = strings.ReplaceAll(content, "&#39;", "'")
	content = whitespacePattern.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}

// parsePubDate handles the date formats seen across feeds, falling back
// to the fetch time when none match.
func parsePubDate(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	formats := []string{
		time.RFC1123Z,
		time.RFC1123,
		time.RFC3339,
	}
	for _, format := range formats {
		if t, err := time.Parse(format, raw); err == nil {
			return t
		}
	}
	return fallback
}

// absoluteURL resolves relative hrefs against the feed's host.
func absoluteURL(feedURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	base, err := url.Parse(feedURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
