package news

import (
	"testing"
	"time"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Macro Wire</title>
<item>
<title>Fed holds rates steady, signals one cut this year</title>
<link>https://example.com/fed-holds</link>
<description>&lt;p&gt;The FOMC left the federal funds &lt;b&gt;rate&lt;/b&gt; unchanged.&lt;/p&gt;</description>
<pubDate>Mon, 24 Aug 2026 14:05:00 -0500</pubDate>
</item>
<item>
<title></title>
<link>https://example.com/untitled</link>
</item>
<item>
<title>CPI rises 0.2 percent in July</title>
<link>https://example.com/cpi-july</link>
<description>Core inflation cooled for a third month.</description>
<pubDate>not-a-date</pubDate>
</item>
</channel>
</rss>`

func TestParseRSS(t *testing.T) {
	f := NewFetcher(nil, 0)
	feed := Feed{Name: "Macro Wire"}
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)

	articles, err := f.parseRSS([]byte(sampleRSS), feed, now)
	if err != nil {
		t.Fatalf("parseRSS returned error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles (untitled item dropped), got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "Fed holds rates steady, signals one cut this year" {
		t.Errorf("unexpected title: %q", first.Title)
	}
	if first.Body != "The FOMC left the federal funds rate unchanged." {
		t.Errorf("description markup not cleaned: %q", first.Body)
	}
	if first.Source != "Macro Wire" {
		t.Errorf("expected source Macro Wire, got %q", first.Source)
	}
	if first.Category != "central-bank" {
		t.Errorf("expected central-bank category, got %q", first.Category)
	}
	wantTime, _ := time.Parse(time.RFC1123Z, "Mon, 24 Aug 2026 14:05:00 -0500")
	if !first.PublishedAt.Equal(wantTime) {
		t.Errorf("expected published %v, got %v", wantTime, first.PublishedAt)
	}

	second := articles[1]
	if second.Category != "economic-data" {
		t.Errorf("expected economic-data category, got %q", second.Category)
	}
	if !second.PublishedAt.Equal(now) {
		t.Errorf("unparseable pubDate should fall back to fetch time, got %v", second.PublishedAt)
	}
}

func TestParseRSSStampsFeedCategory(t *testing.T) {
	f := NewFetcher(nil, 0)
	feed := Feed{Name: "Federal Reserve", Category: "central-bank"}

	articles, err := f.parseRSS([]byte(sampleRSS), feed, time.Now())
	if err != nil {
		t.Fatalf("parseRSS returned error: %v", err)
	}
	for _, a := range articles {
		if a.Category != "central-bank" {
			t.Errorf("feed category should override keyword match, got %q", a.Category)
		}
	}
}

const sampleHTML = `<html><body>
<article>
  <h3>Nasdaq futures slip in overnight trade</h3>
  <a href="/markets/nasdaq-slip">Read</a>
  <p>Tech names led the decline.</p>
</article>
<article>
  <h3></h3>
  <a href="/markets/empty">Read</a>
</article>
<article>
  <h3>Crude rallies on supply fears</h3>
  <a href="https://other.example.com/crude">Read</a>
</article>
</body></html>`

func TestParseHTMLHeadlines(t *testing.T) {
	f := NewFetcher(nil, 0)
	feed := Feed{Name: "Desk Page", URL: "https://news.example.com/markets", Format: "html"}
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)

	articles, err := f.parseHTML([]byte(sampleHTML), feed, now)
	if err != nil {
		t.Fatalf("parseHTML returned error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles (empty title dropped), got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "Nasdaq futures slip in overnight trade" {
		t.Errorf("unexpected title: %q", first.Title)
	}
	if first.URL != "https://news.example.com/markets/nasdaq-slip" {
		t.Errorf("relative href not resolved: %q", first.URL)
	}
	if first.Category != "futures" {
		t.Errorf("expected futures category, got %q", first.Category)
	}
	if first.Body != "Tech names led the decline." {
		t.Errorf("unexpected snippet: %q", first.Body)
	}

	second := articles[1]
	if second.URL != "https://other.example.com/crude" {
		t.Errorf("absolute href should pass through, got %q", second.URL)
	}
	if second.Category != "" {
		t.Errorf("expected no category for off-topic headline, got %q", second.Category)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Powell speech moves markets", "central-bank"},
		{"Nonfarm payroll beats estimates", "economic-data"},
		{"VIX spikes as stocks tumble", "volatility"},
		{"Treasury yields jump after auction", "futures"},
		{"Fed rate cut sparks futures rally", "central-bank"},
		{"Local sports roundup", ""},
	}

	for _, tt := range tests {
		if got := Categorize(tt.text); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"tags stripped", "<p>Stocks <b>rallied</b> on Friday.</p>", "Stocks rallied on Friday."},
		{"plain text untouched", "Plain text", "Plain text"},
		{"empty", "", ""},
		{"entities decoded", "Yields &amp; spreads widen", "Yields & spreads widen"},
		{"whitespace collapsed", "Line one\n\n   Line two", "Line one Line two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanHTML(tt.input); got != tt.want {
				t.Errorf("CleanHTML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePubDate(t *testing.T) {
	fallback := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)

	rfc1123z, _ := time.Parse(time.RFC1123Z, "Mon, 24 Aug 2026 14:05:00 -0500")
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc1123z", "Mon, 24 Aug 2026 14:05:00 -0500", rfc1123z},
		{"rfc3339", "2026-08-24T14:05:00Z", time.Date(2026, 8, 24, 14, 5, 0, 0, time.UTC)},
		{"garbage", "yesterday-ish", fallback},
		{"empty", "", fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parsePubDate(tt.raw, fallback); !got.Equal(tt.want) {
				t.Errorf("parsePubDate(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
