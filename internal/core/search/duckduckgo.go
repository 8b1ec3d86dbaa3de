package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Backend types.
const (
	BackendDuckDuckGo = "duckduckgo"
	BackendTavily     = "tavily"
)

const (
	duckDuckGoHTMLBase = "https://html.duckduckgo.com"
	duckDuckGoAPIBase  = "https://duckduckgo.com"
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	maxResponseBytes   = 2 << 20
)

var vqdPattern = regexp.MustCompile(`vqd=["']?([0-9-]+)["']?`)

// ErrNoToken is returned when DuckDuckGo does not hand out a news token.
var ErrNoToken = errors.New("duckduckgo: vqd token not found")

// DuckDuckGo queries the keyless DuckDuckGo endpoints: the HTML results page
// for web hits and the news.js feed for news.
type DuckDuckGo struct {
	htmlBase  string
	apiBase   string
	region    string
	userAgent string
	client    *http.Client
}

// NewDuckDuckGo builds the DuckDuckGo backend. BaseURL, when set, replaces
// both endpoints.
func NewDuckDuckGo(cfg BackendConfig) (Backend, error) {
	d := &DuckDuckGo{
		htmlBase:  duckDuckGoHTMLBase,
		apiBase:   duckDuckGoAPIBase,
		region:    cfg.Region,
		userAgent: cfg.UserAgent,
		client:    cfg.client(),
	}
	if cfg.BaseURL != "" {
		base := strings.TrimRight(cfg.BaseURL, "/")
		d.htmlBase, d.apiBase = base, base
	}
	if d.region == "" {
		d.region = "wt-wt"
	}
	if d.userAgent == "" {
		d.userAgent = defaultUserAgent
	}
	return d, nil
}

func (d *DuckDuckGo) Name() string { return BackendDuckDuckGo }

// Text returns web results scraped from the HTML results page.
func (d *DuckDuckGo) Text(ctx context.Context, query string, limit int) ([]RawResult, error) {
	params := url.Values{"q": {query}, "kl": {d.region}}
	resp, err := d.get(ctx, d.htmlBase+"/html/?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse html: %w", err)
	}

	var results []RawResult
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if limit > 0 && len(results) >= limit {
			return false
		}
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		href, _ := link.Attr("href")
		r := RawResult{
			Title: strings.TrimSpace(link.Text()),
			URL:   resolveRedirect(href),
			Body:  strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		}
		if r.Title == "" && r.URL == "" {
			return true
		}
		results = append(results, r)
		return true
	})
	return results, nil
}

// News returns news results from the JSON news feed.
func (d *DuckDuckGo) News(ctx context.Context, query string, limit int) ([]RawResult, error) {
	vqd, err := d.token(ctx, query)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"q":     {query},
		"vqd":   {vqd},
		"l":     {d.region},
		"o":     {"json"},
		"noamp": {"1"},
	}
	resp, err := d.get(ctx, d.apiBase+"/news.js?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Excerpt string `json:"excerpt"`
			Source  string `json:"source"`
		} `json:"results"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("duckduckgo: decode news: %w", err)
	}

	results := make([]RawResult, 0, len(payload.Results))
	for _, item := range payload.Results {
		if limit > 0 && len(results) >= limit {
			break
		}
		results = append(results, RawResult{
			Title: item.Title,
			URL:   item.URL,
			Body:  stripTags(item.Excerpt),
		})
	}
	return results, nil
}

func (d *DuckDuckGo) token(ctx context.Context, query string) (string, error) {
	resp, err := d.get(ctx, d.apiBase+"/?"+url.Values{"q": {query}}.Encode())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("duckduckgo: read token page: %w", err)
	}
	m := vqdPattern.FindSubmatch(body)
	if m == nil {
		return "", ErrNoToken
	}
	return string(m[1]), nil
}

func (d *DuckDuckGo) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: build request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("duckduckgo: HTTP %d", resp.StatusCode)
	}
	return resp, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
