// Package fetch retrieves a web page and reduces it to its title and a
// bounded run of visible text.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/core"
	"github.com/miminai/mimin/internal/metrics"
)

const (
	// DefaultUserAgent is a desktop browser string.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

	defaultTimeout         = 10 * time.Second
	defaultMaxContentChars = 1000
	defaultMaxBodyBytes    = 2 << 20
	maxRedirects           = 5

	errorTitle = "Error"
	noTitle    = "No Title"
)

// Options configure a Fetcher.
type Options struct {
	Timeout              time.Duration
	UserAgent            string
	MaxContentChars      int
	MaxBodyBytes         int64
	InsecureSkipVerify   bool
	BlockPrivateNetworks bool
	Resolver             Resolver
	Logger               *logging.Logger
}

// Fetcher downloads pages. It never returns an error; failures come back as
// a page titled "Error".
type Fetcher struct {
	opts   Options
	client *http.Client
}

// New builds a Fetcher. Disabling certificate verification is logged as a
// warning.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxContentChars <= 0 {
		opts.MaxContentChars = defaultMaxContentChars
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.BlockPrivateNetworks {
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			Control:   guardDial,
		}
		transport.DialContext = dialer.DialContext
	}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // nolint:gosec // opt-in via fetch.insecure_skip_verify
		if opts.Logger != nil {
			opts.Logger.Warn("TLS certificate verification disabled for page fetches",
				zap.String("setting", "fetch.insecure_skip_verify"))
		}
	}

	f := &Fetcher{opts: opts}
	f.client = &http.Client{
		Timeout:       opts.Timeout,
		Transport:     transport,
		CheckRedirect: f.checkRedirect,
	}
	return f
}

// checkRedirect applies the same URL rules to every redirect hop as to the
// requested URL.
func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	_, err := ValidateURL(req.Context(), req.URL.String(), f.opts.BlockPrivateNetworks, f.opts.Resolver)
	return err
}

// Fetch retrieves url and extracts its title and text content.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) core.Page {
	start := time.Now()
	page, err := f.fetch(ctx, rawURL)
	metrics.RecordCollaboratorCall("fetch", "page", time.Since(start))
	if err != nil {
		metrics.RecordCollaboratorFailure("fetch", "page")
		if f.opts.Logger != nil {
			f.opts.Logger.Warn("page fetch failed",
				zap.String("url", rawURL),
				zap.Error(err))
		}
		return ErrorPage(rawURL, err)
	}
	return page
}

// ErrorPage is the sentinel page returned for a failed fetch.
func ErrorPage(rawURL string, err error) core.Page {
	return core.Page{
		URL:     rawURL,
		Title:   errorTitle,
		Content: fmt.Sprintf("Could not fetch content: %v", err),
	}
}

// IsErrorPage reports whether p is the sentinel failure page.
func IsErrorPage(p core.Page) bool {
	return p.Title == errorTitle && strings.HasPrefix(p.Content, "Could not fetch content: ")
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (core.Page, error) {
	u, err := ValidateURL(ctx, rawURL, f.opts.BlockPrivateNetworks, f.opts.Resolver)
	if err != nil {
		return core.Page{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return core.Page{}, err
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return core.Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.Page{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, f.opts.MaxBodyBytes))
	if err != nil {
		return core.Page{}, fmt.Errorf("parse html: %w", err)
	}
	return Extract(doc, u.String(), f.opts.MaxContentChars), nil
}

// Extract reads the title and visible text from doc. Script and style
// elements are dropped and whitespace runs collapse to single spaces.
func Extract(doc *goquery.Document, rawURL string, maxChars int) core.Page {
	title := strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
	if title == "" {
		title = noTitle
	}

	doc.Find("script, style").Remove()
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	text := strings.Join(strings.Fields(root.Text()), " ")

	runes := []rune(text)
	if maxChars > 0 && len(runes) > maxChars {
		text = string(runes[:maxChars]) + "..."
	}

	return core.Page{URL: rawURL, Title: title, Content: text}
}
