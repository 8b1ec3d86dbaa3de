package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>  Mimin   Test Page </title>
  <style>body { color: red; }</style>
</head>
<body>
  <h1>Hello</h1>
  <script>var secret = "do not index";</script>
  <p>First    paragraph
     spans lines.</p>
  <p>Second paragraph.</p>
</body>
</html>`

func TestFetchExtractsTitleAndText(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	f := New(Options{})
	page := f.Fetch(context.Background(), srv.URL)

	assert.Equal(t, "Mimin Test Page", page.Title)
	assert.Equal(t, "Hello First paragraph spans lines. Second paragraph.", page.Content)
	assert.NotContains(t, page.Content, "secret")
	assert.NotContains(t, page.Content, "color")
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.False(t, IsErrorPage(page))
}

func TestFetchTruncatesContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", strings.Repeat("word ", 400))
	}))
	defer srv.Close()

	page := New(Options{}).Fetch(context.Background(), srv.URL)
	assert.Equal(t, "No Title", page.Title)
	require.True(t, strings.HasSuffix(page.Content, "..."))
	assert.Len(t, []rune(page.Content), 1003)
}

func TestFetchFailuresReturnErrorPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Options{})
	cases := map[string]string{
		srv.URL:             "HTTP 404",
		"ftp://example.com": "unsupported url scheme",
		"":                  "empty url",
		"http://":           "url host is required",
	}
	for url, want := range cases {
		page := f.Fetch(context.Background(), url)
		assert.True(t, IsErrorPage(page), url)
		assert.Equal(t, "Error", page.Title)
		assert.Contains(t, page.Content, "Could not fetch content: ")
		assert.Contains(t, page.Content, want, url)
	}
}

func TestFetchBlocksPrivateNetworks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	page := New(Options{BlockPrivateNetworks: true}).Fetch(context.Background(), srv.URL)
	assert.True(t, IsErrorPage(page))
	assert.Contains(t, page.Content, ErrBlockedAddress.Error())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// redirectingTransport answers requests for host with a 302 to target and
// sends everything else over the default transport.
func redirectingTransport(host, target string) http.RoundTripper {
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.Hostname() != host {
			return http.DefaultTransport.RoundTrip(r)
		}
		rec := httptest.NewRecorder()
		http.Redirect(rec, r, target, http.StatusFound)
		resp := rec.Result()
		resp.Request = r
		return resp, nil
	})
}

func TestFetchRejectsRedirectToPrivateNetwork(t *testing.T) {
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><head><title>admin</title></head><body>internal admin data</body></html>")
	}))
	defer internal.Close()

	resolver := fakeResolver{"public.example": {{IP: net.ParseIP("93.184.216.34")}}}

	open := New(Options{Resolver: resolver})
	open.client.Transport = redirectingTransport("public.example", internal.URL)
	page := open.Fetch(context.Background(), "http://public.example/")
	require.False(t, IsErrorPage(page), page.Content)
	assert.Equal(t, "admin", page.Title)

	blocked := New(Options{BlockPrivateNetworks: true, Resolver: resolver})
	blocked.client.Transport = redirectingTransport("public.example", internal.URL)
	page = blocked.Fetch(context.Background(), "http://public.example/")
	assert.True(t, IsErrorPage(page))
	assert.Contains(t, page.Content, ErrBlockedAddress.Error())
	assert.NotContains(t, page.Content, "internal admin data")
}

func TestFetchStopsRedirectLoops(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	page := New(Options{}).Fetch(context.Background(), srv.URL+"/")
	assert.True(t, IsErrorPage(page))
	assert.Contains(t, page.Content, "stopped after 5 redirects")
}

func TestGuardDial(t *testing.T) {
	for address, blocked := range map[string]bool{
		"93.184.216.34:443":    false,
		"[2606:4700::1111]:80": false,
		"127.0.0.1:80":         true,
		"10.0.0.7:8080":        true,
		"169.254.169.254:80":   true,
		"[::1]:443":            true,
	} {
		err := guardDial("tcp", address, nil)
		if blocked {
			assert.ErrorIs(t, err, ErrBlockedAddress, address)
		} else {
			assert.NoError(t, err, address)
		}
	}
}

func TestFetchInsecureSkipVerify(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	page := New(Options{}).Fetch(context.Background(), srv.URL)
	assert.True(t, IsErrorPage(page), "self-signed certificate must be rejected by default")

	page = New(Options{InsecureSkipVerify: true}).Fetch(context.Background(), srv.URL)
	assert.False(t, IsErrorPage(page))
	assert.Equal(t, "Mimin Test Page", page.Title)
}

type fakeResolver map[string][]net.IPAddr

func (f fakeResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	addrs, ok := f[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	return addrs, nil
}

func TestValidateURL(t *testing.T) {
	resolver := fakeResolver{
		"public.example":   {{IP: net.ParseIP("93.184.216.34")}},
		"intranet.example": {{IP: net.ParseIP("10.1.2.3")}},
	}
	ctx := context.Background()

	_, err := ValidateURL(ctx, "https://public.example/path", true, resolver)
	assert.NoError(t, err)

	for _, raw := range []string{
		"http://intranet.example",
		"http://127.0.0.1:8080",
		"http://[::1]/",
		"http://localhost",
		"http://printer.local",
		"http://169.254.169.254/latest/meta-data",
	} {
		_, err := ValidateURL(ctx, raw, true, resolver)
		assert.ErrorIs(t, err, ErrBlockedAddress, raw)
	}

	_, err = ValidateURL(ctx, "http://unknown.example", true, resolver)
	assert.ErrorContains(t, err, "failed to resolve host")

	_, err = ValidateURL(ctx, "http://127.0.0.1:8080", false, resolver)
	assert.NoError(t, err)
}
