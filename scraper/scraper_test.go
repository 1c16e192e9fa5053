package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsBrowser(t *testing.T) {
	article := "<p>" + strings.Repeat("Spacious two bedroom apartment near the park. ", 20) + "</p>"

	tests := []struct {
		name string
		body string
		want bool
	}{
		{"static page", "<html><body>" + article + "</body></html>", false},
		{"spa shell", `<html><body><div id="root"></div><script src="/app.js"></script></body></html>`, true},
		{"empty root with text", `<html><body><div id="app"> </div>` + article + `</body></html>`, true},
		{"noscript notice", `<html><body>` + article + `<noscript>You need to enable JavaScript to run this app.</noscript></body></html>`, true},
		{"script heavy", "<html><body><p>" + strings.Repeat("word ", 60) + "</p>" + strings.Repeat("<script></script>", 12) + "</body></html>", true},
		{"text only in scripts", "<html><body><script>" + strings.Repeat("var x = 1;", 100) + "</script></body></html>", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, needsBrowser([]byte(tt.body)))
		})
	}
}

func TestExtractVisibleText(t *testing.T) {
	got := extractVisibleText([]byte(`<html><head><title>T</title></head><body><h1>Hello</h1><style>.a{}</style><p>world</p></body></html>`))
	assert.Equal(t, "Hello world ", got)
}

func TestIsAdDomain(t *testing.T) {
	assert.True(t, isAdDomain("doubleclick.net"))
	assert.True(t, isAdDomain("pagead2.GoogleSyndication.com"))
	assert.False(t, isAdDomain("example.com"))
	assert.False(t, isAdDomain(""))
}

func TestBlocker(t *testing.T) {
	b := newBlocker([]string{"Image", "Font", "Bogus"}, true)
	assert.Len(t, b.types, 2)

	assert.True(t, b.blocks(proto.NetworkResourceTypeImage, "https://example.com/a.png"))
	assert.True(t, b.blocks(proto.NetworkResourceTypeScript, "https://www.googletagmanager.com/gtm.js"))
	assert.False(t, b.blocks(proto.NetworkResourceTypeDocument, "https://example.com/"))

	off := newBlocker(nil, false)
	assert.False(t, off.blocks(proto.NetworkResourceTypeImage, "https://doubleclick.net/x"))
	assert.Nil(t, off.mount(nil))
}

func TestDomainMemory(t *testing.T) {
	dm := newDomainMemory(time.Hour)
	defer dm.Stop()

	assert.False(t, dm.Has("example.com"))
	dm.Add("example.com")
	assert.True(t, dm.Has("example.com"))

	dm.hosts.Store("stale.example", time.Now().Add(-time.Second))
	assert.False(t, dm.Has("stale.example"))

	dm.Add("")
	assert.False(t, dm.Has(""))
	dm.Stop()
}

func TestHTTPFetcher(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, chromeUA, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html><body>ok</body></html>")) //nolint:errcheck
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{}`)) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	f := newHTTPFetcher("")
	body, err := f.fetch(context.Background(), ts.URL+"/page")
	require.NoError(t, err)
	assert.Contains(t, string(body), "ok")

	_, err = f.fetch(context.Background(), ts.URL+"/json")
	assert.ErrorContains(t, err, "non-html")

	_, err = f.fetch(context.Background(), ts.URL+"/missing")
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestCategorizeError(t *testing.T) {
	assert.Equal(t, "SCRAPE_TIMEOUT", categorizeError(context.DeadlineExceeded, "x").Code)
	assert.Equal(t, "NAVIGATION_FAILED", categorizeError(assert.AnError, "x").Code)
}

func TestHostname(t *testing.T) {
	assert.Equal(t, "shop.example.com", hostname("https://shop.example.com:8443/a?b=1"))
	assert.Equal(t, "", hostname("::not a url"))
}
