package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBody caps the bytes read from a plain HTTP response.
const maxBody = 10 << 20

// chromeH1Spec builds Chrome's ClientHello with ALPN limited to http/1.1,
// since http.Transport cannot speak HTTP/2 over a utls connection. Specs
// carry per-handshake state, so each connection gets a fresh one.
func chromeH1Spec() *tls.ClientHelloSpec {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return nil
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	return &spec
}

// httpFetcher performs plain GETs with a Chrome TLS fingerprint.
type httpFetcher struct {
	client *http.Client
}

func newHTTPFetcher(proxy string) *httpFetcher {
	transport := &http.Transport{
		DialTLSContext:    dialTLSChrome,
		ForceAttemptHTTP2: false,
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &httpFetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

// fetch returns the HTML body of targetURL. Error statuses and non-HTML
// responses are errors so the caller can fall back to the browser.
func (f *httpFetcher) fetch(ctx context.Context, targetURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("httpfetch: HTTP %d for %s", resp.StatusCode, targetURL)
	}
	if ct := resp.Header.Get("Content-Type"); !isHTMLContentType(ct) {
		return nil, fmt.Errorf("httpfetch: non-html content-type %q", ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("httpfetch: read body: %w", err)
	}
	return body, nil
}

// dialTLSChrome establishes a TLS connection using the Chrome fingerprint.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	var tlsConn *tls.UConn
	if spec := chromeH1Spec(); spec != nil {
		tlsConn = tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
		if err := tlsConn.ApplyPreset(spec); err != nil {
			conn.Close()
			return nil, fmt.Errorf("httpfetch: apply tls spec: %w", err)
		}
	} else {
		tlsConn = tls.UClient(conn, &tls.Config{ServerName: host, NextProtos: []string{"http/1.1"}}, tls.HelloGolang)
	}

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// isHTMLContentType reports whether ct looks like HTML. A missing header
// is accepted.
func isHTMLContentType(ct string) bool {
	if ct == "" {
		return true
	}
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

var (
	reNoscript  = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)
	reEmptyRoot = regexp.MustCompile(`<div id="(root|app|__next)">\s*</div>`)
)

// needsBrowser guesses whether an HTTP-fetched page needs JS rendering:
// an SPA shell, a JS-required notice, or lots of scripts around little text.
func needsBrowser(body []byte) bool {
	bodyText := extractVisibleText(body)
	if len(bodyText) < 200 {
		return true
	}

	lower := strings.ToLower(string(body))
	if reEmptyRoot.MatchString(lower) || reNoscript.MatchString(lower) {
		return true
	}

	return strings.Count(lower, "<script") > 10 && len(bodyText) < 500
}

// extractVisibleText returns the text inside <body>, without tags or
// script/style/noscript content.
func extractVisibleText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "body":
				inBody = true
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
