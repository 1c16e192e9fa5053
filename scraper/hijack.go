package scraper

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to protocol resource types.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// adDomains are ad and tracking hosts dropped when ad blocking is on.
var adDomains = map[string]struct{}{
	"doubleclick.net":                {},
	"googlesyndication.com":          {},
	"googleadservices.com":           {},
	"google-analytics.com":           {},
	"googletagmanager.com":           {},
	"googletagservices.com":          {},
	"facebook.net":                   {},
	"connect.facebook.net":           {},
	"facebook.com":                   {},
	"fbcdn.net":                      {},
	"adnxs.com":                      {},
	"adsrvr.org":                     {},
	"amazon-adsystem.com":            {},
	"criteo.com":                     {},
	"criteo.net":                     {},
	"outbrain.com":                   {},
	"taboola.com":                    {},
	"moatads.com":                    {},
	"pubmatic.com":                   {},
	"rubiconproject.com":             {},
	"scorecardresearch.com":          {},
	"quantserve.com":                 {},
	"hotjar.com":                     {},
	"mixpanel.com":                   {},
	"segment.io":                     {},
	"segment.com":                    {},
	"analytics.twitter.com":          {},
	"ads-twitter.com":                {},
	"static.ads-twitter.com":         {},
	"chartbeat.com":                  {},
	"chartbeat.net":                  {},
	"optimizely.com":                 {},
	"zedo.com":                       {},
	"media.net":                      {},
	"contextweb.com":                 {},
	"bidswitch.net":                  {},
	"openx.net":                      {},
	"casalemedia.com":                {},
	"demdex.net":                     {},
	"krxd.net":                       {},
	"bluekai.com":                    {},
	"exelator.com":                   {},
	"turn.com":                       {},
	"mathtag.com":                    {},
	"serving-sys.com":                {},
	"eyeota.net":                     {},
	"agkn.com":                       {},
	"rlcdn.com":                      {},
	"sharethis.com":                  {},
	"addthis.com":                    {},
	"consensu.org":                   {},
}

// isAdDomain reports whether host or any parent domain is an ad host,
// e.g. "pagead2.googlesyndication.com".
func isAdDomain(host string) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := adDomains[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			break
		}
		host = host[i+1:]
	}
	return false
}

// blocker decides which requests a page may make.
type blocker struct {
	types    map[proto.NetworkResourceType]struct{}
	blockAds bool
}

func newBlocker(typeNames []string, blockAds bool) *blocker {
	types := make(map[proto.NetworkResourceType]struct{}, len(typeNames))
	for _, name := range typeNames {
		if rt, ok := resourceTypes[name]; ok {
			types[rt] = struct{}{}
		}
	}
	return &blocker{types: types, blockAds: blockAds}
}

func (b *blocker) blocks(rt proto.NetworkResourceType, rawURL string) bool {
	if _, ok := b.types[rt]; ok {
		return true
	}
	if b.blockAds {
		if u, err := url.Parse(rawURL); err == nil && isAdDomain(u.Hostname()) {
			return true
		}
	}
	return false
}

// mount installs the request interceptor on page. It returns nil when
// nothing is blocked; otherwise the caller must Stop the router.
func (b *blocker) mount(page *rod.Page) *rod.HijackRouter {
	if len(b.types) == 0 && !b.blockAds {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if b.blocks(h.Request.Type(), h.Request.URL().String()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// Run blocks until Stop.
	go router.Run()
	return router
}
