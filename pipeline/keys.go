package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var nonWord = regexp.MustCompile(`\W+`)

// GenerateKey derives a record key from the URL's host part and the
// capture time, e.g. "www_example_com_2025_01_31__14_05_09_123456".
func GenerateKey(rawURL string, t time.Time) string {
	host := rawURL
	if i := strings.LastIndex(host, "//"); i >= 0 {
		host = host[i+2:]
	}
	if i := strings.Index(host, "/"); i >= 0 {
		host = host[:i]
	}
	domain := nonWord.ReplaceAllString(host, "_")
	return domain + "_" + t.Format("2006_01_02__15_04_05") + fmt.Sprintf("_%06d", t.Nanosecond()/1000)
}
