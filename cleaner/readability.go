package cleaner

import (
	"errors"
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum TextContent length (in characters) for
// readability output to count as the page's main content.
const minContentLength = 50

var errTooShort = errors.New("extracted content too short")

// ExtractContent runs the Mozilla Readability algorithm on rawHTML.
//
// A fetch must never fail just because readability choked, so every
// failure (bad URL, parser error, fewer than minContentLength characters
// extracted) returns the raw HTML wrapped as an Article and false.
func ExtractContent(rawHTML string, sourceURL string) (readability.Article, bool) {
	article, err := readArticle(rawHTML, sourceURL)
	if err != nil {
		slog.Debug("readability: using full document",
			"url", sourceURL, "reason", err,
		)
		return fallbackArticle(rawHTML), false
	}
	return article, true
}

func readArticle(rawHTML, sourceURL string) (readability.Article, error) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		return readability.Article{}, err
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return readability.Article{}, err
	}
	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		return readability.Article{}, errTooShort
	}
	return article, nil
}

// fallbackArticle wraps raw HTML into an Article so both modes share the
// conversion step.
func fallbackArticle(rawHTML string) readability.Article {
	return readability.Article{
		Content:     rawHTML,
		TextContent: rawHTML,
	}
}
