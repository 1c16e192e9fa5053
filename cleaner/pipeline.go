package cleaner

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	readability "github.com/go-shiori/go-readability"
	"github.com/use-agent/harvest/models"
)

// Extraction modes accepted by Markdown.
const (
	ModeRaw         = "raw"
	ModeReadability = "readability"
)

// Cleaner turns rendered HTML into the markdown stored as a record's raw
// content:
//
//	Stage 1 (optional readability): keep only the main content
//	Stage 2 (markdown):             convert HTML → Markdown
//
// The converter is created once and reused across all requests (goroutine-safe).
type Cleaner struct {
	mdConverter *converter.Converter
}

// NewCleaner initialises the Cleaner with a pre-configured Markdown converter.
func NewCleaner() *Cleaner {
	return &Cleaner{
		mdConverter: newMarkdownConverter(),
	}
}

// Markdown converts rawHTML to markdown. Relative links resolve against
// sourceURL so pagination links survive as absolute URLs.
//
// Mode "raw" (default) converts the whole document; listing pages keep
// their navigation and pager. Mode "readability" narrows to the main
// article first and falls back to the full document when that fails.
func (c *Cleaner) Markdown(rawHTML, sourceURL, mode string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", nil
	}

	var article readability.Article
	switch mode {
	case ModeReadability:
		article, _ = ExtractContent(rawHTML, sourceURL)
	default:
		article = fallbackArticle(rawHTML)
	}

	content, err := ToMarkdown(c.mdConverter, article.Content, sourceURL)
	if err != nil {
		return "", models.NewScrapeError(
			models.ErrCodeReadability,
			"markdown conversion failed",
			err,
		)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		// Some pages render text the converter drops entirely (e.g. text
		// nodes in custom elements); keep the visible text instead.
		content = stripTags(article.Content)
		slog.Debug("markdown conversion produced nothing, using plain text",
			"url", sourceURL, "length", len(content),
		)
	}
	return content, nil
}

// stripTags extracts visible text from an HTML fragment by parsing it
// with goquery. Returns trimmed plain text.
func stripTags(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(doc.Text())
}
