package cleaner

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// newMarkdownConverter creates a reusable, goroutine-safe Converter for
// extraction input. The base plugin strips script, style, iframe and head
// noise; commonmark renders the rest; the table plugin keeps listing
// tables intact with minimal padding.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// ToMarkdown converts HTML to Markdown. domain resolves relative URLs in
// <a> and <img> tags, which the pagination prompt relies on.
func ToMarkdown(conv *converter.Converter, htmlContent string, domain string) (string, error) {
	return conv.ConvertString(htmlContent, converter.WithDomain(domain))
}
