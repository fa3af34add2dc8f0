package render

import (
	"regexp"
	"strings"

	"github.com/russross/blackfriday"
)

const (
	htmlFlags = blackfriday.HTML_SKIP_HTML |
		blackfriday.HTML_SKIP_IMAGES |
		blackfriday.HTML_SKIP_STYLE |
		blackfriday.HTML_SAFELINK

	extensions = blackfriday.EXTENSION_NO_INTRA_EMPHASIS |
		blackfriday.EXTENSION_FENCED_CODE |
		blackfriday.EXTENSION_STRIKETHROUGH |
		blackfriday.EXTENSION_AUTOLINK
)

// Telegram accepts only a handful of inline tags, so block tags emitted by
// the markdown renderer are rewritten to plain text structure.
var replacements = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile(`<p>`), ""},
	{regexp.MustCompile(`</p>`), "\n"},
	{regexp.MustCompile(`<h[1-6][^>]*>`), "<b>"},
	{regexp.MustCompile(`</h[1-6]>`), "</b>\n"},
	{regexp.MustCompile(`</?(ul|ol)>`), ""},
	{regexp.MustCompile(`<li>`), "• "},
	{regexp.MustCompile(`</li>`), ""},
	{regexp.MustCompile(`<br\s*/?>`), "\n"},
	{regexp.MustCompile(`<hr\s*/?>`), "\n"},
	{regexp.MustCompile(`</?(table|thead|tbody|tr|th|td)[^>]*>`), " "},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// ToHTML renders markdown to the HTML subset Telegram's HTML parse mode accepts.
func ToHTML(markdown string) string {
	renderer := blackfriday.HtmlRenderer(htmlFlags, "", "")
	out := string(blackfriday.Markdown([]byte(markdown), renderer, extensions))

	for _, r := range replacements {
		out = r.re.ReplaceAllString(out, r.with)
	}
	return strings.TrimSpace(out)
}
