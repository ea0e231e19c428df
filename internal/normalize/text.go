package normalize

import (
	"html"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// CleanText strips markup, unescapes entities and collapses whitespace.
func CleanText(s string) string {
	s = strict.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:max]), " ")
}

// ResolveURL makes ref absolute against origin. It reports false when the
// result is not an absolute http(s) URL.
func ResolveURL(origin, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	if !r.IsAbs() && origin != "" {
		base, err := url.Parse(origin)
		if err != nil {
			return "", false
		}
		r = base.ResolveReference(r)
	}
	if (r.Scheme != "http" && r.Scheme != "https") || r.Host == "" {
		return "", false
	}
	return r.String(), true
}

var imageMarkers = []string{
	"data:",
	"image/svg",
	"<svg",
	"placeholder",
	"spacer.gif",
	"blank.gif",
	"pixel.gif",
	"1x1.",
}

// UsableImage resolves raw against origin and rejects inline data, SVG
// markers and known placeholders.
func UsableImage(origin, raw string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return "", false
	}
	for _, m := range imageMarkers {
		if strings.Contains(lower, m) {
			return "", false
		}
	}
	return ResolveURL(origin, raw)
}
