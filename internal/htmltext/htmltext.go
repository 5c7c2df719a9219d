// Package htmltext extracts the visible text of feed summary markup.
package htmltext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extract returns the visible text of an HTML fragment with whitespace
// collapsed, and the src of its first absolute http(s) image. Images,
// scripts, styles and embedded frames contribute no text.
func Extract(raw string) (text, imageURL string) {
	if strings.TrimSpace(raw) == "" {
		return "", ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.Join(strings.Fields(raw), " "), ""
	}

	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		src = strings.TrimSpace(src)
		if strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "http://") {
			imageURL = src
			return false
		}
		return true
	})
	doc.Find("img, script, style, noscript, iframe").Remove()

	return strings.Join(strings.Fields(doc.Text()), " "), imageURL
}
