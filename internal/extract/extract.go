// Package extract recovers product name, price and image from arbitrary
// storefront markup. Sources are layered: JSON-LD structured data first,
// then Open Graph / product meta tags, then (for live documents) common
// storefront selectors. The first non-empty value wins per field.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Result is the best-effort outcome of parsing one product page.
type Result struct {
	Name  string `json:"name"`
	Price string `json:"price"` // numeric string, commas stripped; empty when unknown
	Image string `json:"image"`
	URL   string `json:"url"`
}

// Complete reports whether all three product fields were recovered.
func (r Result) Complete() bool {
	return r.Name != "" && r.Price != "" && r.Image != ""
}

var priceRe = regexp.MustCompile(`[\d,]+\.?\d*`)

// Extract parses raw HTML and fills a Result from it. It never fails:
// malformed blocks are skipped per-item and missing fields stay empty.
// Deterministic for identical input.
func Extract(html, pageURL string) Result {
	result := Result{URL: pageURL}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return result
	}
	fillFromDocument(doc, pageURL, &result)
	return result
}

// fillFromDocument runs the structured-data passes in priority order over a
// parsed document. Each pass only touches fields that are still empty, so a
// later source never overwrites an earlier one.
func fillFromDocument(doc *goquery.Document, pageURL string, result *Result) {
	for _, pass := range []func(*goquery.Document, string, *Result){jsonLDPass, metaPass} {
		pass(doc, originOf(pageURL), result)
		if result.Complete() {
			return
		}
	}
}

func jsonLDPass(doc *goquery.Document, base string, result *Result) {
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		applyJSONLD(s.Text(), base, result)
		return !result.Complete()
	})
}

func metaPass(doc *goquery.Document, base string, result *Result) {
	meta := metaContents(doc)
	if result.Name == "" {
		result.Name = meta["og:title"]
	}
	if result.Image == "" {
		if v := meta["og:image"]; v != "" {
			result.Image = ResolveURL(v, base)
		}
	}
	if result.Price == "" {
		result.Price = strings.ReplaceAll(meta["product:price:amount"], ",", "")
	}
	if result.Price == "" {
		if m := priceRe.FindString(meta["twitter:data1"]); m != "" {
			result.Price = strings.ReplaceAll(m, ",", "")
		}
	}
}

// metaContents builds a case-insensitive lookup of meta property/name to
// trimmed content. Later occurrences overwrite earlier ones.
func metaContents(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key, ok := s.Attr("property")
		if !ok {
			key, ok = s.Attr("name")
		}
		if !ok || key == "" {
			return
		}
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		meta[strings.ToLower(key)] = strings.TrimSpace(content)
	})
	return meta
}
