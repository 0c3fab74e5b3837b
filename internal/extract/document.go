package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageData is the richer shape produced by in-page extraction, used when
// the passive HTML pass came back incomplete and the page had to be opened
// in a live tab.
type PageData struct {
	Title       string `json:"title"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Selector candidates per field, tried in order. The first matching element
// wins; later candidates are not tried once a field is set.
var (
	titleSelectors = []string{
		`h1[data-testid="product-title"]`,
		"h1.product-title",
		"#productTitle",
		"h1",
		"[data-product-title]",
	}
	priceSelectors = []string{
		`[data-testid="price"]`,
		".price",
		"#price",
		`[class*="price"]`,
		`[id*="price"]`,
	}
	imageSelectors = []string{
		`img[data-testid="product-image"]`,
		".product-image img",
		"#product-image",
		`img[alt*="product"]`,
		`img[src*="product"]`,
	}
	descriptionSelectors = []string{
		`[data-testid="product-description"]`,
		".product-description",
		"#productDescription",
		`[class*="description"]`,
	}
)

const descriptionLimit = 500

// ExtractFromDocument mines a fully rendered document. The JSON-LD/meta
// priority pass runs first; selector heuristics only fill fields that
// structured data left empty.
func ExtractFromDocument(doc *goquery.Document, pageURL string) PageData {
	data := PageData{URL: pageURL}

	structured := Result{URL: pageURL}
	fillFromDocument(doc, pageURL, &structured)
	data.Title = structured.Name
	data.Price = structured.Price
	data.Image = structured.Image

	base := originOf(pageURL)

	if data.Title == "" {
		if s := firstMatch(doc, titleSelectors); s != nil {
			data.Title = strings.TrimSpace(s.Text())
		}
	}
	if data.Price == "" {
		if s := firstMatch(doc, priceSelectors); s != nil {
			if m := priceRe.FindString(strings.TrimSpace(s.Text())); m != "" {
				data.Price = strings.ReplaceAll(m, ",", "")
			}
		}
	}
	if data.Image == "" {
		for _, sel := range imageSelectors {
			if src, ok := doc.Find(sel).First().Attr("src"); ok && src != "" {
				data.Image = ResolveURL(src, base)
				break
			}
		}
	}
	if data.Description == "" {
		if s := firstMatch(doc, descriptionSelectors); s != nil {
			data.Description = truncate(strings.TrimSpace(s.Text()), descriptionLimit)
		}
	}

	return data
}

// firstMatch returns the first element matched by the ordered candidates,
// or nil when none match.
func firstMatch(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
