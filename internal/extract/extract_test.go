package extract_test

import (
	"strings"
	"testing"

	"marketshopper/internal/extract"
)

const pageURL = "https://shop.example/p/1"

// ── JSON-LD source ─────────────────────────────────────────────────────────

func TestExtract_JSONLDProduct(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">
{"@type":"Product","name":" Espresso Machine ","image":"https://cdn.example/em.jpg",
 "offers":{"price":"349.00","priceCurrency":"USD"}}
</script>
</head><body></body></html>`

	got := extract.Extract(html, pageURL)
	if got.Name != "Espresso Machine" {
		t.Errorf("Name = %q, want %q", got.Name, "Espresso Machine")
	}
	if got.Price != "349.00" {
		t.Errorf("Price = %q, want %q", got.Price, "349.00")
	}
	if got.Image != "https://cdn.example/em.jpg" {
		t.Errorf("Image = %q, want %q", got.Image, "https://cdn.example/em.jpg")
	}
	if got.URL != pageURL {
		t.Errorf("URL = %q, want %q", got.URL, pageURL)
	}
}

// JSON-LD beats Open Graph when both carry a name.
func TestExtract_JSONLDWinsOverMeta(t *testing.T) {
	html := `<html><head>
<meta property="og:title" content="B">
<script type="application/ld+json">{"@type":"Product","name":"A"}</script>
</head></html>`

	got := extract.Extract(html, pageURL)
	if got.Name != "A" {
		t.Errorf("Name = %q, want JSON-LD value %q", got.Name, "A")
	}
}

func TestExtract_CommaStrippedFromOfferPrice(t *testing.T) {
	html := `<script type="application/ld+json">
{"@type":"Product","name":"TV","offers":{"price":"1,299.00"}}
</script>`

	got := extract.Extract(html, pageURL)
	if got.Price != "1299.00" {
		t.Errorf("Price = %q, want %q", got.Price, "1299.00")
	}
}

func TestExtract_OfferShapes(t *testing.T) {
	cases := []struct {
		name  string
		block string
		want  string
	}{
		{"single offer numeric price", `{"@type":"Product","offers":{"price":12.5}}`, "12.5"},
		{"offer array takes first", `{"@type":"Product","offers":[{"price":"10"},{"price":"99"}]}`, "10"},
		{"lowPrice fallback", `{"@type":"Product","offers":{"lowPrice":"8.99","highPrice":"12.99"}}`, "8.99"},
		{"price preferred over lowPrice", `{"@type":"Product","offers":{"price":"11","lowPrice":"9"}}`, "11"},
		{"no offers", `{"@type":"Product","name":"X"}`, ""},
	}
	for _, c := range cases {
		html := `<script type="application/ld+json">` + c.block + `</script>`
		got := extract.Extract(html, pageURL)
		if got.Price != c.want {
			t.Errorf("%s: Price = %q, want %q", c.name, got.Price, c.want)
		}
	}
}

func TestExtract_ImageShapes(t *testing.T) {
	cases := []struct {
		name  string
		block string
		want  string
	}{
		{"string", `{"@type":"Product","image":"https://cdn.example/a.jpg"}`, "https://cdn.example/a.jpg"},
		{"array of strings", `{"@type":"Product","image":["https://cdn.example/a.jpg","https://cdn.example/b.jpg"]}`, "https://cdn.example/a.jpg"},
		{"object with url", `{"@type":"Product","image":{"@type":"ImageObject","url":"https://cdn.example/o.jpg"}}`, "https://cdn.example/o.jpg"},
		{"array of objects", `{"@type":"Product","image":[{"url":"https://cdn.example/first.jpg"}]}`, "https://cdn.example/first.jpg"},
		{"relative path resolved", `{"@type":"Product","image":"/img/x.jpg"}`, "https://shop.example/img/x.jpg"},
	}
	for _, c := range cases {
		html := `<script type="application/ld+json">` + c.block + `</script>`
		got := extract.Extract(html, pageURL)
		if got.Image != c.want {
			t.Errorf("%s: Image = %q, want %q", c.name, got.Image, c.want)
		}
	}
}

func TestExtract_GraphAndArrayShapes(t *testing.T) {
	graph := `<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":"WebPage","name":"ignored"},
  {"@type":"Product","name":"Graph Product","offers":{"price":"5"}}
]}
</script>`
	got := extract.Extract(graph, pageURL)
	if got.Name != "Graph Product" || got.Price != "5" {
		t.Errorf("@graph: got %+v", got)
	}

	arr := `<script type="application/ld+json">
[{"@type":"BreadcrumbList"},{"@type":"Product","name":"Array Product"}]
</script>`
	got = extract.Extract(arr, pageURL)
	if got.Name != "Array Product" {
		t.Errorf("array: Name = %q, want %q", got.Name, "Array Product")
	}
}

// Non-Product nodes must never contribute fields.
func TestExtract_IgnoresNonProductTypes(t *testing.T) {
	html := `<script type="application/ld+json">
{"@type":"Organization","name":"Shop Inc"}
</script>`
	got := extract.Extract(html, pageURL)
	if got.Name != "" {
		t.Errorf("Name = %q, want empty for non-Product node", got.Name)
	}
}

// A malformed block is skipped; a later valid block still applies.
func TestExtract_MalformedBlockSkipped(t *testing.T) {
	html := `<script type="application/ld+json">{not json at all</script>
<script type="application/ld+json">{"@type":"Product","name":"Valid"}</script>`
	got := extract.Extract(html, pageURL)
	if got.Name != "Valid" {
		t.Errorf("Name = %q, want %q", got.Name, "Valid")
	}
}

// HTML comments inside the script block are stripped before parsing.
func TestExtract_CommentsInsideBlockStripped(t *testing.T) {
	html := `<script type="application/ld+json">
<!-- CMS banner -->
{"@type":"Product","name":"Commented"}
<!-- trailing -->
</script>`
	got := extract.Extract(html, pageURL)
	if got.Name != "Commented" {
		t.Errorf("Name = %q, want %q", got.Name, "Commented")
	}
}

// ── meta tag source ────────────────────────────────────────────────────────

func TestExtract_MetaFallbacks(t *testing.T) {
	html := `<html><head>
<meta property="og:title" content="Meta Product">
<meta property="og:image" content="//cdn.example/m.jpg">
<meta property="product:price:amount" content="2,499.99">
</head></html>`

	got := extract.Extract(html, pageURL)
	if got.Name != "Meta Product" {
		t.Errorf("Name = %q, want %q", got.Name, "Meta Product")
	}
	if got.Image != "https://cdn.example/m.jpg" {
		t.Errorf("Image = %q, want protocol-relative resolution", got.Image)
	}
	if got.Price != "2499.99" {
		t.Errorf("Price = %q, want %q", got.Price, "2499.99")
	}
}

func TestExtract_TwitterDataPrice(t *testing.T) {
	html := `<meta name="twitter:data1" content="USD 1,059.00 in stock">`
	got := extract.Extract(html, pageURL)
	if got.Price != "1059.00" {
		t.Errorf("Price = %q, want %q", got.Price, "1059.00")
	}
}

// product:price:amount outranks twitter:data1.
func TestExtract_MetaPricePriority(t *testing.T) {
	html := `<meta name="twitter:data1" content="$20.00">
<meta property="product:price:amount" content="15.00">`
	got := extract.Extract(html, pageURL)
	if got.Price != "15.00" {
		t.Errorf("Price = %q, want %q", got.Price, "15.00")
	}
}

// Meta keys are case-insensitive and the last occurrence wins.
func TestExtract_MetaKeyNormalization(t *testing.T) {
	html := `<meta property="OG:Title" content="First">
<meta property="og:title" content="Second">`
	got := extract.Extract(html, pageURL)
	if got.Name != "Second" {
		t.Errorf("Name = %q, want last occurrence %q", got.Name, "Second")
	}
}

func TestExtract_EmptyDocument(t *testing.T) {
	got := extract.Extract("", pageURL)
	if got.Name != "" || got.Price != "" || got.Image != "" {
		t.Errorf("empty html produced data: %+v", got)
	}
	if got.Complete() {
		t.Error("empty result must not be Complete")
	}
}

func TestExtract_Deterministic(t *testing.T) {
	html := `<script type="application/ld+json">{"@type":"Product","name":"Same","offers":{"price":"1"}}</script>`
	a := extract.Extract(html, pageURL)
	b := extract.Extract(html, pageURL)
	if a != b {
		t.Errorf("extraction not deterministic: %+v vs %+v", a, b)
	}
}

func TestExtract_HugeGarbageInput(t *testing.T) {
	got := extract.Extract(strings.Repeat("<div>#!$%</div>", 2000), pageURL)
	if got.Complete() {
		t.Error("garbage input must not produce a complete result")
	}
}
