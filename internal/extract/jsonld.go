package extract

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var htmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)

// ldItem is the subset of a schema.org node the extractor cares about.
// Image and Offers stay raw because sites publish them in several shapes.
type ldItem struct {
	Type   string          `json:"@type"`
	Name   string          `json:"name"`
	Image  json.RawMessage `json:"image"`
	Offers json.RawMessage `json:"offers"`
}

// ldDocument normalizes the three top-level shapes a JSON-LD block comes in:
// a single object, an array of objects, or an object wrapping a @graph array.
// Items that fail to decode are dropped individually.
type ldDocument struct {
	items []ldItem
}

func (d *ldDocument) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return err
		}
		for _, raw := range raws {
			d.add(raw)
		}
	case '{':
		var wrapper struct {
			Graph []json.RawMessage `json:"@graph"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return err
		}
		if len(wrapper.Graph) > 0 {
			for _, raw := range wrapper.Graph {
				d.add(raw)
			}
			return nil
		}
		d.add(data)
	}
	return nil
}

func (d *ldDocument) add(raw json.RawMessage) {
	var item ldItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return
	}
	d.items = append(d.items, item)
}

// applyJSONLD parses one script block and copies Product fields into result,
// filling only fields that are still empty. HTML comments inside the block
// are stripped before parsing; a block that still fails to parse is skipped.
func applyJSONLD(block, base string, result *Result) {
	raw := strings.TrimSpace(htmlCommentRe.ReplaceAllString(block, ""))
	if raw == "" {
		return
	}
	var doc ldDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return
	}
	for _, item := range doc.items {
		if item.Type != "Product" {
			continue
		}
		if result.Name == "" && item.Name != "" {
			result.Name = strings.TrimSpace(item.Name)
		}
		if result.Image == "" {
			if img := firstImage(item.Image); img != "" {
				result.Image = ResolveURL(img, base)
			}
		}
		if result.Price == "" {
			result.Price = offerPrice(item.Offers)
		}
		if result.Complete() {
			break
		}
	}
}

// firstImage accepts the image shapes seen in the wild: a bare string, an
// object with a url property, or an array whose first element is either.
func firstImage(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil || len(arr) == 0 {
			return ""
		}
		raw = bytes.TrimSpace(arr[0])
		if len(raw) == 0 {
			return ""
		}
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{':
		var obj struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return ""
		}
		return obj.URL
	}
	return ""
}

// offerPrice reads the price out of an offers value, which may be a single
// offer object or an array of offers (first one wins). price is preferred
// over lowPrice; either may be a JSON number or string. Thousands-separator
// commas are stripped.
func offerPrice(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil || len(arr) == 0 {
			return ""
		}
		raw = arr[0]
	}
	var offer struct {
		Price    json.RawMessage `json:"price"`
		LowPrice json.RawMessage `json:"lowPrice"`
	}
	if err := json.Unmarshal(raw, &offer); err != nil {
		return ""
	}
	for _, candidate := range []json.RawMessage{offer.Price, offer.LowPrice} {
		if s := scalarString(candidate); s != "" {
			return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		}
	}
	return ""
}

// scalarString renders a JSON string or number as its text form.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}
