package scrape

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"time"

	"marketshopper/internal/track"
)

// BackupClient queries an optional third-party price API when page parsing
// yields nothing. A nil *BackupClient is valid and always reports no
// observation.
type BackupClient struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewBackupClient returns nil when no API URL is configured, which disables
// backup lookups entirely.
func NewBackupClient(apiURL, apiKey string) *BackupClient {
	if apiURL == "" {
		return nil
	}
	return &BackupClient{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// backupResponse tolerates the known response shapes: {price},
// {currentPrice}, or the same pair nested under data.
type backupResponse struct {
	Price        json.RawMessage `json:"price"`
	CurrentPrice json.RawMessage `json:"currentPrice"`
	Data         *struct {
		Price        json.RawMessage `json:"price"`
		CurrentPrice json.RawMessage `json:"currentPrice"`
	} `json:"data"`
}

// Price asks the API for the product's current price. Any transport error,
// non-200 status or non-numeric payload is treated as "no observation" and
// returns nil; this feeds the reconciler's null-observation rule, it is
// never surfaced as an error.
func (b *BackupClient) Price(ctx context.Context, productURL string) *float64 {
	if b == nil || productURL == "" {
		return nil
	}
	u, err := url.Parse(b.apiURL)
	if err != nil {
		return nil
	}
	q := u.Query()
	q.Set("url", productURL)
	if b.apiKey != "" {
		q.Set("key", b.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/json")
	if b.apiKey != "" {
		req.Header.Set("X-Api-Key", b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		log.Printf("[scrape] backup price API: %v", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var body backupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}

	candidates := []json.RawMessage{body.Price, body.CurrentPrice}
	if body.Data != nil {
		candidates = append(candidates, body.Data.Price, body.Data.CurrentPrice)
	}
	for _, raw := range candidates {
		if p := numericPrice(raw); p != nil {
			return p
		}
	}
	return nil
}

func numericPrice(raw json.RawMessage) *float64 {
	if s := scalarText(raw); s != "" {
		return track.ParsePrice(s)
	}
	return nil
}

// scalarText renders a JSON string or number value as text, "" otherwise.
func scalarText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
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
