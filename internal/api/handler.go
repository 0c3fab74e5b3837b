// Package api exposes the live-tracking backend over HTTP: track, untrack
// and the per-device price feed.
package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"marketshopper/internal/store"
	"marketshopper/internal/track"
)

// Handler serves the tracking API against a device store.
type Handler struct {
	store store.DeviceStore
}

func New(st store.DeviceStore) *Handler {
	return &Handler{store: st}
}

// Router builds the chi mux. CORS is open to any origin; preflight requests
// are answered with 204 before routing.
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Post("/api/track", h.track)
	r.Post("/api/untrack", h.untrack)
	r.Get("/api/prices", h.prices)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusNotFound, errorBody{Error: "Not found"})
	})
	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Error string `json:"error"`
}

type okBody struct {
	OK bool `json:"ok"`
}

// flexID accepts a JSON string or number, since extension-side product ids
// are numeric timestamps while everything else sends strings.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type trackBody struct {
	DeviceID     string   `json:"deviceId"`
	ProductID    flexID   `json:"productId"`
	URL          string   `json:"url"`
	Name         *string  `json:"name"`
	CurrentPrice *float64 `json:"currentPrice"`
}

func (h *Handler) track(w http.ResponseWriter, r *http.Request) {
	var body trackBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
		return
	}
	if body.DeviceID == "" || body.ProductID == "" || body.URL == "" {
		respond(w, http.StatusBadRequest, errorBody{Error: "Missing deviceId, productId, or url"})
		return
	}
	_, err := h.store.Track(r.Context(), store.TrackRequest{
		DeviceID:     body.DeviceID,
		ProductID:    string(body.ProductID),
		URL:          body.URL,
		Name:         body.Name,
		CurrentPrice: body.CurrentPrice,
	})
	if err != nil {
		respond(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	respond(w, http.StatusOK, okBody{OK: true})
}

type untrackBody struct {
	DeviceID  string `json:"deviceId"`
	ProductID flexID `json:"productId"`
}

func (h *Handler) untrack(w http.ResponseWriter, r *http.Request) {
	var body untrackBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
		return
	}
	if body.DeviceID == "" || body.ProductID == "" {
		respond(w, http.StatusBadRequest, errorBody{Error: "Missing deviceId or productId"})
		return
	}
	if err := h.store.Untrack(r.Context(), body.DeviceID, string(body.ProductID)); err != nil {
		respond(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	respond(w, http.StatusOK, okBody{OK: true})
}

type priceEntry struct {
	ProductID    string             `json:"productId"`
	CurrentPrice float64            `json:"currentPrice"`
	PriceHistory []track.PricePoint `json:"priceHistory"`
	LastChecked  *int64             `json:"lastChecked"`
}

type pricesResponse struct {
	Products []priceEntry `json:"products"`
}

func (h *Handler) prices(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")
	if deviceID == "" {
		respond(w, http.StatusBadRequest, errorBody{Error: "Missing deviceId"})
		return
	}
	products, err := h.store.Products(r.Context(), deviceID)
	if err != nil {
		respond(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	out := pricesResponse{Products: make([]priceEntry, 0, len(products))}
	for _, p := range products {
		history := p.PriceHistory
		if history == nil {
			history = []track.PricePoint{}
		}
		out.Products = append(out.Products, priceEntry{
			ProductID:    p.ProductID,
			CurrentPrice: p.CurrentPrice,
			PriceHistory: history,
			LastChecked:  p.LastChecked,
		})
	}
	respond(w, http.StatusOK, out)
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
