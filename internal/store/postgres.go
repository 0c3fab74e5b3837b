package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDeviceStore keeps device scopes in Postgres so tracked products
// survive restarts. Price history is stored as a JSONB column; seq keeps
// insertion order stable across upserts.
type PostgresDeviceStore struct {
	Pool *pgxpool.Pool
}

const trackedProductsSchema = `
CREATE TABLE IF NOT EXISTS tracked_products (
    seq           BIGSERIAL,
    device_id     TEXT NOT NULL,
    product_id    TEXT NOT NULL,
    url           TEXT NOT NULL,
    name          TEXT NOT NULL DEFAULT '',
    current_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    price_history JSONB NOT NULL DEFAULT '[]',
    last_checked  BIGINT,
    PRIMARY KEY (device_id, product_id)
)`

// Init creates the backing table when it does not exist yet.
func (s *PostgresDeviceStore) Init(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, trackedProductsSchema); err != nil {
		return fmt.Errorf("create tracked_products: %w", err)
	}
	return nil
}

func (s *PostgresDeviceStore) Track(ctx context.Context, req TrackRequest) (Tracked, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Tracked{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, had, err := scanTracked(tx.QueryRow(ctx,
		`SELECT product_id, url, name, current_price, price_history, last_checked
		 FROM tracked_products
		 WHERE device_id = $1 AND product_id = $2
		 FOR UPDATE`,
		req.DeviceID, req.ProductID))
	if err != nil {
		return Tracked{}, err
	}

	t := mergeTrack(existing, had, req, time.Now())
	history, err := json.Marshal(t.PriceHistory)
	if err != nil {
		return Tracked{}, fmt.Errorf("marshal history: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO tracked_products (device_id, product_id, url, name, current_price, price_history, last_checked)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (device_id, product_id) DO UPDATE
		 SET url = EXCLUDED.url,
		     name = EXCLUDED.name,
		     current_price = EXCLUDED.current_price,
		     price_history = EXCLUDED.price_history,
		     last_checked = EXCLUDED.last_checked`,
		req.DeviceID, req.ProductID, t.URL, t.Name, t.CurrentPrice, history, t.LastChecked)
	if err != nil {
		return Tracked{}, fmt.Errorf("upsert tracked product: %w", err)
	}
	return t, tx.Commit(ctx)
}

func (s *PostgresDeviceStore) Untrack(ctx context.Context, deviceID, productID string) error {
	_, err := s.Pool.Exec(ctx,
		`DELETE FROM tracked_products WHERE device_id = $1 AND product_id = $2`,
		deviceID, productID)
	if err != nil {
		return fmt.Errorf("delete tracked product: %w", err)
	}
	return nil
}

func (s *PostgresDeviceStore) Products(ctx context.Context, deviceID string) ([]Tracked, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT product_id, url, name, current_price, price_history, last_checked
		 FROM tracked_products
		 WHERE device_id = $1
		 ORDER BY seq`,
		deviceID)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := []Tracked{}
	for rows.Next() {
		t, _, err := scanTracked(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresDeviceStore) Devices(ctx context.Context) ([]string, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT device_id FROM tracked_products GROUP BY device_id ORDER BY MIN(seq)`)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Update rewrites the refreshed fields. A product untracked since the sweep
// read it simply matches zero rows, which is not an error.
func (s *PostgresDeviceStore) Update(ctx context.Context, deviceID string, t Tracked) error {
	history, err := json.Marshal(t.PriceHistory)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	_, err = s.Pool.Exec(ctx,
		`UPDATE tracked_products
		 SET current_price = $3, price_history = $4, last_checked = $5
		 WHERE device_id = $1 AND product_id = $2`,
		deviceID, t.ProductID, t.CurrentPrice, history, t.LastChecked)
	if err != nil {
		return fmt.Errorf("update tracked product: %w", err)
	}
	return nil
}

func scanTracked(row pgx.Row) (Tracked, bool, error) {
	var t Tracked
	var history []byte
	err := row.Scan(&t.ProductID, &t.URL, &t.Name, &t.CurrentPrice, &history, &t.LastChecked)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tracked{}, false, nil
	}
	if err != nil {
		return Tracked{}, false, fmt.Errorf("scan tracked product: %w", err)
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &t.PriceHistory); err != nil {
			return Tracked{}, false, fmt.Errorf("decode price history: %w", err)
		}
	}
	return t, true, nil
}
