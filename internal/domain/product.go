package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const StatusActive = "active"

type Product struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	BuyingPrice  decimal.Decimal `json:"buying_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Stock        int             `json:"stock"`
	Img          string          `json:"img"`
	BrandName    string          `json:"brand_name"`
	CategoryName string          `json:"category_name"`
	Status       string          `json:"status"`
	CreatedAt    Timestamp       `json:"created_at"`
	UpdatedAt    Timestamp       `json:"updated_at"`
}

func (p Product) IsActive() bool {
	return p.Status == StatusActive
}

// ProductListResponse is the page envelope returned by the product list API.
type ProductListResponse struct {
	CurrentPage  int       `json:"current_page"`
	Data         []Product `json:"data"`
	FirstPageURL string    `json:"first_page_url"`
	From         int       `json:"from"`
	LastPage     int       `json:"last_page"`
	LastPageURL  string    `json:"last_page_url"`
	NextPageURL  string    `json:"next_page_url"`
	Path         string    `json:"path"`
	PerPage      int       `json:"per_page"`
	PrevPageURL  string    `json:"prev_page_url"`
	To           int       `json:"to"`
	Total        int       `json:"total"`
}

// Timestamp accepts the layouts the API is known to emit and tolerates null or "".
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
