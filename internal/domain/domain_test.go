package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProduct = `{
	"id": 1,
	"name": "Widget",
	"buying_price": "12.50",
	"selling_price": "19.99",
	"stock": 7,
	"img": "widget.png",
	"brand_name": "Acme",
	"category_name": "Tools",
	"status": "active",
	"created_at": "2024-03-01T10:00:00.000000Z",
	"updated_at": "2024-03-02 11:30:00"
}`

func TestProduct_DecodesPricesAndTimestamps(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(sampleProduct), &p))

	assert.Equal(t, 1, p.ID)
	assert.Equal(t, "12.5", p.BuyingPrice.String())
	assert.Equal(t, "19.99", p.SellingPrice.String())
	assert.True(t, p.IsActive())
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), p.CreatedAt.Time)
	assert.Equal(t, time.Date(2024, 3, 2, 11, 30, 0, 0, time.UTC), p.UpdatedAt.Time)
}

func TestTimestamp_NullAndEmpty(t *testing.T) {
	var p struct {
		A Timestamp `json:"a"`
		B Timestamp `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": null, "b": ""}`), &p))
	assert.True(t, p.A.IsZero())
	assert.True(t, p.B.IsZero())

	out, err := json.Marshal(p.A)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestTimestamp_RejectsGarbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestProductListResponse_NullLinks(t *testing.T) {
	body := `{"current_page":1,"data":[],"from":null,"to":null,"last_page":1,
		"next_page_url":null,"prev_page_url":null,"per_page":10,"total":0}`

	var resp ProductListResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, 0, resp.From)
	assert.Equal(t, "", resp.NextPageURL)
	assert.Empty(t, resp.Data)
}

func TestSearchParams_Merges(t *testing.T) {
	base := SearchParams{Search: "old", SortBy: SortByStock, Order: OrderAsc, Page: 4}

	s := base.WithSearch("x")
	assert.Equal(t, "x", s.Search)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, SortByStock, s.SortBy)

	o := base.WithSort(SortByName, OrderDesc)
	assert.Equal(t, SearchParams{Search: "old", SortBy: SortByName, Order: OrderDesc, Page: 1}, o)

	pg := base.WithPage(3)
	assert.Equal(t, SearchParams{Search: "old", SortBy: SortByStock, Order: OrderAsc, Page: 3}, pg)

	assert.Equal(t, 4, base.Page, "merges must not mutate the receiver")
}

func TestSearchParams_FilterFlags(t *testing.T) {
	defaults := DefaultSearchParams(SortByName, OrderDesc)

	assert.False(t, defaults.HasFilters(defaults))
	assert.True(t, defaults.WithSearch("a").HasSearch())
	assert.True(t, defaults.WithSort(SortByStock, OrderDesc).HasCustomSort(defaults))
	assert.True(t, defaults.WithSort(SortByName, OrderAsc).HasFilters(defaults))
}

func TestSortColumn_IsSelectable(t *testing.T) {
	assert.True(t, SortByStock.IsSelectable())
	assert.False(t, SortByID.IsSelectable())
	assert.False(t, SortColumn("colour").IsSelectable())
	assert.Len(t, SortOptions(), 7)
}

func TestParseSortOrder(t *testing.T) {
	o, err := ParseSortOrder("asc")
	require.NoError(t, err)
	assert.Equal(t, OrderAsc, o)

	_, err = ParseSortOrder("sideways")
	assert.ErrorIs(t, err, ErrInvalidSortOrder)
}

func TestLifecycle_String(t *testing.T) {
	assert.Equal(t, "uninitialized", LifecycleUninitialized.String())
	assert.Equal(t, "defaulted", LifecycleDefaulted.String())
	assert.Equal(t, "user_modified", LifecycleUserModified.String())
}

func TestPagination_FromResponse(t *testing.T) {
	assert.Nil(t, NewPagination(nil))

	p := NewPagination(&ProductListResponse{CurrentPage: 1, LastPage: 3, Total: 25, PerPage: 10, From: 1, To: 10})
	require.NotNil(t, p)
	assert.Equal(t, 25, p.Total)
	assert.Equal(t, "Showing 1 to 10 of 25 results", p.Summary())
	assert.False(t, p.HasPrev())
	assert.True(t, p.HasNext())
}

func pages(items []PageItem) string {
	out := ""
	for _, it := range items {
		if out != "" {
			out += " "
		}
		if it.Ellipsis {
			out += "..."
			continue
		}
		out += fmt.Sprint(it.Page)
	}
	return out
}

func TestPageWindow(t *testing.T) {
	cases := []struct {
		current, last int
		want          string
	}{
		{1, 1, ""},
		{1, 0, ""},
		{1, 2, "1 2"},
		{1, 3, "1 2 3"},
		{1, 10, "1 2 ... 10"},
		{5, 10, "1 ... 4 5 6 ... 10"},
		{10, 10, "1 ... 9 10"},
		{3, 5, "1 2 3 4 5"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_of_%d", tc.current, tc.last), func(t *testing.T) {
			assert.Equal(t, tc.want, pages(PageWindow(tc.current, tc.last)))
		})
	}
}

func TestPageWindow_MarksCurrent(t *testing.T) {
	for _, it := range PageWindow(5, 10) {
		assert.Equal(t, it.Page == 5, it.Current)
	}
}

func TestFetchError_Messages(t *testing.T) {
	err := NewStatusError("http://x", 500, "Internal Server Error")
	assert.Equal(t, "API error: 500 Internal Server Error", err.Error())

	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("fetch: %w", NewTransportError("http://x", cause))
	fe, ok := AsFetchError(wrapped)
	require.True(t, ok)
	assert.Equal(t, FetchErrorTransport, fe.Kind)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "API error: connection refused", fe.Error())

	_, ok = AsFetchError(errors.New("plain"))
	assert.False(t, ok)
}
