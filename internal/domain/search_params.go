package domain

import "errors"

type SortColumn string

const (
	SortByID           SortColumn = "id"
	SortByName         SortColumn = "name"
	SortByBuyingPrice  SortColumn = "buying_price"
	SortBySellingPrice SortColumn = "selling_price"
	SortByStock        SortColumn = "stock"
	SortByBrandName    SortColumn = "brand_name"
	SortByCategoryName SortColumn = "category_name"
	SortByStatus       SortColumn = "status"
)

type SortOption struct {
	Value SortColumn `json:"value"`
	Label string     `json:"label"`
}

// sortOptions is the selectable column list in display order.
var sortOptions = []SortOption{
	{Value: SortByName, Label: "Name"},
	{Value: SortByBuyingPrice, Label: "Buying Price"},
	{Value: SortBySellingPrice, Label: "Selling Price"},
	{Value: SortByStock, Label: "Stock"},
	{Value: SortByBrandName, Label: "Brand"},
	{Value: SortByCategoryName, Label: "Category"},
	{Value: SortByStatus, Label: "Status"},
}

func SortOptions() []SortOption {
	out := make([]SortOption, len(sortOptions))
	copy(out, sortOptions)
	return out
}

// IsSelectable reports whether the column is offered to users. Other values
// are still sent to the server unchanged.
func (c SortColumn) IsSelectable() bool {
	for _, opt := range sortOptions {
		if opt.Value == c {
			return true
		}
	}
	return false
}

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

var ErrInvalidSortOrder = errors.New("sort order must be asc or desc")

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case OrderAsc, OrderDesc:
		return SortOrder(s), nil
	default:
		return "", ErrInvalidSortOrder
	}
}

// SearchParams holds the query for one product list request. Zero values
// mean the field is absent and is left out of the request.
type SearchParams struct {
	Search string     `json:"search,omitempty"`
	SortBy SortColumn `json:"sort_by,omitempty"`
	Order  SortOrder  `json:"order,omitempty"`
	Page   int        `json:"page,omitempty"`
}

// DefaultSearchParams returns the parameter set applied when browsing starts.
func DefaultSearchParams(column SortColumn, order SortOrder) SearchParams {
	return SearchParams{Page: 1, SortBy: column, Order: order}
}

func (p SearchParams) WithSearch(term string) SearchParams {
	p.Search = term
	p.Page = 1
	return p
}

func (p SearchParams) WithSort(column SortColumn, order SortOrder) SearchParams {
	p.SortBy = column
	p.Order = order
	p.Page = 1
	return p
}

func (p SearchParams) WithPage(page int) SearchParams {
	p.Page = page
	return p
}

func (p SearchParams) HasSearch() bool {
	return p.Search != ""
}

func (p SearchParams) HasCustomSort(defaults SearchParams) bool {
	return p.SortBy != defaults.SortBy || p.Order != defaults.Order
}

func (p SearchParams) HasFilters(defaults SearchParams) bool {
	return p.HasSearch() || p.HasCustomSort(defaults)
}

// Lifecycle tracks where a parameter set came from. Uninitialized means no
// request has been asked for yet, which is distinct from an empty search.
type Lifecycle int

const (
	LifecycleUninitialized Lifecycle = iota
	LifecycleDefaulted
	LifecycleUserModified
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleUninitialized:
		return "uninitialized"
	case LifecycleDefaulted:
		return "defaulted"
	case LifecycleUserModified:
		return "user_modified"
	default:
		return "unknown"
	}
}

func (l Lifecycle) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}
