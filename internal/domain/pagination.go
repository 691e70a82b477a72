package domain

import "fmt"

type Pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	From        int `json:"from"`
	To          int `json:"to"`
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
}

// NewPagination derives the pager fields from a response; nil in, nil out.
func NewPagination(resp *ProductListResponse) *Pagination {
	if resp == nil {
		return nil
	}
	return &Pagination{
		CurrentPage: resp.CurrentPage,
		LastPage:    resp.LastPage,
		From:        resp.From,
		To:          resp.To,
		Total:       resp.Total,
		PerPage:     resp.PerPage,
	}
}

func (p *Pagination) Summary() string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("Showing %d to %d of %d results", p.From, p.To, p.Total)
}

func (p *Pagination) HasPrev() bool {
	return p != nil && p.CurrentPage > 1
}

func (p *Pagination) HasNext() bool {
	return p != nil && p.CurrentPage < p.LastPage
}

// PageItem is one pager slot: either a page number or an ellipsis.
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
	Current  bool `json:"current,omitempty"`
}

// PageWindow lays out pager slots: the first page, one page either side of
// current, and the last page, with ellipses over gaps. A single page yields
// no slots.
func PageWindow(current, last int) []PageItem {
	if last <= 1 {
		return nil
	}

	items := []PageItem{{Page: 1, Current: current == 1}}

	start := max(2, current-1)
	end := min(last-1, current+1)

	if start > 2 {
		items = append(items, PageItem{Ellipsis: true})
	}
	for i := start; i <= end; i++ {
		items = append(items, PageItem{Page: i, Current: current == i})
	}
	if end < last-1 {
		items = append(items, PageItem{Ellipsis: true})
	}

	items = append(items, PageItem{Page: last, Current: current == last})
	return items
}
