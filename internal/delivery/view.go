package delivery

import (
	"catalog_viewer/internal/domain"
	"catalog_viewer/internal/usecase"
)

// ProductListView is the JSON shape rendered for both one-shot listings and
// session snapshots.
type ProductListView struct {
	SessionID     string              `json:"session_id,omitempty"`
	Products      []productView       `json:"products"`
	Pagination    *domain.Pagination  `json:"pagination"`
	Summary       string              `json:"summary,omitempty"`
	Pages         []domain.PageItem   `json:"pages,omitempty"`
	HasPrev       bool                `json:"has_prev"`
	HasNext       bool                `json:"has_next"`
	SearchParams  domain.SearchParams `json:"search_params"`
	Lifecycle     domain.Lifecycle    `json:"lifecycle"`
	IsLoading     bool                `json:"is_loading"`
	Error         string              `json:"error,omitempty"`
	HasSearch     bool                `json:"has_search"`
	HasCustomSort bool                `json:"has_custom_sort"`
	HasFilters    bool                `json:"has_filters"`
}

type productView struct {
	domain.Product
	Active bool `json:"active"`
}

func newListView(st usecase.ListState) ProductListView {
	v := ProductListView{
		Products:      make([]productView, 0, len(st.Products)),
		Pagination:    st.Pagination,
		Summary:       st.Pagination.Summary(),
		HasPrev:       st.Pagination.HasPrev(),
		HasNext:       st.Pagination.HasNext(),
		SearchParams:  st.SearchParams,
		Lifecycle:     st.Lifecycle,
		IsLoading:     st.IsLoading,
		HasSearch:     st.HasSearch,
		HasCustomSort: st.HasCustomSort,
		HasFilters:    st.HasFilters,
	}
	for _, p := range st.Products {
		v.Products = append(v.Products, productView{Product: p, Active: p.IsActive()})
	}
	if st.Pagination != nil {
		v.Pages = domain.PageWindow(st.Pagination.CurrentPage, st.Pagination.LastPage)
	}
	if st.Error != nil {
		v.Error = st.Error.Error()
	}
	return v
}

// newResponseView renders a single fetched page outside any session.
func newResponseView(resp *domain.ProductListResponse, params, defaults domain.SearchParams) ProductListView {
	lifecycle := domain.LifecycleUserModified
	if params == defaults {
		lifecycle = domain.LifecycleDefaulted
	}
	st := usecase.ListState{
		Pagination:    domain.NewPagination(resp),
		SearchParams:  params,
		Lifecycle:     lifecycle,
		HasSearch:     params.HasSearch(),
		HasCustomSort: params.HasCustomSort(defaults),
		HasFilters:    params.HasFilters(defaults),
	}
	if resp != nil {
		st.Products = resp.Data
	}
	return newListView(st)
}
