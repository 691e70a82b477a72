package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"catalog_viewer/internal/domain"

	"github.com/sirupsen/logrus"
)

// BuildProductsURL returns the request URL for params, or false when params
// is nil and no request should be made. Parameters are always written in the
// order search, sort_by, order, page; zero values are left out.
func BuildProductsURL(baseURL string, params *domain.SearchParams) (string, bool) {
	if params == nil {
		return "", false
	}

	var pairs []string
	add := func(key, value string) {
		pairs = append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(value))
	}

	if params.Search != "" {
		add("search", params.Search)
	}
	if params.SortBy != "" {
		add("sort_by", string(params.SortBy))
	}
	if params.Order != "" {
		add("order", string(params.Order))
	}
	if params.Page != 0 {
		add("page", strconv.Itoa(params.Page))
	}

	if len(pairs) == 0 {
		return baseURL, true
	}
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + strings.Join(pairs, "&"), true
}

type ProductClient interface {
	FetchProducts(ctx context.Context, target string) (*domain.ProductListResponse, error)
}

type catalogHTTPClient struct {
	client *http.Client
	log    *logrus.Logger
}

func NewCatalogHTTPClient(timeout time.Duration, logger *logrus.Logger) ProductClient {
	return &catalogHTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		log: logger,
	}
}

func (c *catalogHTTPClient) FetchProducts(ctx context.Context, target string) (*domain.ProductListResponse, error) {
	if target == "" {
		return nil, nil
	}

	c.log.Debugf("CatalogClient: Requesting product list from URL: %s", target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		c.log.Errorf("CatalogClient: Failed to create request for %s: %v", target, err)
		return nil, domain.NewTransportError(target, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Errorf("CatalogClient: Failed to execute request for %s: %v", target, err)
		return nil, domain.NewTransportError(target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warnf("CatalogClient: Request for %s failed with status %d", target, resp.StatusCode)
		return nil, domain.NewStatusError(target, resp.StatusCode, statusText(resp))
	}

	var list domain.ProductListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		c.log.Errorf("CatalogClient: Failed to decode response for %s: %v", target, err)
		return nil, domain.NewDecodeError(target, err)
	}

	c.log.Infof("CatalogClient: Received page %d/%d with %d products (total %d) for %s",
		list.CurrentPage, list.LastPage, len(list.Data), list.Total, target)
	return &list, nil
}

// statusText prefers the reason phrase sent by the server.
func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
