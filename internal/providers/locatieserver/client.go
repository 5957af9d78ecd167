package locatieserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/arbakker/pdok-services/internal/httpclient"
	"github.com/arbakker/pdok-services/internal/serviceerr"
)

// API Docs: https://api.pdok.nl/bzk/locatieserver/search/v3_1/ui/
// Sample request: https://api.pdok.nl/bzk/locatieserver/search/v3_1/free?q=utrecht&rows=10
const (
	DefaultBaseURL = "https://api.pdok.nl/bzk/locatieserver/search/v3_1"
	DefaultRows    = 10
)

type Client struct {
	fetcher *httpclient.Client
	baseURL string
	logger  *slog.Logger
}

func NewClient(baseURL string, fetcher *httpclient.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		fetcher: fetcher,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger.With("component", "locatieserver"),
	}
}

// Free runs a free text search restricted by filter.
func (c *Client) Free(ctx context.Context, query string, filter TypeFilter, rows int) ([]Doc, error) {
	return c.search(ctx, "free", query, filter, rows)
}

// Suggest runs a suggest (type-ahead) search restricted by filter.
func (c *Client) Suggest(ctx context.Context, query string, filter TypeFilter, rows int) ([]Doc, error) {
	return c.search(ctx, "suggest", query, filter, rows)
}

func (c *Client) search(ctx context.Context, endpoint, query string, filter TypeFilter, rows int) ([]Doc, error) {
	if rows <= 0 {
		rows = DefaultRows
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("rows", strconv.Itoa(rows))
	q.Set("fq", filter.String())

	var apiResp SearchAPIResponse
	if err := c.fetcher.GetJSON(ctx, c.endpointURL(endpoint, q), &apiResp); err != nil {
		return nil, err
	}

	c.logger.Debug("search finished", "endpoint", endpoint, "query", query, "num_found", apiResp.Response.NumFound)
	return apiResp.Response.Docs, nil
}

// Lookup fetches the record with the given id including its geometry in
// proj. Anything other than exactly one match is a
// *serviceerr.LookupNotFoundError.
func (c *Client) Lookup(ctx context.Context, id string, proj Projection) (*Doc, error) {
	field, err := proj.GeometryField()
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("id", id)
	q.Set("fl", "*,"+field)

	var apiResp SearchAPIResponse
	if err := c.fetcher.GetJSON(ctx, c.endpointURL("lookup", q), &apiResp); err != nil {
		return nil, err
	}
	if apiResp.Response.NumFound != 1 || len(apiResp.Response.Docs) == 0 {
		return nil, &serviceerr.LookupNotFoundError{ID: id, NumFound: apiResp.Response.NumFound}
	}
	return &apiResp.Response.Docs[0], nil
}

// Reverse returns the records nearest to lon/lat (EPSG:4326), closest first.
// An empty filter leaves the type selection to the service.
func (c *Client) Reverse(ctx context.Context, lon, lat float64, filter TypeFilter, rows int) ([]Doc, error) {
	q := url.Values{}
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	for _, t := range filter.types {
		q.Add("type", string(t))
	}
	if rows > 0 {
		q.Set("rows", strconv.Itoa(rows))
	}

	var apiResp SearchAPIResponse
	if err := c.fetcher.GetJSON(ctx, c.endpointURL("reverse", q), &apiResp); err != nil {
		return nil, err
	}
	return apiResp.Response.Docs, nil
}

func (c *Client) endpointURL(endpoint string, q url.Values) string {
	return fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, q.Encode())
}
