package ahn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/arbakker/pdok-services/internal/coverage"
	"github.com/arbakker/pdok-services/internal/httpclient"
	"github.com/arbakker/pdok-services/internal/serviceerr"
)

// API Docs: https://www.pdok.nl/ogc-webservices/-/article/actueel-hoogtebestand-nederland-ahn
// Sample request: https://service.pdok.nl/rws/ahn/wcs/v1_0?service=WCS&request=GetCapabilities&version=2.0.1
const (
	DefaultBaseURL = "https://service.pdok.nl/rws/ahn/wcs/v1_0"
	wcsVersion     = "2.0.1"
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
		baseURL: strings.TrimSuffix(baseURL, "?"),
		logger:  logger.With("component", "ahn"),
	}
}

// CoverageResponse is the raw body of a GetCoverage request.
type CoverageResponse struct {
	URL         string
	ContentType string
	MediaType   string
	Body        []byte
}

// CoverageIDs lists the coverages offered by the service.
func (c *Client) CoverageIDs(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("service", "WCS")
	q.Set("request", "GetCapabilities")
	q.Set("version", wcsVersion)

	var apiResp CapabilitiesAPIResponse
	if err := c.fetcher.GetXML(ctx, c.baseURL+"?"+q.Encode(), &apiResp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(apiResp.CoverageSummaries))
	for _, s := range apiResp.CoverageSummaries {
		ids = append(ids, s.CoverageID)
	}
	return ids, nil
}

// DescribeCoverage returns the grid origin, cell size and native CRS of id.
func (c *Client) DescribeCoverage(ctx context.Context, id string) (*CoverageDescription, error) {
	q := url.Values{}
	q.Set("service", "WCS")
	q.Set("request", "DescribeCoverage")
	q.Set("version", wcsVersion)
	q.Set("CoverageId", id)

	var apiResp DescribeCoverageAPIResponse
	if err := c.fetcher.GetXML(ctx, c.baseURL+"?"+q.Encode(), &apiResp); err != nil {
		return nil, err
	}
	return apiResp.description(id)
}

// GetCoverage requests the GeoTIFF subset of id covering window.
func (c *Client) GetCoverage(ctx context.Context, id string, window coverage.Window) (*CoverageResponse, error) {
	u := c.GetCoverageURL(id, window)
	c.logger.Info("requesting coverage", "url", u)

	resp, err := c.fetcher.Get(ctx, u)
	if err != nil {
		return nil, unknownCoverage(id, err)
	}
	return &CoverageResponse{
		URL:         u,
		ContentType: resp.ContentType,
		MediaType:   resp.MediaType(),
		Body:        resp.Body,
	}, nil
}

// GetCoverageURL builds the GetCoverage request for id and window. The subset
// parameters are left unescaped.
func (c *Client) GetCoverageURL(id string, window coverage.Window) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("?service=WCS&Request=GetCoverage&version=" + wcsVersion)
	b.WriteString("&CoverageId=" + url.QueryEscape(id))
	b.WriteString("&format=" + coverage.MediaTypeTIFF)
	for _, subset := range window.Subsets() {
		b.WriteString("&subset=" + subset)
	}
	return b.String()
}

func (d *CoverageDescription) String() string {
	return fmt.Sprintf("%s (EPSG:%d, origin %g %g, cell %g)", d.ID, d.EPSG, d.OriginX, d.OriginY, d.CellSize)
}

// unknownCoverage marks a 404 (NoSuchCoverage) as an unknown coverage.
func unknownCoverage(id string, err error) error {
	var status *serviceerr.UnexpectedStatusError
	if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
		return &serviceerr.UnknownCoverageError{CoverageID: id, Err: err}
	}
	return err
}
