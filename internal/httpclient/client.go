// Package httpclient is the shared GET fetcher used by the PDOK provider
// clients. It sets the User-Agent, classifies failures into serviceerr kinds
// and optionally retries transient failures with exponential backoff.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/arbakker/pdok-services/internal/metrics"
	"github.com/arbakker/pdok-services/internal/serviceerr"

	"github.com/cenkalti/backoff/v3"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	DefaultUserAgent = "pdok-services"
	MediaTypeJSON    = "application/json"

	// maxErrorBody bounds how much of an error response is kept for diagnostics
	maxErrorBody = 2048
)

// Options configures a Client. The zero value gives a client without
// timeout and without retries.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	Metrics    *metrics.Metrics
	HTTPClient *http.Client
}

// Client performs GET requests against one upstream service.
type Client struct {
	httpClient *http.Client
	service    string
	userAgent  string
	maxRetries int
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Response is a fully read 200 response.
type Response struct {
	URL         string
	ContentType string
	Header      http.Header
	Body        []byte
}

// MediaType returns the media type of the response without parameters,
// lower-cased. It falls back to the raw header value when it cannot be parsed.
func (r *Response) MediaType() string {
	mt, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(r.ContentType))
	}
	return mt
}

// New creates a client for the named service; the name labels log lines and
// metrics.
func New(service string, logger *slog.Logger, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: httpClient,
		service:    service,
		userAgent:  userAgent,
		maxRetries: opts.MaxRetries,
		metrics:    opts.Metrics,
		logger:     logger.With("component", service+"-http"),
	}
}

// Get fetches rawURL and returns the body of a 200 response. Any other status
// is an *serviceerr.UnexpectedStatusError, transport failures are
// *serviceerr.NetworkError.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	var resp *Response
	op := func() error {
		var err error
		resp, err = c.get(ctx, rawURL)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		if c.maxRetries > 0 {
			c.logger.Warn("request failed, may retry", "url", rawURL, "error", err)
		}
		return err
	}

	if c.maxRetries <= 0 {
		if err := op(); err != nil {
			return nil, unwrapPermanent(err)
		}
		return resp, nil
	}

	strategy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(op, strategy); err != nil {
		return nil, unwrapPermanent(err)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("HTTP GET", "url", rawURL)

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(c.service, "network_error", time.Since(start))
		c.logger.Error("request failed", "url", rawURL, "error", err)
		return nil, &serviceerr.NetworkError{URL: rawURL, Err: err}
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(httpResp.Body)

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		c.metrics.ObserveRequest(c.service, "status_error", time.Since(start))
		c.logger.Error("service returned error",
			"url", rawURL,
			"status_code", httpResp.StatusCode,
			"response_body", string(body),
		)
		return nil, &serviceerr.UnexpectedStatusError{
			URL:        rawURL,
			StatusCode: httpResp.StatusCode,
			Body:       string(body),
		}
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.metrics.ObserveRequest(c.service, "network_error", time.Since(start))
		return nil, &serviceerr.NetworkError{URL: rawURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	c.metrics.ObserveRequest(c.service, "ok", time.Since(start))

	return &Response{
		URL:         rawURL,
		ContentType: httpResp.Header.Get("Content-Type"),
		Header:      httpResp.Header,
		Body:        body,
	}, nil
}

// GetJSON fetches rawURL, requires an application/json response and decodes
// it into target, honouring the charset parameter of the Content-Type.
func (c *Client) GetJSON(ctx context.Context, rawURL string, target any) error {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}

	mediaType, params, err := mime.ParseMediaType(resp.ContentType)
	if err != nil || mediaType != MediaTypeJSON {
		return &serviceerr.UnexpectedContentTypeError{
			URL:      rawURL,
			Got:      resp.ContentType,
			Expected: MediaTypeJSON,
		}
	}

	body, err := toUTF8(resp.Body, params["charset"])
	if err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", rawURL, err)
	}

	if err := json.NewDecoder(body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", rawURL, err)
	}
	return nil
}

// GetXML fetches rawURL and decodes an XML document into target. Documents
// that declare a non UTF-8 encoding are transcoded.
func (c *Client) GetXML(ctx context.Context, rawURL string, target any) error {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}

	mediaType := resp.MediaType()
	if mediaType != "text/xml" && mediaType != "application/xml" && !strings.HasSuffix(mediaType, "+xml") {
		return &serviceerr.UnexpectedContentTypeError{
			URL:      rawURL,
			Got:      resp.ContentType,
			Expected: "text/xml",
		}
	}

	decoder := xml.NewDecoder(bytes.NewReader(resp.Body))
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
		}
		return enc.NewDecoder().Reader(input), nil
	}
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", rawURL, err)
	}
	return nil
}

func toUTF8(body []byte, charset string) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return bytes.NewReader(body), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(bytes.NewReader(body)), nil
}

// retryable reports whether a failed attempt may succeed when repeated:
// transport failures and 5xx responses.
func retryable(err error) bool {
	var netErr *serviceerr.NetworkError
	if errors.As(err, &netErr) {
		return !errors.Is(err, context.Canceled)
	}
	var statusErr *serviceerr.UnexpectedStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

func unwrapPermanent(err error) error {
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}
