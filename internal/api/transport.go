// Package api provides low-level HTTP transport for Aidbox API calls.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/tphakala/go-aidbox/internal/convert"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// Transport handles HTTP communication with the Aidbox server. Request
// bodies have their field names converted to the wire convention on the
// way out; successful response bodies are converted back on the way in.
// Query parameters pass through verbatim.
type Transport struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	Token      string
	UserAgent  string
	Logger     hclog.Logger
}

// NewTransport creates a Transport with the given configuration.
func NewTransport(baseURL, token string, httpClient *http.Client, logger hclog.Logger) (*Transport, error) {
	if token == "" {
		return nil, fmt.Errorf("token must be provided")
	}

	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultHTTPTimeout,
		}
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Transport{
		BaseURL:    u,
		HTTPClient: httpClient,
		Token:      token,
		UserAgent:  "go-aidbox/1.0",
		Logger:     logger,
	}, nil
}

// Request represents an API request. Body field names use the local
// convention and are converted before marshaling.
type Request struct {
	Method  string
	Path    string
	Body    any
	Query   url.Values
	Headers http.Header
}

// Response represents a raw API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Do executes an API request and returns the raw response.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := t.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	// Limit response body size to prevent memory exhaustion
	limitedReader := io.LimitReader(httpResp.Body, defaultMaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if int64(len(body)) > defaultMaxBodySize {
		return nil, fmt.Errorf("response too large: exceeds %d bytes", defaultMaxBodySize)
	}

	t.Logger.Debug("request completed",
		"method", req.Method,
		"path", req.Path,
		"status", httpResp.StatusCode,
		"duration", time.Since(start),
	)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}, nil
}

// DoJSON executes a request and decodes a successful JSON response into a
// generic value with field names converted to the local convention. On
// non-2xx statuses the decoded value is nil and the raw response is
// returned for the caller to map into an error.
func (t *Transport) DoJSON(ctx context.Context, req *Request) (any, *Response, error) {
	resp, err := t.Do(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || len(resp.Body) == 0 {
		return nil, resp, nil
	}

	var parsed any
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, resp, fmt.Errorf("unmarshaling response: %w", err)
	}

	return convert.ToLocal(parsed), resp, nil
}

func (t *Transport) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	u := t.BaseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(convert.ToWire(req.Body))
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Set default headers
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", t.UserAgent)
	httpReq.Header.Set("Authorization", "Bearer "+t.Token)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	// Apply custom headers last so callers can override the generated ones
	maps.Copy(httpReq.Header, req.Headers)

	return httpReq, nil
}
