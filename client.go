package aidbox

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/tphakala/go-aidbox/internal/api"
	"github.com/tphakala/go-aidbox/internal/auth"
)

// Default configuration values.
const defaultTimeout = 30 * time.Second

// Client is the Aidbox API client. It owns the HTTP transport and the
// per-client schema cache, and produces Resource, Reference and SearchSet
// instances bound to it.
type Client struct {
	transport *api.Transport
	schemas   *schemaCache
	logger    hclog.Logger
}

// NewClient creates a new Aidbox client with the given options. When
// credentials are configured instead of a token, the OAuth2 redirect
// handshake runs immediately; a handshake that yields no token fails with
// *AuthorizationError.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		timeout: defaultTimeout,
		logger:  hclog.NewNullLogger(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.baseURL == "" {
		return nil, ErrNoBaseURL
	}

	creds := auth.Credentials{
		Email:    cfg.email,
		Password: cfg.password,
	}
	if cfg.token == "" && !creds.Valid() {
		return nil, ErrNoCredentials
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.timeout,
		}
	}

	token := cfg.token
	if token == "" {
		t, err := auth.Authorize(ctx, httpClient, cfg.baseURL, creds)
		if err != nil {
			if errors.Is(err, auth.ErrNoToken) {
				return nil, &AuthorizationError{APIError: APIError{Message: err.Error()}}
			}
			return nil, err
		}
		token = t
	}

	transport, err := api.NewTransport(cfg.baseURL, token, httpClient, cfg.logger)
	if err != nil {
		return nil, err
	}

	if cfg.userAgent != "" {
		transport.UserAgent = cfg.userAgent
	}

	return &Client{
		transport: transport,
		schemas:   newSchemaCache(),
		logger:    cfg.logger,
	}, nil
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string {
	return c.transport.BaseURL.String()
}

// Token returns the bearer token in use, either the configured one or the
// one obtained by the handshake. It can be stored and passed to WithToken
// to skip the handshake on a later client.
func (c *Client) Token() string {
	return c.transport.Token
}

func (c *Client) String() string {
	return c.BaseURL()
}

// Resources returns an empty search set over the given resource type.
func (c *Client) Resources(resourceType string) *SearchSet {
	return newSearchSet(c, resourceType)
}

// Resource constructs a new local resource of the given type with
// validated fields. The resource type's schema is fetched on first use;
// any field not in the schema fails with *FieldError. The resource has no
// id until the first successful Save.
func (c *Client) Resource(ctx context.Context, resourceType string, fields map[string]any) (*Resource, error) {
	return newResource(ctx, c, resourceType, fields, modeValidated)
}

// Reference creates a pointer to a resource of the given type and id.
func (c *Client) Reference(resourceType, id string, opts ...ReferenceOption) *Reference {
	return newReference(resourceType, id, opts...)
}

// InvalidateSchema drops the cached schema for a resource type so the next
// resource construction fetches it again. Without this call a schema, once
// fetched, is never refreshed for the lifetime of the client.
func (c *Client) InvalidateSchema(resourceType string) {
	c.schemas.invalidate(resourceType)
}

// do executes a request through the transport and maps non-2xx statuses to
// typed errors.
func (c *Client) do(ctx context.Context, method, path string, body any, query url.Values, opts ...RequestOption) (any, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	result, resp, err := c.transport.DoJSON(ctx, &api.Request{
		Method:  method,
		Path:    path,
		Body:    body,
		Query:   query,
		Headers: reqCfg.headers,
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return result, nil
}

// fetch issues a GET with the given query parameters.
func (c *Client) fetch(ctx context.Context, path string, query url.Values, opts ...RequestOption) (any, error) {
	return c.do(ctx, http.MethodGet, path, nil, query, opts...)
}
