// Package auth implements the Aidbox OAuth2 redirect handshake.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrNoToken indicates the authorization response carried no usable token.
var ErrNoToken = errors.New("no token in authorization response")

// Credentials holds the email/password pair exchanged for a bearer token.
type Credentials struct {
	Email    string
	Password string
}

// Valid reports whether credentials are configured.
func (c Credentials) Valid() bool {
	return c.Email != "" && c.Password != ""
}

// Authorize exchanges credentials for an id_token. The server answers with
// a redirect whose target carries the token, so redirects are never
// followed; the token is read from the Location header of the first
// response.
func Authorize(ctx context.Context, httpClient *http.Client, host string, creds Credentials) (string, error) {
	authURL, err := url.Parse(strings.TrimSuffix(host, "/") + "/oauth2/authorize")
	if err != nil {
		return "", fmt.Errorf("invalid host: %w", err)
	}
	authURL.RawQuery = url.Values{
		"client_id":     {"sansara"},
		"scope":         {"openid profile email"},
		"response_type": {"id_token"},
	}.Encode()

	form := url.Values{
		"email":    {creds.Email},
		"password": {creds.Password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// Shallow copy so the caller's client keeps its own redirect policy.
	client := *httpClient
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("authorization request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	location := resp.Header.Get("Location")
	if location == "" {
		return "", ErrNoToken
	}

	token := tokenFromLocation(location)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// tokenFromLocation extracts id_token from the redirect target, checking
// the query string first and the fragment second.
func tokenFromLocation(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	if token := u.Query().Get("id_token"); token != "" {
		return token
	}
	if frag, err := url.ParseQuery(u.Fragment); err == nil {
		return frag.Get("id_token")
	}
	return ""
}
