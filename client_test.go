package aidbox_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-aidbox"
)

// setupTestServer starts a test server and returns a client configured
// with a pre-issued token, skipping the credential handshake.
func setupTestServer(t *testing.T, handler http.Handler) *aidbox.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := aidbox.NewClient(context.Background(),
		aidbox.WithBaseURL(server.URL),
		aidbox.WithToken("test-token"),
	)
	require.NoError(t, err)

	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

// attributeBundle builds an Attribute search bundle declaring the given
// wire-format field paths.
func attributeBundle(fields ...string) map[string]any {
	entries := make([]any, 0, len(fields))
	for _, f := range fields {
		entries = append(entries, map[string]any{
			"resource": map[string]any{
				"resourceType": "Attribute",
				"path":         []any{f},
			},
		})
	}
	return map[string]any{"entry": entries}
}

// searchBundle wraps wire-format resource payloads in a result envelope.
func searchBundle(resources ...map[string]any) map[string]any {
	entries := make([]any, 0, len(resources))
	for _, r := range resources {
		entries = append(entries, map[string]any{"resource": r})
	}
	return map[string]any{"entry": entries}
}

// patientMux serves the Patient schema with name and birthDate fields.
func patientMux(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/Attribute", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Patient", r.URL.Query().Get("entity"))
		writeJSON(t, w, attributeBundle("name", "birthDate"))
	})
	return mux
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	t.Run("success with token", func(t *testing.T) {
		client, err := aidbox.NewClient(ctx,
			aidbox.WithBaseURL("https://box.example.com"),
			aidbox.WithToken("tok"),
		)
		require.NoError(t, err)
		assert.NotNil(t, client)
		assert.Equal(t, "https://box.example.com", client.BaseURL())
		assert.Equal(t, "tok", client.Token())
		assert.Equal(t, "https://box.example.com", client.String())
	})

	t.Run("error without base URL", func(t *testing.T) {
		_, err := aidbox.NewClient(ctx,
			aidbox.WithToken("tok"),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, aidbox.ErrNoBaseURL)
	})

	t.Run("error without token or credentials", func(t *testing.T) {
		_, err := aidbox.NewClient(ctx,
			aidbox.WithBaseURL("https://box.example.com"),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, aidbox.ErrNoCredentials)
	})

	t.Run("error with partial credentials", func(t *testing.T) {
		_, err := aidbox.NewClient(ctx,
			aidbox.WithBaseURL("https://box.example.com"),
			aidbox.WithCredentials("user@example.com", ""),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, aidbox.ErrNoCredentials)
	})

	t.Run("success with all options", func(t *testing.T) {
		client, err := aidbox.NewClient(ctx,
			aidbox.WithBaseURL("https://box.example.com"),
			aidbox.WithToken("tok"),
			aidbox.WithUserAgent("test-agent/1.0"),
			aidbox.WithTimeout(60*time.Second),
		)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("success with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{
			Timeout: 90 * time.Second,
		}
		client, err := aidbox.NewClient(ctx,
			aidbox.WithBaseURL("https://box.example.com"),
			aidbox.WithToken("tok"),
			aidbox.WithHTTPClient(customClient),
		)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestNewClient_Handshake(t *testing.T) {
	ctx := context.Background()

	t.Run("token from redirect query", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/oauth2/authorize", r.URL.Path)
			assert.Equal(t, "sansara", r.URL.Query().Get("client_id"))
			assert.Equal(t, "openid profile email", r.URL.Query().Get("scope"))
			assert.Equal(t, "id_token", r.URL.Query().Get("response_type"))

			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "user@example.com", r.PostFormValue("email"))
			assert.Equal(t, "secret", r.PostFormValue("password"))

			w.Header().Set("Location", "https://box.example.com/cb?id_token=tok-123")
			w.WriteHeader(http.StatusFound)
		}))
		t.Cleanup(server.Close)

		client, err := aidbox.NewClient(ctx,
			aidbox.WithBaseURL(server.URL),
			aidbox.WithCredentials("user@example.com", "secret"),
		)
		require.NoError(t, err)
		assert.Equal(t, "tok-123", client.Token())
	})

	t.Run("token from redirect fragment", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Location", "https://box.example.com/cb#id_token=tok-456&state=x")
			w.WriteHeader(http.StatusFound)
		}))
		t.Cleanup(server.Close)

		client, err := aidbox.NewClient(ctx,
			aidbox.WithBaseURL(server.URL),
			aidbox.WithCredentials("user@example.com", "secret"),
		)
		require.NoError(t, err)
		assert.Equal(t, "tok-456", client.Token())
	})

	t.Run("missing redirect fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(server.Close)

		_, err := aidbox.NewClient(ctx,
			aidbox.WithBaseURL(server.URL),
			aidbox.WithCredentials("user@example.com", "secret"),
		)
		require.Error(t, err)

		var authErr *aidbox.AuthorizationError
		assert.ErrorAs(t, err, &authErr)
	})

	t.Run("redirect without token fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Location", "https://box.example.com/cb?error=denied")
			w.WriteHeader(http.StatusFound)
		}))
		t.Cleanup(server.Close)

		_, err := aidbox.NewClient(ctx,
			aidbox.WithBaseURL(server.URL),
			aidbox.WithCredentials("user@example.com", "secret"),
		)
		require.Error(t, err)

		var authErr *aidbox.AuthorizationError
		assert.ErrorAs(t, err, &authErr)
	})
}

func TestClient_BearerToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Attribute", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(t, w, attributeBundle("name"))
	})

	client := setupTestServer(t, mux)

	_, err := client.Resource(context.Background(), "Patient", map[string]any{"name": "John"})
	require.NoError(t, err)
}
