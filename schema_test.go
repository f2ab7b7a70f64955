package aidbox_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-aidbox"
)

func TestSchemaCaching(t *testing.T) {
	t.Run("schema fetched once per type", func(t *testing.T) {
		attributeCalls := 0
		mux := http.NewServeMux()
		mux.HandleFunc("/Attribute", func(w http.ResponseWriter, r *http.Request) {
			attributeCalls++
			writeJSON(t, w, attributeBundle("name"))
		})

		client := setupTestServer(t, mux)
		ctx := context.Background()

		_, err := client.Resource(ctx, "Patient", map[string]any{"name": "John"})
		require.NoError(t, err)
		_, err = client.Resource(ctx, "Patient", map[string]any{"name": "Jane"})
		require.NoError(t, err)

		assert.Equal(t, 1, attributeCalls)
	})

	t.Run("invalidate forces refetch", func(t *testing.T) {
		attributeCalls := 0
		mux := http.NewServeMux()
		mux.HandleFunc("/Attribute", func(w http.ResponseWriter, r *http.Request) {
			attributeCalls++
			writeJSON(t, w, attributeBundle("name"))
		})

		client := setupTestServer(t, mux)
		ctx := context.Background()

		_, err := client.Resource(ctx, "Patient", map[string]any{"name": "John"})
		require.NoError(t, err)

		client.InvalidateSchema("Patient")

		_, err = client.Resource(ctx, "Patient", map[string]any{"name": "Jane"})
		require.NoError(t, err)

		assert.Equal(t, 2, attributeCalls)
	})

	t.Run("wire field names become local", func(t *testing.T) {
		client := setupTestServer(t, patientMux(t))
		ctx := context.Background()

		patient, err := client.Resource(ctx, "Patient", map[string]any{
			"birth_date": "1980-01-01",
		})
		require.NoError(t, err)

		value, err := patient.GetField("birth_date")
		require.NoError(t, err)
		assert.Equal(t, "1980-01-01", value)
	})

	t.Run("id is always a schema field", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/Attribute", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, attributeBundle())
		})

		client := setupTestServer(t, mux)

		resource, err := client.Resource(context.Background(), "Basic", map[string]any{"id": "b1"})
		require.NoError(t, err)
		assert.Equal(t, "b1", resource.ID())
	})

	t.Run("schema fetch failure propagates", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/Attribute", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, err := w.Write([]byte("boom"))
			assert.NoError(t, err)
		})

		client := setupTestServer(t, mux)

		_, err := client.Resource(context.Background(), "Patient", nil)
		require.Error(t, err)

		var outcome *aidbox.OperationOutcomeError
		assert.ErrorAs(t, err, &outcome)
	})
}
