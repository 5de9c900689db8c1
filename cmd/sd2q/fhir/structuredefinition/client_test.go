package structuredefinition

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return NewClient(ClientConfig{Timeout: 2 * time.Second, RetryMax: 0}, zerolog.Nop())
}

func TestClient_Fetch(t *testing.T) {
	profile := readTestdata(t, "StructureDefinition-test-patient.json")
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		assert.Contains(t, r.Header.Get("Accept"), "application/fhir+json")
		w.Header().Set("Content-Type", "application/fhir+json")
		_, _ = w.Write(profile)
	}))
	defer server.Close()

	definition, err := newTestClient().Fetch(context.Background(), server.URL+"/StructureDefinition-test-patient.html")
	require.NoError(t, err)

	assert.Equal(t, "/StructureDefinition-test-patient.json", requested)
	assert.Equal(t, "Patient", definition.Type)
}

func TestClient_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			want: ErrUnexpectedStatus,
		},
		{
			name: "other resource type",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"resourceType":"ValueSet"}`))
			},
			want: ErrWrongResourceType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newTestClient().Fetch(context.Background(), server.URL+"/profile.json")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_Fetch_InvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	_, err := newTestClient().Fetch(context.Background(), server.URL+"/profile.json")
	assert.Error(t, err)
}

func TestClient_Fetch_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient().Fetch(ctx, server.URL+"/profile.json")
	assert.Error(t, err)
}
