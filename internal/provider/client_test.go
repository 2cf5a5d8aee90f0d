package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		baseURL: server.URL,
		apiKey:  "test-api-key",
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func TestCreateAudience(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audiences", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		var req AudienceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Casting Directors", req.Name)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(AudienceResponse{ID: "aud_123", Name: req.Name})
	}))
	defer server.Close()

	client := newTestClient(server)
	resp, err := client.CreateAudience(context.Background(), "Casting Directors")
	require.NoError(t, err)
	assert.Equal(t, "aud_123", resp.ID)
}

func TestCreateAndUpdateContact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/audiences/aud_1/contacts":
			json.NewEncoder(w).Encode(ContactResponse{ID: "con_1", Email: "a@x.com"})
		case r.Method == http.MethodPatch && r.URL.Path == "/audiences/aud_1/contacts/con_1":
			json.NewEncoder(w).Encode(ContactResponse{ID: "con_1", Email: "a@x.com", FirstName: "Ann"})
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server)
	created, err := client.CreateContact(context.Background(), "aud_1", ContactRequest{Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "con_1", created.ID)

	updated, err := client.UpdateContact(context.Background(), "aud_1", "con_1", ContactRequest{FirstName: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", updated.FirstName)
}

func TestAPIErrorDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"name":    "validation_error",
			"message": "email is invalid",
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.CreateContact(context.Background(), "aud_1", ContactRequest{Email: "bad"})
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "email is invalid", apiErr.Message)
}

func TestSendBroadcastScheduled(t *testing.T) {
	scheduled := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/broadcasts/bc_9/send", r.URL.Path)
		var req SendBroadcastRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.ScheduledAt)
		assert.True(t, req.ScheduledAt.Equal(scheduled))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(BroadcastResponse{ID: "bc_9"})
	}))
	defer server.Close()

	client := newTestClient(server)
	resp, err := client.SendBroadcast(context.Background(), "bc_9", SendBroadcastRequest{ScheduledAt: &scheduled})
	require.NoError(t, err)
	assert.Equal(t, "bc_9", resp.ID)
}
