package mem0

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEM0_API_KEY")

	_, err = NewClient(WithAPIKey("m0-test"))
	assert.NoError(t, err)
}

func TestClient_GetAll(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "results envelope",
			body: `{"results": [{"id": "mem-1", "memory": "likes chai", "metadata": {"message_count": 2}}]}`,
		},
		{
			name: "bare array",
			body: `[{"id": "mem-1", "memory": "likes chai", "metadata": {"message_count": 2}}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/v1/memories/", r.URL.Path)
				assert.Equal(t, "gaurav", r.URL.Query().Get("user_id"))
				assert.Equal(t, "Token m0-test", r.Header.Get("Authorization"))
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(WithAPIKey("m0-test"), WithBaseURL(server.URL))
			require.NoError(t, err)

			memories, err := client.GetAll(context.Background(), "gaurav")
			require.NoError(t, err)
			require.Len(t, memories, 1)
			assert.Equal(t, "mem-1", memories[0].ID)
			assert.Equal(t, "likes chai", memories[0].Memory)
		})
	}
}

func TestClient_Add(t *testing.T) {
	var received AddRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/memories/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client, err := NewClient(WithAPIKey("m0-test"), WithBaseURL(server.URL))
	require.NoError(t, err)

	err = client.Add(context.Background(), AddRequest{
		Messages: []Message{{Role: "user", Content: "Hello"}},
		UserID:   "gaurav",
		Metadata: map[string]any{"message_count": 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "gaurav", received.UserID)
	require.Len(t, received.Messages, 1)
	assert.Equal(t, "Hello", received.Messages[0].Content)
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/memories/search/", r.URL.Path)
		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "favourite tea", req.Query)
		assert.Equal(t, 5, req.Limit)
		w.Write([]byte(`{"results": [{"id": "mem-2", "memory": "prefers masala chai", "score": 0.91}]}`))
	}))
	defer server.Close()

	client, err := NewClient(WithAPIKey("m0-test"), WithBaseURL(server.URL))
	require.NoError(t, err)

	results, err := client.Search(context.Background(), SearchRequest{
		Query:  "favourite tea",
		UserID: "gaurav",
		Limit:  5,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0.91, results[0].Score)
}

func TestClient_DeleteEndpoints(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(WithAPIKey("m0-test"), WithBaseURL(server.URL))
	require.NoError(t, err)

	require.NoError(t, client.Delete(context.Background(), "mem-1"))
	require.NoError(t, client.DeleteAll(context.Background(), "gaurav"))

	require.Len(t, paths, 2)
	assert.Equal(t, "/v1/memories/mem-1/?", paths[0])
	assert.Equal(t, "/v1/memories/?user_id=gaurav", paths[1])
}

func TestClient_ErrorStatusSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "invalid token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(WithAPIKey("bad"), WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.GetAll(context.Background(), "gaurav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
