package replicate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rulebench/rulebench/internal/llm/driver"
)

func TestCompleteRequiresAPIToken(t *testing.T) {
	client := NewClient("", "")
	_, err := client.Complete(context.Background(), &driver.Request{
		Model:    "meta/llama-2-70b-chat",
		Messages: []driver.Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "api token")
}

func TestCompletePollsUntilSucceeded(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Token test-token", r.Header.Get("Authorization"))

		switch {
		case r.Method == http.MethodPost:
			require.Equal(t, "/models/meta/llama-2-70b-chat/predictions", r.URL.Path)

			var payload struct {
				Version string         `json:"version"`
				Input   map[string]any `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			require.Empty(t, payload.Version)
			require.Equal(t, "How many tiles per turn?", payload.Input["prompt"])
			require.Equal(t, 0.0, payload.Input["temperature"])

			_, _ = w.Write([]byte(`{"id":"pred-1","status":"starting"}`))
		case r.URL.Path == "/predictions/pred-1":
			if polls.Add(1) < 2 {
				_, _ = w.Write([]byte(`{"id":"pred-1","status":"processing"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"pred-1","status":"succeeded","output":["Two"," tiles."]}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-token")
	client.PollInterval = 0

	resp, err := client.Complete(context.Background(), &driver.Request{
		Model:    "meta/llama-2-70b-chat",
		Messages: []driver.Message{{Role: "user", Content: "How many tiles per turn?"}},
	})
	require.NoError(t, err)
	require.Equal(t, "Two tiles.", resp.Content)
	require.Equal(t, int32(2), polls.Load())
}

func TestCompleteUsesVersionHashForBareModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/predictions", r.URL.Path)

		var payload struct {
			Version string `json:"version"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "abc123", payload.Version)

		_, _ = w.Write([]byte(`{"id":"pred-2","status":"succeeded","output":"ok"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-token")
	client.PollInterval = 0

	resp, err := client.Complete(context.Background(), &driver.Request{
		Model:    "abc123",
		Messages: []driver.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Content)
}

func TestCompleteSurfacesFailedPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"pred-3","status":"failed","error":"out of memory"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-token")
	client.PollInterval = 0

	_, err := client.Complete(context.Background(), &driver.Request{
		Model:    "meta/llama-2-70b-chat",
		Messages: []driver.Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)

	var provErr *driver.ProviderError
	require.ErrorAs(t, err, &provErr)
	require.Contains(t, provErr.Message, "out of memory")
}
