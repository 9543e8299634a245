package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithTimeout(5*time.Second))
}

func TestChatSendsContractHeadersAndBody(t *testing.T) {
	var gotBody ChatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathChat, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"response":"Hi\n\nthere","chunks":[{"content":"c1","relevance_score":88.1},{"content":"c2","relevance_score":42}]}`)
	})

	outcome := client.Chat(context.Background(), "Hello")
	require.Equal(t, Success, outcome.Kind)
	assert.Equal(t, "Hello", gotBody.Message)
	assert.Equal(t, "Hi\n\nthere", outcome.Payload.Response)
	require.Len(t, outcome.Payload.Chunks, 2)
	assert.Equal(t, "c1", outcome.Payload.Chunks[0].Content)
	assert.Equal(t, 42.0, outcome.Payload.Chunks[1].RelevanceScore)
}

func TestChatErrorFieldIsApplicationFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"response":"partial","error":"model offline","chunks":[{"content":"x","relevance_score":1}]}`)
	})
	outcome := client.Chat(context.Background(), "q")
	assert.Equal(t, ApplicationFailure, outcome.Kind)
	assert.Equal(t, "model offline", outcome.Message)
	assert.Empty(t, outcome.Payload.Chunks)
}

func TestChatFalsyErrorFieldIsIgnored(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"response":"ok","error":null}`)
	})
	outcome := client.Chat(context.Background(), "q")
	assert.Equal(t, Success, outcome.Kind)
	assert.Equal(t, "ok", outcome.Payload.Response)
}

func TestChatTransportFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-2xx": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, `{"response":"looks fine"}`)
		},
		"malformed json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `<html>oops</html>`)
		},
		"missing response": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"chunks":[]}`)
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, handler)
			outcome := client.Chat(context.Background(), "q")
			assert.Equal(t, TransportFailure, outcome.Kind)
			assert.Error(t, outcome.Err)
		})
	}
}

func TestChatNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	outcome := New(url, WithTimeout(time.Second)).Chat(context.Background(), "q")
	assert.Equal(t, TransportFailure, outcome.Kind)
	assert.Error(t, outcome.Err)
}

func TestScrapeIgnoresHTTPStatus(t *testing.T) {
	var got ScrapeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathScrape, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"status":"success","message":"12 pages indexed"}`)
	})
	outcome := client.Scrape(context.Background(), "http://x.com", "")
	assert.Equal(t, Success, outcome.Kind)
	assert.Equal(t, "12 pages indexed", outcome.Message)
	assert.Equal(t, ScrapeRequest{URL: "http://x.com", Name: ""}, got)
}

func TestScrapeNonSuccessStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"partial","message":"vector db not updated"}`)
	})
	outcome := client.Scrape(context.Background(), "http://x.com", "x")
	assert.Equal(t, ApplicationFailure, outcome.Kind)
	assert.Equal(t, "vector db not updated", outcome.Message)
}

func TestCleanupSendsEmptyBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathClean, r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		_, _ = io.WriteString(w, `{"status":"error","message":"lock held"}`)
	})
	outcome := client.Cleanup(context.Background())
	assert.Equal(t, ApplicationFailure, outcome.Kind)
	assert.Equal(t, "lock held", outcome.Message)
}

func TestCleanupMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	})
	outcome := client.Cleanup(context.Background())
	assert.Equal(t, TransportFailure, outcome.Kind)
}

func TestNullStatusBodyIsTransportFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `null`)
	})

	scrape := client.Scrape(context.Background(), "http://x.com", "x")
	assert.Equal(t, TransportFailure, scrape.Kind)
	assert.Error(t, scrape.Err)

	cleanup := client.Cleanup(context.Background())
	assert.Equal(t, TransportFailure, cleanup.Kind)

	status := client.VectorStoreStatus(context.Background())
	assert.Equal(t, TransportFailure, status.Kind)
}

func TestVectorStoreStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, PathStatus, r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"success","data":{"total_documents":7,"sources":["KCC Documentation"],"last_updated":"2026-01-01T00:00:00","sample_content":"abc"}}`)
	})
	outcome := client.VectorStoreStatus(context.Background())
	require.Equal(t, Success, outcome.Kind)
	assert.Equal(t, 7, outcome.Payload.TotalDocuments)
	assert.Equal(t, []string{"KCC Documentation"}, outcome.Payload.Sources)
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy(nil))
	assert.False(t, truthy([]byte("null")))
	assert.False(t, truthy([]byte(`""`)))
	assert.False(t, truthy([]byte("false")))
	assert.True(t, truthy([]byte(`"x"`)))
	assert.True(t, truthy([]byte(`{"code":1}`)))
	assert.True(t, truthy([]byte("true")))
}

func TestNewDefaultsBaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, New("  ").BaseURL())
	assert.Equal(t, "http://host:1", New("http://host:1/").BaseURL())
}
