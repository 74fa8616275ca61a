package fedex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func tokenTestServer(t *testing.T, hits *atomic.Int64, expiresIn int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client_credentials", r.PostFormValue("grant_type"))
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "tok-abc",
			TokenType:   "bearer",
			ExpiresIn:   expiresIn,
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTokenTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:       baseURL,
		ClientID:      "id",
		ClientSecret:  "secret",
		AccountNumber: "740561073",
	}, http.DefaultClient)
	require.NoError(t, err)
	return client
}

func TestBearerToken_CachedAcrossCalls(t *testing.T) {
	var hits atomic.Int64
	server := tokenTestServer(t, &hits, 3600)
	client := newTokenTestClient(t, server.URL)

	for i := 0; i < 5; i++ {
		token, err := client.bearerToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "tok-abc", token)
	}
	require.Equal(t, int64(1), hits.Load())
}

func TestBearerToken_ConcurrentCallersShareOneExchange(t *testing.T) {
	var hits atomic.Int64
	server := tokenTestServer(t, &hits, 3600)
	client := newTokenTestClient(t, server.URL)

	const callers = 20
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = client.bearerToken(context.Background())
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int64(1), hits.Load())
}

func TestBearerToken_RefreshesInsideExpiryBuffer(t *testing.T) {
	var hits atomic.Int64
	server := tokenTestServer(t, &hits, 3600)
	client := newTokenTestClient(t, server.URL)

	current := time.Now()
	client.tokens.now = func() time.Time { return current }

	_, err := client.bearerToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), hits.Load())

	// Still comfortably fresh: no refresh.
	current = current.Add(30 * time.Minute)
	_, err = client.bearerToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), hits.Load())

	// Inside the refresh buffer before expiry: refresh even though the
	// token has not technically expired yet.
	current = current.Add(27 * time.Minute)
	_, err = client.bearerToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), hits.Load())
}

func TestBearerToken_TimeoutIsRecoverableTransportFault(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client, err := NewClient(Config{
		BaseURL:       server.URL,
		ClientID:      "id",
		ClientSecret:  "secret",
		AccountNumber: "740561073",
		Timeout:       50 * time.Millisecond,
	}, http.DefaultClient)
	require.NoError(t, err)

	start := time.Now()
	_, err = client.bearerToken(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	requireFaultKind(t, err, "transport", true)
	require.Less(t, elapsed, time.Second)
}

func TestBearerToken_RejectionIsProtocolFault(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := newTokenTestClient(t, server.URL)

	_, err := client.bearerToken(context.Background())
	require.Error(t, err)
	requireFaultKind(t, err, "protocol", false)
}
