package fedex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/parcelworks/rateshop/internal/rates/domain"
)

// tokenRefreshBuffer is how long before expiry a cached token is refreshed.
const tokenRefreshBuffer = 5 * time.Minute

// tokenSource caches the bearer token obtained from the client-credentials
// exchange. Refreshes are single-flight: concurrent callers observing a
// stale token share one in-flight exchange instead of issuing duplicates.
type tokenSource struct {
	mu     sync.Mutex
	group  singleflight.Group
	token  string
	expiry time.Time
	now    func() time.Time
}

func newTokenSource() *tokenSource {
	return &tokenSource{now: time.Now}
}

func (t *tokenSource) cached() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.token != "" && t.now().Before(t.expiry.Add(-tokenRefreshBuffer)) {
		return t.token, true
	}
	return "", false
}

func (t *tokenSource) store(token string, expiresIn int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
	t.expiry = t.now().Add(time.Duration(expiresIn) * time.Second)
}

// bearerToken returns a valid token, exchanging credentials when the cache
// is empty or inside the refresh buffer.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	if token, ok := c.tokens.cached(); ok {
		return token, nil
	}
	value, err, _ := c.tokens.group.Do("token", func() (any, error) {
		// A flight that just finished may have filled the cache.
		if token, ok := c.tokens.cached(); ok {
			return token, nil
		}
		return c.exchangeCredentials(ctx)
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// exchangeCredentials performs the OAuth client-credentials grant.
func (c *Client) exchangeCredentials(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", domain.NewProtocolFault(domain.CarrierFedEx, "build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.transportFault("token exchange", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", domain.NewProtocolFault(domain.CarrierFedEx,
			fmt.Sprintf("token exchange rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", domain.NewProtocolFault(domain.CarrierFedEx, "decode token response", err)
	}
	if token.AccessToken == "" || token.ExpiresIn <= 0 {
		return "", domain.NewProtocolFault(domain.CarrierFedEx, "token response missing access token or expiry", nil)
	}
	c.tokens.store(token.AccessToken, token.ExpiresIn)
	return token.AccessToken, nil
}
