// Package fedex wraps the FedEx REST rate and OAuth endpoints behind a
// small client the carrier adapter drives.
package fedex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/parcelworks/rateshop/internal/rates/domain"
)

const defaultTimeout = 10 * time.Second

// Config carries the externally supplied credentials and endpoint for one
// FedEx account.
type Config struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	AccountNumber string
	Timeout       time.Duration
}

// Client issues authenticated calls against the FedEx rate API.
type Client struct {
	baseURL       string
	clientID      string
	clientSecret  string
	accountNumber string
	timeout       time.Duration
	httpClient    *http.Client
	tokens        *tokenSource
}

// NewClient validates the config and builds a client with sane defaults.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("fedex base URL is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errors.New("fedex client credentials are required")
	}
	if strings.TrimSpace(cfg.AccountNumber) == "" {
		return nil, errors.New("fedex account number is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:       baseURL,
		clientID:      cfg.ClientID,
		clientSecret:  cfg.ClientSecret,
		accountNumber: cfg.AccountNumber,
		timeout:       timeout,
		httpClient:    httpClient,
		tokens:        newTokenSource(),
	}, nil
}

// AccountNumberValue exposes the configured account for request bodies.
func (c *Client) AccountNumberValue() string { return c.accountNumber }

// RateQuotes posts the rate request and decodes the reply. Each call runs
// under the configured timeout; expiry cancels the underlying call and
// surfaces a recoverable transport fault carrying the bound.
func (c *Client) RateQuotes(ctx context.Context, rateReq RateRequest) (*RateReply, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(rateReq)
	if err != nil {
		return nil, domain.NewProtocolFault(domain.CarrierFedEx, "encode rate request", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/rate/v1/rates/quotes", bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewProtocolFault(domain.CarrierFedEx, "build rate request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportFault("rate request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusFault(resp)
	}

	var reply RateReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, domain.NewProtocolFault(domain.CarrierFedEx, "decode rate reply", err)
	}
	return &reply, nil
}

// transportFault classifies a round-trip failure by its structure rather
// than its message text: context expiry and net-level errors are
// recoverable transport faults, anything else is a protocol fault.
func (c *Client) transportFault(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewTransportFault(domain.CarrierFedEx,
			fmt.Sprintf("%s timed out after %s", op, c.timeout), err)
	case errors.Is(err, context.Canceled):
		return domain.NewTransportFault(domain.CarrierFedEx, op+" canceled", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewTransportFault(domain.CarrierFedEx, op+" failed", err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return domain.NewTransportFault(domain.CarrierFedEx, op+" failed", err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.NewTransportFault(domain.CarrierFedEx, op+" DNS lookup failed", err)
	}
	// http.Client.Do only fails before a response exists, so treat the
	// remainder as transport too: the request never reached the API.
	return domain.NewTransportFault(domain.CarrierFedEx, op+" failed", err)
}

func (c *Client) statusFault(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	detail := strings.TrimSpace(string(body))
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		detail = fmt.Sprintf("%s: %s", parsed.Errors[0].Code, parsed.Errors[0].Message)
	}
	return domain.NewProtocolFault(domain.CarrierFedEx,
		fmt.Sprintf("rate request rejected with status %d: %s", resp.StatusCode, detail), nil)
}
