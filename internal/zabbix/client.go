// Package zabbix implements the JSON-RPC over HTTP client for
// Zabbix-style monitoring servers. It knows nothing about sessions or
// caching; callers supply the auth credential on every call.
package zabbix

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/sonic-ru/zbxdash/internal/errors"
	"github.com/sonic-ru/zbxdash/internal/logger"
)

// apiPath is appended to base URLs that carry no explicit path.
const apiPath = "/api_jsonrpc.php"

// Client talks to one monitoring server.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        logger.Logger
	reqID      atomic.Int64
}

// Options tunes client construction.
type Options struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	Logger             logger.Logger
}

// NewClient creates a client for the given base URL. A URL without a
// path gets the standard api_jsonrpc.php endpoint appended.
func NewClient(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}

	transport := &http.Transport{}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		endpoint: normalizeEndpoint(baseURL),
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		log: opts.Logger,
	}
}

// normalizeEndpoint appends the API path when the URL has none, so both
// "https://zbx.example.com" and a full endpoint URL work.
func normalizeEndpoint(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = apiPath
		return u.String()
	}
	return baseURL
}

// Endpoint returns the resolved API endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// call performs one JSON-RPC round trip and returns the raw result.
func (c *Client) call(ctx context.Context, auth, method string, params interface{}) (json.RawMessage, error) {
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      int(c.reqID.Add(1)),
		Auth:    auth,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrDecode,
			"Cannot encode request for "+method, "")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTransport,
			"Cannot build request for "+c.endpoint,
			"Check the server URL")
	}
	httpReq.Header.Set("Content-Type", "application/json-rpc")

	c.log.Debug("-> %s %s", method, c.endpoint)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTransport,
			"Cannot reach "+c.endpoint,
			"Check the server URL and your network connection")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a little of the body for the log, then discard.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		c.log.Debug("<- %s HTTP %d: %s", method, resp.StatusCode, snippet)
		return nil, errors.New(errors.ErrTransport,
			fmt.Sprintf("Server returned HTTP %d for %s", resp.StatusCode, method),
			"Check that the URL points at the JSON-RPC API endpoint")
	}

	var rpcResp response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrDecode,
			"Server response is not valid JSON-RPC",
			"Check that the URL points at the JSON-RPC API endpoint")
	}

	if rpcResp.Error != nil {
		if rpcResp.Error.IsAuthFailure() {
			return nil, errors.WrapWithCode(rpcResp.Error, errors.ErrAuth,
				"Authentication rejected by the server",
				"Check the credentials configured for this server")
		}
		// Well-formed but non-auth server errors surface as transport
		// failures: from the caller's point of view the trip failed.
		return nil, errors.WrapWithCode(rpcResp.Error, errors.ErrTransport,
			method+" failed on the server", "")
	}

	if rpcResp.Result == nil {
		return nil, errors.New(errors.ErrDecode,
			"Server response carries neither result nor error", "")
	}
	return rpcResp.Result, nil
}

// Login exchanges credentials for a session token via user.login.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	result, err := c.call(ctx, "", "user.login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	var token string
	if err := json.Unmarshal(result, &token); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrDecode,
			"Login response is not a token string", "")
	}
	return token, nil
}

// Logout invalidates a session token via user.logout.
func (c *Client) Logout(ctx context.Context, auth string) error {
	_, err := c.call(ctx, auth, "user.logout", []string{})
	return err
}

// ActiveProblems returns the server's active problems via problem.get.
// An empty result is a valid outcome, not an error.
func (c *Client) ActiveProblems(ctx context.Context, auth string, filter ProblemFilter) ([]Problem, error) {
	params := map[string]interface{}{
		"output":    "extend",
		"recent":    false,
		"sortfield": []string{"eventid"},
		"sortorder": "DESC",
	}
	// Zabbix treats an absent flag as "include"; only restrict when the
	// caller filters the category out.
	if !filter.ShowAcknowledged {
		params["acknowledged"] = false
	}
	if !filter.ShowSuppressed {
		params["suppressed"] = false
	}

	result, err := c.call(ctx, auth, "problem.get", params)
	if err != nil {
		return nil, err
	}

	var problems []Problem
	if err := json.Unmarshal(result, &problems); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrDecode,
			"problem.get response does not match the expected shape", "")
	}
	return problems, nil
}

// HostsByID resolves host names for the given host ids via host.get.
func (c *Client) HostsByID(ctx context.Context, auth string, ids []string) ([]Host, error) {
	result, err := c.call(ctx, auth, "host.get", map[string]interface{}{
		"hostids": ids,
		"output":  []string{"hostid", "name"},
	})
	if err != nil {
		return nil, err
	}

	var hosts []Host
	if err := json.Unmarshal(result, &hosts); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrDecode,
			"host.get response does not match the expected shape", "")
	}
	return hosts, nil
}
