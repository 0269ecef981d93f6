package gitlab3

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
)

const (
	// apiPath is appended to the GitLab URL to form the API base URL.
	apiPath = "/api/v3"

	// DefaultTimeout is the HTTP timeout used when none is configured.
	DefaultTimeout = 30 * time.Second

	defaultUserAgent = "gitlab3-go"
)

// Access levels for project, group and team members.
const (
	AccessLevelGuest     = 10
	AccessLevelReporter  = 20
	AccessLevelDeveloper = 30
	AccessLevelMaster    = 40
)

// Client is a GitLab API v3 client.
// It holds the connection settings and the authentication token; entities
// returned by the client keep a reference to it for further calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger
	registry   *Registry
	userAgent  string
	perPage    int

	mu    sync.RWMutex
	token string
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*clientSettings)

type clientSettings struct {
	httpClient         *http.Client
	logger             *zerolog.Logger
	timeout            time.Duration
	insecureSkipVerify bool
	userAgent          string
	perPage            int
}

// WithHTTPClient sets the HTTP client used for requests.
// When hc has no cookie jar, the client uses a copy of hc with its own jar;
// hc itself is not modified.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(s *clientSettings) {
		s.httpClient = hc
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger *zerolog.Logger) ClientOption {
	return func(s *clientSettings) {
		s.logger = logger
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(s *clientSettings) {
		s.timeout = timeout
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// Ignored when a custom HTTP client is supplied.
func WithInsecureSkipVerify(skip bool) ClientOption {
	return func(s *clientSettings) {
		s.insecureSkipVerify = skip
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(s *clientSettings) {
		s.userAgent = ua
	}
}

// WithPerPage sets the page size used when a listing does not request one.
// Values outside 1..MaxPerPage are ignored.
func WithPerPage(n int) ClientOption {
	return func(s *clientSettings) {
		if n > 0 && n <= MaxPerPage {
			s.perPage = n
		}
	}
}

// NewClient creates a new GitLab client for the server at gitlabURL
// (e.g., "https://gitlab.example.com"). token may be empty when the client
// will authenticate with Login.
func NewClient(gitlabURL, token string, opts ...ClientOption) *Client {
	settings := &clientSettings{
		timeout:   DefaultTimeout,
		userAgent: defaultUserAgent,
		perPage:   MaxPerPage,
	}
	for _, opt := range opts {
		opt(settings)
	}

	httpClient := settings.httpClient
	if httpClient == nil {
		transport := cleanhttp.DefaultPooledTransport()
		if settings.insecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{
				InsecureSkipVerify: true,
			}
		}
		httpClient = &http.Client{
			Transport: transport,
			Timeout:   settings.timeout,
		}
	}

	// Keeps the session cookie set by /session
	if httpClient.Jar == nil {
		withJar := *httpClient
		// the error of cookiejar.New is always nil
		withJar.Jar, _ = cookiejar.New(nil)
		httpClient = &withJar
	}

	logger := settings.logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Client{
		baseURL:    strings.TrimRight(gitlabURL, "/") + apiPath,
		httpClient: httpClient,
		logger:     logger,
		registry:   defs,
		userAgent:  settings.userAgent,
		perPage:    settings.perPage,
		token:      token,
	}
}

// BaseURL returns the API base URL, including the /api/v3 suffix.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Registry returns the built-in resource definitions.
func (c *Client) Registry() *Registry {
	return c.registry
}

// Token returns the private token currently used for requests.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.token
}

// SetToken replaces the private token used for requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
}

// Do performs a request against the API and decodes the JSON response into
// out (which may be nil). params are encoded into the query string; body is
// JSON-encoded.
func (c *Client) Do(ctx context.Context, method, path string, params, body, out any, opts ...RequestOption) error {
	data, err := c.send(ctx, method, path, params, body, opts)
	if err != nil {
		return err
	}

	return c.decode(method, path, data, out)
}

// DoRaw performs a request and returns the undecoded response body.
// Used for endpoints serving plain text, such as raw snippets and blobs.
func (c *Client) DoRaw(ctx context.Context, method, path string, params any, opts ...RequestOption) ([]byte, error) {
	return c.send(ctx, method, path, params, nil, opts)
}

// decode unmarshals a response body, treating undecodable JSON as a server error.
func (c *Client) decode(method, path string, data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Error().Err(err).Str("url", c.baseURL+path).Msg("GitLab: Failed to decode response")
		return &Error{
			Type:    ErrorTypeServer,
			Message: "malformed response",
			Method:  method,
			URL:     c.baseURL + path,
			Body:    data,
			Err:     err,
		}
	}
	return nil
}

// send executes a request and returns the response body of a 2xx response.
func (c *Client) send(ctx context.Context, method, path string, params, body any, opts []RequestOption) ([]byte, error) {
	cfg := newRequestConfig(ctx, opts)

	values, err := encodeParams(params)
	if err != nil {
		return nil, err
	}
	if cfg.sudo != "" {
		values.Set("sudo", cfg.sudo)
	}

	reqURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	var reqBody io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := c.newRequest(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, err
	}
	for key, vals := range cfg.header {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}

	return c.doRequest(req)
}

// newRequest creates a new HTTP request with auth headers.
func (c *Client) newRequest(ctx context.Context, method, reqURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// GitLab v3 authenticates with the PRIVATE-TOKEN header; without a
	// token the session cookie from the jar is used
	if token := c.Token(); token != "" {
		req.Header.Set("PRIVATE-TOKEN", token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// doRequest executes an HTTP request and returns the body of a 2xx response.
func (c *Client) doRequest(req *http.Request) ([]byte, error) {
	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("GitLab: HTTP request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", req.URL.String()).Msg("GitLab: HTTP request failed")
		return nil, &Error{
			Type:    ErrorTypeConnection,
			Message: ErrConnection.Message,
			Method:  req.Method,
			URL:     req.URL.String(),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{
			Type:       ErrorTypeConnection,
			Message:    "failed to read response",
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Str("content_type", resp.Header.Get("Content-Type")).
		Int("bytes", len(data)).
		Msg("GitLab: HTTP response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Str("body", string(data)).
			Msg("GitLab: HTTP error response")
		return nil, newStatusError(req.Method, req.URL.String(), resp.StatusCode, data)
	}

	return data, nil
}
