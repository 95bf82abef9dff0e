package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mccorkel/mnr-hackathon-mobile/internal/fhir"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/metrics"
	"github.com/rs/zerolog/log"
)

const (
	queryPath    = "/api/secure/query"
	refreshPath  = "/api/auth/refresh"
	registerPath = "/auth/register"

	// FallbackLimit caps the reduced query sent after a server rejection
	FallbackLimit = 25
)

// signInPaths are tried in order until one returns a token
var signInPaths = []string{
	"/api/auth/signin",
	"/api/auth/login",
	"/auth/login",
	"/auth/signin",
}

// Client talks to a Fasten gateway
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// QueryRequest is the body of a secure query
type QueryRequest struct {
	From   string                 `json:"from"`
	Select []string               `json:"select"`
	Where  map[string]interface{} `json:"where"`
	Limit  int                    `json:"limit,omitempty"`
}

// RegisterRequest is the body of an account registration
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type response struct {
	status      int
	contentType string
	body        []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// NewClient creates a new gateway client. Redirects are never followed: the
// gateway answers unauthenticated API calls with a redirect to its web UI.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the gateway base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NewQuery builds the unrestricted query for one resource kind
func NewQuery(kind fhir.ResourceKind) QueryRequest {
	return QueryRequest{
		From:   string(kind),
		Select: []string{"*"},
		Where:  map[string]interface{}{},
	}
}

// FallbackQuery builds the reduced query for one resource kind
func FallbackQuery(kind fhir.ResourceKind) QueryRequest {
	q := NewQuery(kind)
	q.Limit = FallbackLimit
	return q
}

// Query runs a secure query and unwraps the records of the response. A body
// that cannot be unwrapped yields no records and an error wrapping
// fhir.ErrMalformedResponse.
func (c *Client) Query(ctx context.Context, token string, q QueryRequest) ([]fhir.RawRecord, error) {
	resp, err := c.send(ctx, http.MethodPost, queryPath, token, q)
	if err != nil {
		return nil, err
	}

	if resp.status == http.StatusUnauthorized {
		return nil, &RequestError{Endpoint: queryPath, Status: resp.status, Kind: ErrAuthExpired}
	}

	var decoded interface{}
	decodeErr := json.Unmarshal(resp.body, &decoded)

	if !resp.ok() {
		return nil, &RequestError{
			Endpoint: queryPath,
			Status:   resp.status,
			Message:  failureMessage(decoded),
			Kind:     ErrServerRejected,
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("query %s: %w: %v", q.From, fhir.ErrMalformedResponse, decodeErr)
	}
	if rejected(decoded) {
		return nil, &RequestError{
			Endpoint: queryPath,
			Status:   resp.status,
			Message:  failureMessage(decoded),
			Kind:     ErrServerRejected,
		}
	}

	records, err := fhir.Unwrap(decoded)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.From, err)
	}

	log.Debug().
		Str("resource_kind", q.From).
		Int("limit", q.Limit).
		Int("count", len(records)).
		Msg("Query succeeded")
	return records, nil
}

// SignIn exchanges credentials for a token, trying each known sign-in
// endpoint in turn. Redirects and HTML pages mean the endpoint is not the API
// and the next one is tried.
func (c *Client) SignIn(ctx context.Context, username, password string) (string, error) {
	creds := map[string]string{"username": username, "password": password}

	var lastErr error
	for _, path := range signInPaths {
		resp, err := c.send(ctx, http.MethodPost, path, "", creds)
		if err != nil {
			log.Warn().Err(err).Str("endpoint", path).Msg("Sign-in endpoint unreachable")
			lastErr = err
			continue
		}

		if resp.status >= 300 && resp.status < 400 {
			log.Debug().Str("endpoint", path).Int("status", resp.status).Msg("Sign-in endpoint redirected, trying next")
			continue
		}
		if strings.Contains(resp.contentType, "text/html") {
			log.Debug().Str("endpoint", path).Msg("Sign-in endpoint returned HTML, trying next")
			continue
		}

		var data map[string]interface{}
		if err := json.Unmarshal(resp.body, &data); err != nil {
			log.Debug().Str("endpoint", path).Msg("Sign-in response is not JSON, trying next")
			continue
		}

		if !resp.ok() {
			lastErr = &RequestError{
				Endpoint: path,
				Status:   resp.status,
				Message:  failureMessage(data),
				Kind:     ErrServerRejected,
			}
			continue
		}

		token := tokenOf(data)
		if token == "" {
			lastErr = fmt.Errorf("%s: %w", path, ErrNoToken)
			continue
		}

		log.Info().Str("endpoint", path).Str("username", username).Msg("Signed in")
		return token, nil
	}

	if lastErr == nil {
		lastErr = ErrNoToken
	}
	return "", fmt.Errorf("sign in failed: %w", lastErr)
}

// Refresh exchanges a token for a new one
func (c *Client) Refresh(ctx context.Context, token string) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, refreshPath, token, nil)
	if err != nil {
		return "", err
	}
	if resp.status == http.StatusUnauthorized {
		return "", &RequestError{Endpoint: refreshPath, Status: resp.status, Kind: ErrAuthExpired}
	}

	var data map[string]interface{}
	_ = json.Unmarshal(resp.body, &data)
	if !resp.ok() {
		return "", &RequestError{
			Endpoint: refreshPath,
			Status:   resp.status,
			Message:  failureMessage(data),
			Kind:     ErrServerRejected,
		}
	}

	newToken := tokenOf(data)
	if newToken == "" {
		return "", fmt.Errorf("%s: %w", refreshPath, ErrNoToken)
	}
	return newToken, nil
}

// Register creates an account. The caller signs in afterwards.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	resp, err := c.send(ctx, http.MethodPost, registerPath, "", req)
	if err != nil {
		return err
	}

	var data interface{}
	if err := json.Unmarshal(resp.body, &data); err != nil {
		return fmt.Errorf("%s: %w: %v", registerPath, fhir.ErrMalformedResponse, err)
	}
	if !resp.ok() || rejected(data) {
		return &RequestError{
			Endpoint: registerPath,
			Status:   resp.status,
			Message:  failureMessage(data),
			Kind:     ErrServerRejected,
		}
	}

	log.Info().Str("username", req.Username).Msg("Registered account")
	return nil
}

// Ping checks that the gateway answers at all. Any HTTP response, whatever
// its status, means the domain is reachable.
func (c *Client) Ping(ctx context.Context) (int, error) {
	resp, err := c.send(ctx, http.MethodGet, "/", "", nil)
	if err != nil {
		return 0, err
	}
	return resp.status, nil
}

func (c *Client) send(ctx context.Context, method, path, token string, payload interface{}) (response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return response{}, fmt.Errorf("failed to encode %s request: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return response{}, fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Origin", c.baseURL)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordGatewayRequest(path, 0)
		return response{}, &RequestError{Endpoint: path, Kind: ErrNetworkFailure, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	metrics.RecordGatewayRequest(path, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, &RequestError{Endpoint: path, Status: resp.StatusCode, Kind: ErrNetworkFailure, Err: err}
	}

	return response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

// rejected reports a {success:false} body
func rejected(body interface{}) bool {
	obj, ok := body.(map[string]interface{})
	if !ok {
		return false
	}
	success, ok := obj["success"].(bool)
	return ok && !success
}

func failureMessage(body interface{}) string {
	obj, ok := body.(map[string]interface{})
	if !ok {
		return ""
	}
	for _, key := range []string{"message", "error"} {
		switch v := obj[key].(type) {
		case string:
			return v
		case map[string]interface{}:
			if m, ok := v["message"].(string); ok {
				return m
			}
		}
	}
	return ""
}

// tokenOf finds the token in an auth response. A non-string token is kept in
// its JSON form.
func tokenOf(data map[string]interface{}) string {
	for _, key := range []string{"data", "token", "access_token"} {
		switch v := data[key].(type) {
		case nil:
			continue
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		default:
			encoded, err := json.Marshal(v)
			if err == nil {
				return string(encoded)
			}
		}
	}
	return ""
}
