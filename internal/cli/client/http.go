package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const requestTimeout = 30 * time.Second

// APIClient talks to an hrassistd server. Every request carries the
// employee id and, when set, the admin key.
type APIClient struct {
	baseURL    string
	userID     string
	adminKey   string
	httpClient *http.Client
}

// NewAPIClientWithCmd builds a client from ResolveSettings.
func NewAPIClientWithCmd(cmd *cobra.Command) (*APIClient, error) {
	s, err := ResolveSettings(cmd)
	if err != nil {
		return nil, err
	}
	return NewAPIClientWithConfig(s.APIURL, s.UserID, s.AdminKey), nil
}

func NewAPIClientWithConfig(baseURL, userID, adminKey string) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
		adminKey:   adminKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// UserID returns the employee id sent with each request.
func (c *APIClient) UserID() string {
	return c.userID
}

// APIResponse is the server's envelope.
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
	Code  string          `json:"code,omitempty"`
}

// APIError is a non-2xx answer. RequestID matches the server's access log.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Unavailable reports a 503, which the server uses when the corpus, the
// embedder or the ticket store is down.
func (e *APIError) Unavailable() bool {
	return e.StatusCode == http.StatusServiceUnavailable
}

func (c *APIClient) Get(path string) (*APIResponse, error) {
	return c.do(http.MethodGet, path, nil)
}

func (c *APIClient) Post(path string, body interface{}) (*APIResponse, error) {
	return c.do(http.MethodPost, path, body)
}

func (c *APIClient) do(method, path string, body interface{}) (*APIResponse, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := "cli-" + uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}
	if c.adminKey != "" {
		req.Header.Set("X-Admin-Key", c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot reach %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var out APIResponse
	parseErr := json.Unmarshal(raw, &out)
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: out.Error, Code: out.Code, RequestID: requestID}
		if parseErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return nil, apiErr
	}
	if parseErr != nil {
		return nil, fmt.Errorf("failed to parse response: %w", parseErr)
	}
	return &out, nil
}

func decodeData(resp *APIResponse, out interface{}) error {
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
