// pattern: Imperative Shell

package instance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"gitok/internal/scheduler"
	"gitok/internal/status"
	"gitok/internal/web"
)

// scanTimeout bounds a remote scan requested over HTTP; fetches can be slow.
const scanTimeout = 10 * time.Minute

// Client is a thin HTTP client for a running gitok instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client targeting the given base URL.
func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, 10*time.Second)
}

// NewClientWithTimeout creates a Client with a custom timeout.
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Status fetches the schedule state and latest scan.
func (c *Client) Status() (web.StatusResponse, error) {
	var out web.StatusResponse
	err := c.call(http.MethodGet, "/api/status", nil, &out)
	return out, err
}

// Scan asks the instance to scan now and waits for the result.
func (c *Client) Scan(includeRemote bool) (status.ScanResult, error) {
	var out status.ScanResult
	slow := &Client{baseURL: c.baseURL, httpClient: &http.Client{Timeout: scanTimeout}}
	err := slow.call(http.MethodPost, "/api/scan?remote="+strconv.FormatBool(includeRemote), nil, &out)
	return out, err
}

// StartPolling enables both cadences.
func (c *Client) StartPolling() (scheduler.State, error) {
	var out scheduler.State
	err := c.call(http.MethodPost, "/api/polling/start", nil, &out)
	return out, err
}

// StopPolling disables both cadences.
func (c *Client) StopPolling() (scheduler.State, error) {
	var out scheduler.State
	err := c.call(http.MethodPost, "/api/polling/stop", nil, &out)
	return out, err
}

// SetRoot changes the watched root. An empty path clears it.
func (c *Client) SetRoot(path string) (scheduler.State, error) {
	var out scheduler.State
	err := c.call(http.MethodPut, "/api/root", web.RootRequest{Path: path}, &out)
	return out, err
}

// call sends body as JSON when non-nil and decodes a 2xx response into out.
func (c *Client) call(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to gitok: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Message: extractErrorMessage(respBody)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError is a non-2xx response from the instance.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gitok returned status %d: %s", e.Code, e.Message)
}

// extractErrorMessage returns the "error" field of a JSON body, or the raw
// body when there is none.
func extractErrorMessage(body []byte) string {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}
	return string(body)
}
