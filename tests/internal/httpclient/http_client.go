package httpclient

import (
	"bytes"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

// Client wraps http.Client with helpers for JSON requests against the board API.
type Client struct {
	BaseURL string
	Bearer  string
	HTTP    *http.Client
}

// New creates a new Client.
func New(baseURL, bearer string) *Client {
	return &Client{BaseURL: baseURL, Bearer: bearer, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

// GetJSON issues a GET request and decodes the JSON response into out.
func (c *Client) GetJSON(path string, out any) (*http.Response, error) {
	return c.Do(http.MethodGet, path, nil, out)
}

// PostJSON issues a POST request with a JSON body.
func (c *Client) PostJSON(path string, body, out any) (*http.Response, error) {
	return c.Do(http.MethodPost, path, body, out)
}

// PutJSON issues a PUT request with a JSON body.
func (c *Client) PutJSON(path string, body, out any) (*http.Response, error) {
	return c.Do(http.MethodPut, path, body, out)
}

// PatchJSON issues a PATCH request with a JSON body.
func (c *Client) PatchJSON(path string, body, out any) (*http.Response, error) {
	return c.Do(http.MethodPatch, path, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(path string) (*http.Response, error) {
	return c.Do(http.MethodDelete, path, nil, nil)
}

// Do sends a request and decodes a 2xx JSON response into out. The body of
// other responses is left unread.
func (c *Client) Do(method, path string, body, out any) (*http.Response, error) {
	var buf *bytes.Buffer
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf = bytes.NewBuffer(data)
	} else {
		buf = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, c.BaseURL+path, buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.Bearer)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return resp, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, err
		}
	}
	return resp, nil
}
