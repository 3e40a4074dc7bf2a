// Shared HTTP plumbing for backend API calls
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/segue/internal/shared"
)

// apiClient wraps an HTTP client with a base URL plus default headers and query
// parameters applied to every request. Both backend services are thin layers
// over it.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
	header     http.Header
	query      url.Values
}

func newAPIClient(baseURL string, client *http.Client) *apiClient {
	if client == nil {
		client = http.DefaultClient
	}

	return &apiClient{
		baseURL:    baseURL,
		httpClient: client,
		header:     make(http.Header),
		query:      make(url.Values),
	}
}

// requestURL joins the base URL, path and merged query (per-call values win).
func (c *apiClient) requestURL(path string, query url.Values) string {
	merged := make(url.Values, len(c.query)+len(query))
	for k, vs := range c.query {
		merged[k] = vs
	}
	for k, vs := range query {
		merged[k] = vs
	}

	full := c.baseURL + path
	if len(merged) > 0 {
		full += "?" + merged.Encode()
	}
	return full
}

// getJSON performs a GET and decodes the JSON body into result (which may be nil).
//
// Transport failures and non-2xx statuses map onto the shared error taxonomy so
// callers upstream of the resolver can branch with errors.Is.
func (c *apiClient) getJSON(ctx context.Context, path string, query url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(path, query), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrSourceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned status %d", shared.ErrSourceUnreachable, path, resp.StatusCode)
	}

	if result == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
