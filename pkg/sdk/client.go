package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ethanbaker/countries/pkg/country"
)

// Client wraps calls to the countries API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		// A refresh waits on two feeds bounded at 30 seconds each
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// APIError is returned for every non-2xx response
type APIError struct {
	StatusCode int
	Message    string
	Detail     any
}

func (e *APIError) Error() string {
	if e.Detail != nil {
		return fmt.Sprintf("api returned %d: %s (%v)", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets callers match missing countries with country.ErrNotFound
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return country.ErrNotFound
	}
	return nil
}

// Refresh triggers a refresh cycle and waits for it to commit
func (c *Client) Refresh(ctx context.Context) (*RefreshResponse, error) {
	var out ApiResponse[RefreshResponse]
	if err := c.doJSON(ctx, http.MethodPost, "/countries/refresh", nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// ListCountries returns the stored countries, filtered and sorted by query
func (c *Client) ListCountries(ctx context.Context, query ListCountriesQuery) ([]Country, error) {
	params := url.Values{}
	if query.Region != "" {
		params.Set("region", query.Region)
	}
	if query.Currency != "" {
		params.Set("currency", query.Currency)
	}
	if query.Sort != "" {
		params.Set("sort", query.Sort)
	}

	path := "/countries"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out ApiResponse[[]Country]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetCountry returns a single country by name, ignoring case
func (c *Client) GetCountry(ctx context.Context, name string) (*Country, error) {
	var out ApiResponse[Country]
	if err := c.doJSON(ctx, http.MethodGet, "/countries/"+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// DeleteCountry removes a country by name, ignoring case
func (c *Client) DeleteCountry(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodDelete, "/countries/"+url.PathEscape(name), nil, nil)
}

// GetStatus returns the aggregate status
func (c *Client) GetStatus(ctx context.Context) (*StatusResponse, error) {
	var out ApiResponse[StatusResponse]
	if err := c.doJSON(ctx, http.MethodGet, "/status", nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// GetSummaryImage downloads the rendered summary PNG
func (c *Client) GetSummaryImage(ctx context.Context) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/countries/image", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// doJSON is a helper to perform JSON requests to the backend
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	// Create request body if input is provided
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(b)
	}

	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// If no output expected, return early
	if out == nil {
		return nil
	}

	// Decode the response body into the output struct
	return json.NewDecoder(resp.Body).Decode(out)
}

// do performs the request and turns non-2xx responses into an APIError
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}

	return resp, nil
}

func decodeError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var envelope ApiResponse[any]
	if err := json.Unmarshal(b, &envelope); err == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
		apiErr.Detail = envelope.Error
	} else if len(b) > 0 {
		apiErr.Message = string(b)
	}

	return apiErr
}

// IsUnavailable reports whether err is a 503 from the refresh endpoint
func IsUnavailable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable
}
