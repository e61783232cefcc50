package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a client for the weather collaborator service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new weather client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Report is the weather data returned for a location, in °C.
type Report struct {
	Location  string `json:"location"`
	Temp      int    `json:"temp"`
	Condition string `json:"condition"`
	Forecast  string `json:"forecast,omitempty"`
}

// Fetch returns the current weather for a location.
func (c *Client) Fetch(ctx context.Context, location string) (*Report, error) {
	u := fmt.Sprintf("%s/weather?location=%s", c.baseURL, url.QueryEscape(location))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if report.Location == "" {
		report.Location = location
	}

	return &report, nil
}
