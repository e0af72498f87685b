package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"fleet-service/internal/config"
	"fleet-service/internal/utils"
)

type VehicleInfo struct {
	VIN      string `json:"vin"`
	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	FuelType string `json:"fuel_type,omitempty"`
}

type decodeResponse struct {
	Data VehicleInfo `json:"data"`
}

type VINClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewVINClient(cfg *config.Config) *VINClient {
	return &VINClient{
		baseURL: cfg.ExternalServices.VINDecoderURL,
		apiKey:  cfg.ExternalServices.VINDecoderToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Decode looks a VIN up in the external decoder service.
func (c *VINClient) Decode(ctx context.Context, vin string) (*VehicleInfo, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("vin decoder URL is not configured")
	}

	normalized := utils.NormalizeVIN(vin)
	if len(normalized) != 17 {
		return nil, fmt.Errorf("invalid vin %q", vin)
	}

	u, err := url.Parse(c.baseURL + "/v1/vehicles/decode")
	if err != nil {
		return nil, fmt.Errorf("invalid vin decoder URL: %w", err)
	}
	q := u.Query()
	q.Set("vin", normalized)
	u.RawQuery = q.Encode()

	newRequest := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}
		return req, nil
	}

	req, err := newRequest()
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var resp *http.Response
	var lastErr error
	maxRetries := 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil {
			break
		}
		if attempt == maxRetries-1 {
			return nil, fmt.Errorf("failed to execute request after %d attempts: %w", maxRetries, lastErr)
		}
		time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
		req, err = newRequest()
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vin decoder returned status %d: %s", resp.StatusCode, string(body))
	}

	var response decodeResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &response.Data, nil
}
