package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client talks to a Nominatim-compatible geocoding endpoint. Reverse lookups
// back the area-text fallback of the attendance validator; forward lookups
// are used when admins enter assignments by area name.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userAgent:  "staffhub-backend/1.0",
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	request.Header.Set("User-Agent", c.userAgent)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("geocode request failed: %s", response.Status)
	}
	return json.NewDecoder(response.Body).Decode(out)
}

// ReverseGeocode resolves coordinates to a display address.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	var parsed reverseResponse
	if err := c.get(ctx, "/reverse", query, &parsed); err != nil {
		return "", err
	}
	if parsed.DisplayName == "" {
		return "", fmt.Errorf("no address for %.5f,%.5f", lat, lng)
	}
	return parsed.DisplayName, nil
}

// Geocode resolves a free-text query to coordinates, taking the first match.
func (c *Client) Geocode(ctx context.Context, queryText string) (float64, float64, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("limit", "1")
	query.Set("q", queryText)

	var results []searchResult
	if err := c.get(ctx, "/search", query, &results); err != nil {
		return 0, 0, err
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("no results for %q", queryText)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, err
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}
