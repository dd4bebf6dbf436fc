// Package images resolves a representative photo for a destination via the
// Pexels search API, with a deterministic CSS-gradient fallback when no key
// is configured or the search comes up empty.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultSearchURL is the Pexels photo search endpoint.
const DefaultSearchURL = "https://api.pexels.com/v1/search"

// ErrNoImage is returned when the search yields no usable photo.
var ErrNoImage = fmt.Errorf("no image found")

// PexelsClient fetches landscape photos for locations.
type PexelsClient struct {
	apiKey    string
	searchURL string
	client    *http.Client
	logger    *zap.Logger
}

// NewPexelsClient creates the image client. An empty apiKey yields an
// unconfigured client; callers should fall back to Gradient.
func NewPexelsClient(apiKey, searchURL string, timeout time.Duration, logger *zap.Logger) *PexelsClient {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PexelsClient{
		apiKey:    apiKey,
		searchURL: searchURL,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// Configured reports whether a credential is present.
func (c *PexelsClient) Configured() bool {
	return c.apiKey != ""
}

type pexelsResponse struct {
	Photos []struct {
		Src struct {
			Large2x string `json:"large2x"`
			Large   string `json:"large"`
		} `json:"src"`
	} `json:"photos"`
}

// LocationImageURL searches for a landscape photo of the location's city.
// One of the results is picked at random for variety between refreshes.
func (c *PexelsClient) LocationImageURL(ctx context.Context, location string) (string, error) {
	city := cleanCity(location)
	// Skyline/landscape terms keep results to scenery, not people.
	query := city + " city skyline landscape architecture"

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "15")
	params.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image search: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	var result pexelsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(result.Photos) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoImage, city)
	}

	photo := result.Photos[rand.Intn(len(result.Photos))]
	if photo.Src.Large2x != "" {
		return photo.Src.Large2x, nil
	}
	return photo.Src.Large, nil
}

// Gradient returns a deterministic CSS gradient derived from the location
// name, used as the no-network / no-key fallback background.
func Gradient(location string) string {
	city := cleanCity(location)
	c1 := stringToColor(city)
	c2 := stringToColor(city + "alt")
	return fmt.Sprintf("linear-gradient(135deg, %s 0%%, %s 100%%)", c1, c2)
}

func stringToColor(s string) string {
	var hash int32
	for _, r := range s {
		hash = r + ((hash << 5) - hash)
	}
	hue := hash % 360
	if hue < 0 {
		hue = -hue
	}
	return fmt.Sprintf("hsl(%d, 70%%, 50%%)", hue)
}

// cleanCity strips any region/country suffix ("Paris, France" -> "Paris").
func cleanCity(location string) string {
	city, _, _ := strings.Cut(location, ",")
	return strings.TrimSpace(city)
}
