package sportradar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the Sportradar WNBA trial API root.
	DefaultBaseURL = "http://api.sportradar.us/wnba/trial/v8/en"

	httpTimeout = 30 * time.Second
)

// Client handles Sportradar API requests. Every attempt is paced by the
// configured Pacer and counted, whatever its outcome. Upstream failures
// are logged and surface as a nil payload, never as an error: a bad
// fetch costs one call and one skipped artifact, not the run.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	pacer   Pacer
	calls   int
}

// New creates a client with the default request interval.
func New(baseURL, apiKey string) *Client {
	return NewWithPacer(baseURL, apiKey, NewIntervalPacer(DefaultRequestInterval))
}

// NewWithInterval creates a client pacing calls the given interval apart.
func NewWithInterval(baseURL, apiKey string, interval time.Duration) *Client {
	return NewWithPacer(baseURL, apiKey, NewIntervalPacer(interval))
}

// NewWithPacer creates a client with a caller-supplied pacer.
func NewWithPacer(baseURL, apiKey string, pacer Pacer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: httpTimeout},
		pacer:   pacer,
	}
}

// Calls returns the number of API calls attempted so far.
func (c *Client) Calls() int {
	return c.calls
}

// FetchSchedule fetches the regular season schedule for a year.
func (c *Client) FetchSchedule(ctx context.Context, year int) map[string]interface{} {
	return c.fetch(ctx, fmt.Sprintf("games/%d/REG/schedule.json", year))
}

// FetchGameSummary fetches the box score summary for one game.
func (c *Client) FetchGameSummary(ctx context.Context, gameID string) map[string]interface{} {
	return c.fetch(ctx, fmt.Sprintf("games/%s/summary.json", gameID))
}

// FetchPlayerProfile fetches one player profile.
func (c *Client) FetchPlayerProfile(ctx context.Context, playerID string) map[string]interface{} {
	return c.fetch(ctx, fmt.Sprintf("players/%s/profile.json", playerID))
}

// fetch GETs one endpoint and decodes the JSON body. A nil return means
// the endpoint yielded nothing usable this run.
func (c *Client) fetch(ctx context.Context, endpoint string) map[string]interface{} {
	if err := c.pacer.Wait(ctx); err != nil {
		log.Printf("[sportradar] Error fetching %s: %v", endpoint, err)
		return nil
	}
	c.calls++

	url := fmt.Sprintf("%s/%s?api_key=%s", c.baseURL, endpoint, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("[sportradar] Error fetching %s: %v", endpoint, err)
		return nil
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		log.Printf("[sportradar] Error fetching %s: %v", endpoint, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[sportradar] Error %d for %s", resp.StatusCode, endpoint)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[sportradar] Error fetching %s: %v", endpoint, err)
		return nil
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[sportradar] Error fetching %s: %v", endpoint, err)
		return nil
	}

	return payload
}
