package mastery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const predictTimeout = 5 * time.Second

// PredictRequest is the wire shape of the mastery-prediction endpoint.
type PredictRequest struct {
	UserID       string             `json:"userId"`
	Attempts     []Attempt          `json:"attempts"`
	PriorMastery map[string]float64 `json:"priorMastery"`
}

type Attempt struct {
	Concept   string    `json:"concept"`
	Correct   bool      `json:"correct"`
	Timestamp time.Time `json:"timestamp"`
}

type PredictResponse struct {
	Mastery map[string]float64 `json:"mastery"`
}

// Client calls the external mastery-prediction service. An optional Redis
// client caches responses per user so membership churn does not hammer the
// service; a nil Redis client disables caching.
type Client struct {
	baseURL  string
	http     *http.Client
	rdb      *redis.Client
	cacheTTL time.Duration
}

func NewClient(baseURL string, rdb *redis.Client) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: predictTimeout},
		rdb:      rdb,
		cacheTTL: time.Minute,
	}
}

// Predict fetches the per-concept mastery map for one user.
func (c *Client) Predict(ctx context.Context, userID string, prior map[string]float64) (map[string]float64, error) {
	if cached, ok := c.cacheGet(ctx, userID); ok {
		return cached, nil
	}

	body, err := json.Marshal(PredictRequest{
		UserID:       userID,
		Attempts:     []Attempt{},
		PriorMastery: prior,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, predictTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call mastery service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mastery service returned status %d", resp.StatusCode)
	}

	var out PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode mastery response: %w", err)
	}
	if out.Mastery == nil {
		out.Mastery = map[string]float64{}
	}

	c.cacheSet(ctx, userID, out.Mastery)
	return out.Mastery, nil
}

func (c *Client) cacheGet(ctx context.Context, userID string) (map[string]float64, bool) {
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, "mastery:"+userID).Result()
	if err != nil {
		return nil, false
	}
	var m map[string]float64
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, false
	}
	return m, true
}

func (c *Client) cacheSet(ctx context.Context, userID string, m map[string]float64) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, "mastery:"+userID, data, c.cacheTTL)
}
