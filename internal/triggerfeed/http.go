package triggerfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/monopad/pkg/logger"
)

// HTTPClient wraps http.Client with a timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readJSON decodes the body into v when the status matches and closes it.
func readJSON(resp *http.Response, want int, v any) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// registerEntities creates cfg.Entities fresh entities and returns their ids.
func registerEntities(ctx context.Context, cfg *Config, stats *Stats) ([]string, error) {
	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/entities"

	ids := make([]string, 0, cfg.Entities)
	for i := 0; i < cfg.Entities; i++ {
		req := map[string]string{
			"id":   "feed-" + uuid.NewString(),
			"name": fmt.Sprintf("Feed %d", i+1),
		}
		resp, err := client.Post(ctx, url, req)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", req["id"], err)
		}
		if err := readJSON(resp, http.StatusCreated, nil); err != nil {
			return nil, fmt.Errorf("register %s: %w", req["id"], err)
		}
		ids = append(ids, req["id"])
	}

	stats.EntitiesRegistered = len(ids)
	logger.Get().Info(ctx, "registered entities", logger.Int("count", len(ids)))
	return ids, nil
}

// submitTriggers runs one worker per lane.
func submitTriggers(ctx context.Context, cfg *Config, plan Plan, stats *Stats) {
	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/triggers"

	var submitted, accepted, unchanged, duplicate, failed int64
	total := plan.Submissions()

	var wg sync.WaitGroup
	for i, lane := range plan.Lanes {
		wg.Add(1)
		go func(workerID int, lane []Trigger) {
			defer wg.Done()
			for _, t := range lane {
				if ctx.Err() != nil {
					return
				}
				switch submitSingleTrigger(ctx, client, url, t) {
				case statusAccepted:
					atomic.AddInt64(&accepted, 1)
				case statusUnchanged:
					atomic.AddInt64(&unchanged, 1)
				case statusDuplicate:
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
				n := atomic.AddInt64(&submitted, 1)
				if cfg.Verbose && n%100 == 0 {
					logger.Get().Debug(ctx, "progress",
						logger.Int("worker", workerID),
						logger.Int("submitted", int(n)),
						logger.Int("total", total))
				}
			}
		}(i, lane)
	}
	wg.Wait()

	stats.TriggersSubmitted = int(atomic.LoadInt64(&submitted))
	stats.TriggersAccepted = int(atomic.LoadInt64(&accepted))
	stats.TriggersUnchanged = int(atomic.LoadInt64(&unchanged))
	stats.TriggersDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.TriggersFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "trigger submission completed",
		logger.Int("accepted", stats.TriggersAccepted),
		logger.Int("unchanged", stats.TriggersUnchanged),
		logger.Int("duplicate", stats.TriggersDuplicate),
		logger.Int("failed", stats.TriggersFailed))
}

// submitSingleTrigger posts t and classifies the answer.
func submitSingleTrigger(ctx context.Context, client *HTTPClient, url string, t Trigger) string {
	resp, err := client.Post(ctx, url, t)
	if err != nil {
		return statusFailed
	}
	want := http.StatusOK
	if resp.StatusCode == http.StatusAccepted {
		want = http.StatusAccepted
	}
	var ack AckResponse
	if err := readJSON(resp, want, &ack); err != nil {
		return statusFailed
	}
	switch {
	case ack.Duplicate || ack.Status == statusDuplicate:
		return statusDuplicate
	case ack.Status == statusAccepted:
		return statusAccepted
	case ack.Status == statusUnchanged:
		return statusUnchanged
	}
	return statusFailed
}

// fetchEntity returns the stored rating of one entity.
func fetchEntity(ctx context.Context, client *HTTPClient, baseURL, id string) (Entry, error) {
	resp, err := client.Get(ctx, baseURL+"/entities/"+id)
	if err != nil {
		return Entry{}, fmt.Errorf("request failed: %w", err)
	}
	var e struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Rating int    `json:"rating"`
		Rank   int    `json:"rank"`
	}
	if err := readJSON(resp, http.StatusOK, &e); err != nil {
		return Entry{}, err
	}
	return Entry{Rank: e.Rank, EntityID: e.ID, Name: e.Name, Rating: e.Rating}, nil
}

// fetchRoster returns up to limit roster rows.
func fetchRoster(ctx context.Context, client *HTTPClient, baseURL string, limit int) ([]Entry, error) {
	resp, err := client.Get(ctx, fmt.Sprintf("%s/entities?limit=%d", baseURL, limit))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	var roster []Entry
	if err := readJSON(resp, http.StatusOK, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}
