package votegen

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

	"github.com/herolab/herorank/internal/domain/types"
	"github.com/herolab/herorank/pkg/logger"
)

// httpClient wraps http.Client with a shared timeout.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

func (c *httpClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

func (c *httpClient) postJSON(ctx context.Context, url string, body interface{}) (*http.Response, error) {
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

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitVotes posts the generated votes with a worker pool and tallies the
// per-status outcomes.
func submitVotes(ctx context.Context, config *Config, client *httpClient, votes []voteSubmission, stats *Stats) error {
	logger.Get().Info(ctx, "submitting votes",
		logger.Int("votes", len(votes)),
		logger.Int("workers", config.Workers))

	url := config.BaseURL + "/votes"

	var (
		accepted  int64
		duplicate int64
		rejected  int64
		failed    int64
	)

	voteChan := make(chan voteSubmission, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range voteChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				switch submitSingleVote(ctx, client, url, v) {
				case http.StatusOK:
					atomic.AddInt64(&accepted, 1)
				case http.StatusConflict:
					atomic.AddInt64(&duplicate, 1)
				case http.StatusBadRequest:
					atomic.AddInt64(&rejected, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(voteChan)
		for _, v := range votes {
			select {
			case <-ctx.Done():
				return
			case voteChan <- v:
			}
		}
	}()

	wg.Wait()

	stats.VotesAccepted = int(atomic.LoadInt64(&accepted))
	stats.VotesDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.VotesRejected = int(atomic.LoadInt64(&rejected))
	stats.VotesFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "vote submission completed",
		logger.Int("accepted", stats.VotesAccepted),
		logger.Int("duplicate", stats.VotesDuplicate),
		logger.Int("rejected", stats.VotesRejected),
		logger.Int("failed", stats.VotesFailed))

	if stats.VotesFailed > 0 {
		return fmt.Errorf("%d votes failed to submit", stats.VotesFailed)
	}
	return nil
}

// submitSingleVote posts one vote and returns the HTTP status, or 0 on a
// transport error.
func submitSingleVote(ctx context.Context, client *httpClient, url string, v voteSubmission) int {
	resp, err := client.postJSON(ctx, url, v)
	if err != nil {
		return 0
	}
	if _, err := readBody(resp); err != nil {
		return 0
	}
	return resp.StatusCode
}

// fetchRankings retrieves the top-N leaderboard.
func fetchRankings(ctx context.Context, config *Config, client *httpClient, stats *Stats) ([]types.Entry, error) {
	url := fmt.Sprintf("%s/rankings?limit=%d", config.BaseURL, config.TopN)

	resp, err := client.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rankings: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read rankings response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rankings request returned status %d", resp.StatusCode)
	}

	var entries []types.Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode rankings: %w", err)
	}

	stats.RankingsRetrieved = len(entries)
	return entries, nil
}

// consistencyReport mirrors the /admin/consistency payload.
type consistencyReport struct {
	Consistent  bool    `json:"consistent"`
	BrokenIDs   []int64 `json:"broken_ids"`
	TotalWins   int     `json:"total_wins"`
	LoggedVotes int     `json:"logged_votes"`
}

// fetchConsistency asks the service to audit its own store.
func fetchConsistency(ctx context.Context, config *Config, client *httpClient) (*consistencyReport, error) {
	resp, err := client.get(ctx, config.BaseURL+"/admin/consistency")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch consistency report: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read consistency response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("consistency request returned status %d", resp.StatusCode)
	}

	var report consistencyReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("failed to decode consistency report: %w", err)
	}
	return &report, nil
}
