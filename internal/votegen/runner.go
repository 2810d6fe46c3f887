package votegen

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/herolab/herorank/pkg/logger"
)

// Stats accumulates the outcome of a generation run.
type Stats struct {
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
	VotesGenerated    int
	VotesAccepted     int
	VotesDuplicate    int
	VotesRejected     int
	VotesFailed       int
	RankingsRetrieved int
}

// Run executes the full generate-submit-verify cycle against a running
// service.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting vote generation run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("votes", config.NumVotes),
		logger.Int("heroes", config.Heroes),
		logger.Int("workers", config.Workers),
		logger.Int("topN", config.TopN),
		logger.String("timeout", config.Timeout.String()))

	client := newHTTPClient(config.Timeout)

	if err := checkServiceHealth(ctx, config, client); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	votes, r, err := generateVotes(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("vote generation failed: %w", err)
	}

	if err := submitVotes(ctx, config, client, votes, stats); err != nil {
		return fmt.Errorf("vote submission failed: %w", err)
	}

	rankings, err := fetchRankings(ctx, config, client, stats)
	if err != nil {
		return fmt.Errorf("ranking retrieval failed: %w", err)
	}

	report, err := fetchConsistency(ctx, config, client)
	if err != nil {
		return fmt.Errorf("consistency retrieval failed: %w", err)
	}

	if err := verifyResults(ctx, config, r, rankings, report, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is up before generating load.
func checkServiceHealth(ctx context.Context, config *Config, client *httpClient) error {
	resp, err := client.get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var votesPerSecond float64
	if stats.Duration > 0 {
		votesPerSecond = float64(stats.VotesGenerated) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("votesGenerated", stats.VotesGenerated),
		logger.Int("votesAccepted", stats.VotesAccepted),
		logger.Int("votesDuplicate", stats.VotesDuplicate),
		logger.Int("votesRejected", stats.VotesRejected),
		logger.Int("votesFailed", stats.VotesFailed),
		logger.Int("rankingsRetrieved", stats.RankingsRetrieved),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("votesPerSecond", votesPerSecond))
}
