// Command vote-gen generates synthetic hero votes against a running herorank
// service and verifies the resulting rankings.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/herolab/herorank/internal/votegen"
	"github.com/herolab/herorank/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numVotes = flag.Int("votes", votegen.DefaultNumVotes, "Number of votes to generate and submit")
		heroes   = flag.Int("heroes", votegen.DefaultHeroes, "Number of heroes in the simulated roster")
		topN     = flag.Int("top", votegen.DefaultTopN, "Number of top entries to fetch from rankings")
		workers  = flag.Int("workers", votegen.DefaultWorkers, "Number of concurrent submission workers")
		timeout  = flag.Duration("timeout", votegen.DefaultTimeout, "HTTP request timeout")
		seed     = flag.Int64("seed", votegen.DefaultSeed, "Random seed for roster strengths and matchups")
		verbose  = flag.Bool("verbose", false, "Log the top leaderboard entries after verification")
	)
	flag.Parse()

	if err := logger.Init("text"); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := votegen.NewConfig()
	config.BaseURL = *baseURL
	config.NumVotes = *numVotes
	config.Heroes = *heroes
	config.TopN = *topN
	config.Workers = *workers
	config.Timeout = *timeout
	config.Seed = *seed
	config.Verbose = *verbose

	if err := votegen.Run(ctx, config); err != nil {
		logger.Get().Fatal(ctx, "vote generation run failed", logger.Error(err))
	}
}
