// Package votegen generates synthetic hero votes and verifies the ranking
// the service derives from them.
package votegen

import "time"

// Default generation parameters.
const (
	DefaultNumVotes = 10000
	DefaultHeroes   = 100
	DefaultWorkers  = 8
	DefaultTopN     = 50
	DefaultTimeout  = 30 * time.Second
	DefaultSeed     = 42
)

// Config controls a vote generation run.
type Config struct {
	BaseURL  string
	NumVotes int
	Heroes   int
	Workers  int
	TopN     int
	Timeout  time.Duration
	Seed     int64
	Verbose  bool
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		BaseURL:  "http://localhost:9080",
		NumVotes: DefaultNumVotes,
		Heroes:   DefaultHeroes,
		Workers:  DefaultWorkers,
		TopN:     DefaultTopN,
		Timeout:  DefaultTimeout,
		Seed:     DefaultSeed,
	}
}
