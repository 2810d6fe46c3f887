// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers file and env on top.
// - External errors are wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// VoteQueueSize bounds the in-memory bulk ingestion queue.
	VoteQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of vote workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the vote-ID deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxRankingsLimit caps GET /rankings?limit.
	MaxRankingsLimit int `koanf:"max_rankings_limit"`

	// Elo parameters.
	KFactor                  float64 `koanf:"k_factor"`
	ProvisionalKFactor       float64 `koanf:"provisional_k_factor"`
	ProvisionalThreshold     int     `koanf:"provisional_threshold"`
	ProvisionalFlagThreshold int     `koanf:"provisional_flag_threshold"`
	InitialRating            int     `koanf:"initial_rating"`

	// Wilson confidence parameters.
	ConfidenceLevel       float64 `koanf:"confidence_level"`
	HighConfidenceGames   int     `koanf:"high_confidence_games"`
	MediumConfidenceGames int     `koanf:"medium_confidence_games"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		LogFormat:                "text",
		Addr:                     ":9080",
		VoteQueueSize:            100_000,
		WorkerCount:              runtime.NumCPU() * 4,
		DedupeSize:               500_000,
		MaxRankingsLimit:         100,
		KFactor:                  32,
		ProvisionalKFactor:       48,
		ProvisionalThreshold:     10,
		ProvisionalFlagThreshold: 20,
		InitialRating:            1500,
		ConfidenceLevel:          0.95,
		HighConfidenceGames:      30,
		MediumConfidenceGames:    10,
	}
}
