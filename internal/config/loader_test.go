package config_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/herolab/herorank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func clearConfigEnvVars() {
	vars := []string{
		"HERORANK_CONFIG",
		"HERORANK_ADDR",
		"HERORANK_LOG_LEVEL",
		"HERORANK_LOG_FORMAT",
		"HERORANK_QUEUE_SIZE",
		"HERORANK_WORKER_COUNT",
		"HERORANK_DEDUPE_SIZE",
		"HERORANK_MAX_RANKINGS_LIMIT",
		"HERORANK_K_FACTOR",
		"HERORANK_PROVISIONAL_K_FACTOR",
		"HERORANK_PROVISIONAL_THRESHOLD",
		"HERORANK_PROVISIONAL_FLAG_THRESHOLD",
		"HERORANK_INITIAL_RATING",
		"HERORANK_CONFIDENCE_LEVEL",
		"HERORANK_HIGH_CONFIDENCE_GAMES",
		"HERORANK_MEDIUM_CONFIDENCE_GAMES",
	}
	for _, v := range vars {
		_ = os.Unsetenv(v)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.VoteQueueSize, convey.ShouldEqual, 100_000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 500_000)
				convey.So(cfg.MaxRankingsLimit, convey.ShouldEqual, 100)
				convey.So(cfg.KFactor, convey.ShouldEqual, 32)
				convey.So(cfg.ProvisionalKFactor, convey.ShouldEqual, 48)
				convey.So(cfg.ProvisionalThreshold, convey.ShouldEqual, 10)
				convey.So(cfg.ProvisionalFlagThreshold, convey.ShouldEqual, 20)
				convey.So(cfg.InitialRating, convey.ShouldEqual, 1500)
				convey.So(cfg.ConfidenceLevel, convey.ShouldEqual, 0.95)
				convey.So(cfg.HighConfidenceGames, convey.ShouldEqual, 30)
				convey.So(cfg.MediumConfidenceGames, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			clearConfigEnvVars()
			_ = os.Setenv("HERORANK_ADDR", ":8080")
			_ = os.Setenv("HERORANK_QUEUE_SIZE", "50000")
			_ = os.Setenv("HERORANK_WORKER_COUNT", "16")
			_ = os.Setenv("HERORANK_K_FACTOR", "24")
			_ = os.Setenv("HERORANK_PROVISIONAL_THRESHOLD", "15")
			_ = os.Setenv("HERORANK_CONFIDENCE_LEVEL", "0.90")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.VoteQueueSize, convey.ShouldEqual, 50000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.KFactor, convey.ShouldEqual, 24)
				convey.So(cfg.ProvisionalThreshold, convey.ShouldEqual, 15)
				convey.So(cfg.ConfidenceLevel, convey.ShouldEqual, 0.90)
				// Untouched keys keep their defaults.
				convey.So(cfg.ProvisionalKFactor, convey.ShouldEqual, 48)
				convey.So(cfg.InitialRating, convey.ShouldEqual, 1500)
			})
		})

		convey.Convey("When loading config from a YAML file", func() {
			clearConfigEnvVars()

			dir := t.TempDir()
			path := filepath.Join(dir, "herorank.yaml")
			yaml := []byte(`addr: ":7070"
queue_size: 25000
k_factor: 20
initial_rating: 1200
high_confidence_games: 60
medium_confidence_games: 25
`)
			convey.So(os.WriteFile(path, yaml, 0o600), convey.ShouldBeNil)
			_ = os.Setenv("HERORANK_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.VoteQueueSize, convey.ShouldEqual, 25000)
				convey.So(cfg.KFactor, convey.ShouldEqual, 20)
				convey.So(cfg.InitialRating, convey.ShouldEqual, 1200)
				convey.So(cfg.HighConfidenceGames, convey.ShouldEqual, 60)
				convey.So(cfg.MediumConfidenceGames, convey.ShouldEqual, 25)
			})

			convey.Convey("And env vars should override the file", func() {
				_ = os.Setenv("HERORANK_ADDR", ":6060")

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
				convey.So(cfg.KFactor, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			clearConfigEnvVars()
			_ = os.Setenv("HERORANK_CONFIG", "/nonexistent/herorank.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading should fail with a load error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrLoadConfig)
			})
		})

		convey.Convey("When a value fails validation", func() {
			clearConfigEnvVars()
			defer clearConfigEnvVars()

			cases := map[string]string{
				"HERORANK_K_FACTOR":              "0",
				"HERORANK_PROVISIONAL_K_FACTOR":  "-1",
				"HERORANK_INITIAL_RATING":        "0",
				"HERORANK_CONFIDENCE_LEVEL":      "1.5",
				"HERORANK_HIGH_CONFIDENCE_GAMES": "5",
			}
			for key, value := range cases {
				clearConfigEnvVars()
				_ = os.Setenv(key, value)

				_, err := config.Load(ctx)
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
			}
		})
	})
}
