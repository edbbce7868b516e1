// Command collector runs the shelter data collection pipeline: it walks the
// location set for one animal type and status, persisting records and
// resumable progress, then merges the per-location files into a combined,
// deduplicated dataset.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shelterdata/petfinder-collector/pkg/auth"
	"github.com/shelterdata/petfinder-collector/pkg/client"
	"github.com/shelterdata/petfinder-collector/pkg/collector"
	"github.com/shelterdata/petfinder-collector/pkg/config"
	"github.com/shelterdata/petfinder-collector/pkg/logging"
	"github.com/shelterdata/petfinder-collector/pkg/progress"
	"github.com/shelterdata/petfinder-collector/pkg/ratelimit"
	"github.com/shelterdata/petfinder-collector/pkg/storage"
)

func main() {
	var (
		animalType  = flag.String("type", "cat", "animal type to collect (cat, dog, ...)")
		status      = flag.String("status", "adopted", "adoption status to collect (adoptable, adopted)")
		after       = flag.String("after", "", "only animals published after this ISO-8601 timestamp")
		resume      = flag.Bool("resume", true, "resume from saved progress")
		configPath  = flag.String("config", "", "path to YAML config file")
		combineOnly = flag.Bool("combine-only", false, "only merge existing per-location files, no collection")
		statusOnly  = flag.Bool("status-only", false, "only print the collection status summary")
		pretty      = flag.Bool("pretty", false, "human-readable log output")
	)
	flag.Parse()

	if err := run(*animalType, *status, *after, *configPath, *resume, *combineOnly, *statusOnly, *pretty); err != nil {
		fmt.Fprintf(os.Stderr, "collector: %v\n", err)
		os.Exit(1)
	}
}

func run(animalType, status, after, configPath string, resume, combineOnly, statusOnly, pretty bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: pretty,
	})
	logger := logging.NewLogger("main")

	params := collector.Params{
		AnimalType: animalType,
		Status:     status,
		AfterDate:  after,
	}

	progStore := progress.NewStore(cfg.DataDir)
	dataStore := storage.NewStore(cfg.DataDir)

	coll, err := buildCollector(cfg, progStore, dataStore, combineOnly || statusOnly)
	if err != nil {
		return err
	}

	if statusOnly {
		return coll.StatusSummary(params)
	}
	if combineOnly {
		path, err := coll.Combine(params)
		if err != nil {
			return fmt.Errorf("combine: %w", err)
		}
		if path != "" {
			logger.Info().Str("path", path).Msg("Combined dataset written")
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := coll.StatusSummary(params); err != nil {
		return err
	}
	if err := coll.Run(ctx, params, resume); err != nil {
		return err
	}

	path, err := coll.Combine(params)
	if err != nil {
		return fmt.Errorf("combine: %w", err)
	}
	if path != "" {
		logger.Info().Str("path", path).Msg("Combined dataset written")
	}
	return nil
}

// buildCollector wires the auth manager, request executor, and stores. The
// offline modes (status, combine) skip credential loading so they work
// without API keys.
func buildCollector(cfg config.Config, progStore *progress.Store, dataStore *storage.Store, offline bool) (*collector.Collector, error) {
	collCfg := collector.Config{
		Progress:  progStore,
		Storage:   dataStore,
		PageLimit: cfg.PageLimit,
		Sort:      cfg.Sort,
	}

	creds := config.Credentials{ClientID: "offline", ClientSecret: "offline"}
	if !offline {
		loaded, err := config.LoadCredentials()
		if err != nil {
			return nil, err
		}
		creds = loaded
	}

	mgr, err := auth.NewManager(auth.Config{
		BaseURL:      cfg.BaseURL,
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("auth manager: %w", err)
	}

	exec, err := client.New(client.Config{
		Auth:    mgr,
		BaseURL: cfg.BaseURL,
		Limiter: ratelimit.NewFixedDelay(cfg.RequestDelay),
		Retry: client.RetryPolicy{
			MaxAttempts:   cfg.Retry.MaxAttempts,
			RateLimitStep: cfg.Retry.RateLimitStep,
			TransientStep: cfg.Retry.TransientStep,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request executor: %w", err)
	}
	collCfg.Executor = exec

	return collector.New(collCfg)
}
