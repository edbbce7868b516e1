// Package collector drives the per-location pagination loop and the
// orchestration across the full location set, with resumable progress.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/shelterdata/petfinder-collector/pkg/client"
	"github.com/shelterdata/petfinder-collector/pkg/locations"
	"github.com/shelterdata/petfinder-collector/pkg/logging"
	"github.com/shelterdata/petfinder-collector/pkg/petfinder"
	"github.com/shelterdata/petfinder-collector/pkg/progress"
	"github.com/shelterdata/petfinder-collector/pkg/storage"
)

// Prometheus metrics for collection outcomes.
var (
	recordsCollectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petfinder_records_collected_total",
		Help: "Total records collected by location",
	}, []string{"location"})

	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "petfinder_pages_fetched_total",
		Help: "Total result pages fetched",
	})

	locationOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petfinder_location_outcomes_total",
		Help: "Location-level collection outcomes (completed, partial, failed)",
	}, []string{"outcome"})
)

// Params identifies one collection target: which animals to collect and an
// optional publish-date floor. Passed explicitly per invocation; there is
// no process-wide collection state.
type Params struct {
	// AnimalType, e.g. "cat" or "dog".
	AnimalType string

	// Status, e.g. "adoptable" or "adopted".
	Status string

	// AfterDate is an optional ISO-8601 floor on publish date.
	AfterDate string
}

// Result reports the outcome of collecting one location.
type Result struct {
	// Completed is true when the last page was reached naturally.
	Completed bool

	// LastPage is the final page processed; on a non-completed result it
	// is the page the next session resumes from.
	LastPage int

	// SessionCount is the number of records collected this session.
	SessionCount int

	// TotalCount includes records already persisted in earlier sessions.
	TotalCount int

	// Err describes why collection stopped early. In practice this is
	// the rate-limit-exhaustion path: the executor has already consumed
	// its own retries before reporting here.
	Err error
}

// Config holds the collector configuration.
type Config struct {
	// Executor issues the authenticated API requests (required).
	Executor *client.Executor

	// Progress persists per-location state (required).
	Progress *progress.Store

	// Storage persists collected records (required).
	Storage *storage.Store

	// Locations overrides the full location set. Defaults to the ZIP
	// stand-ins plus all state codes.
	Locations []string

	// PageLimit is the page size requested from the API. Defaults to 100.
	PageLimit int

	// Sort order requested from the API. Defaults to "recent".
	Sort string
}

// Collector iterates the location set, paginating each location and
// persisting records and progress as it goes.
type Collector struct {
	executor  *client.Executor
	progress  *progress.Store
	storage   *storage.Store
	locations []string
	pageLimit int
	sort      string
	logger    zerolog.Logger

	// now is stubbed in tests for deterministic record timestamps.
	now func() time.Time
}

// New creates a collector.
func New(cfg Config) (*Collector, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.Progress == nil {
		return nil, fmt.Errorf("progress store is required")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}

	locs := cfg.Locations
	if len(locs) == 0 {
		locs = locations.All()
	}

	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = 100
	}

	sort := cfg.Sort
	if sort == "" {
		sort = "recent"
	}

	return &Collector{
		executor:  cfg.Executor,
		progress:  cfg.Progress,
		storage:   cfg.Storage,
		locations: locs,
		pageLimit: pageLimit,
		sort:      sort,
		logger:    logging.NewLogger("collector"),
		now:       time.Now,
	}, nil
}

// query builds the search parameters for one page.
func (c *Collector) query(p Params, location string, page int) url.Values {
	params := url.Values{
		"type":     {p.AnimalType},
		"status":   {p.Status},
		"location": {location},
		"limit":    {strconv.Itoa(c.pageLimit)},
		"page":     {strconv.Itoa(page)},
		"sort":     {c.sort},
	}
	if p.AfterDate != "" {
		params.Set("after", p.AfterDate)
	}
	return params
}

// fetchPage requests and decodes one result page.
func (c *Collector) fetchPage(ctx context.Context, p Params, location string, page int) (*petfinder.SearchResponse, error) {
	resp, err := c.executor.Get(ctx, "/animals", c.query(p, location, page))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body petfinder.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode page %d for %s: %w", page, location, err)
	}

	pagesFetchedTotal.Inc()
	return &body, nil
}

// CollectLocation paginates one location starting at startPage, buffering
// flattened records in memory and persisting them when the loop ends.
//
// A request or decode failure mid-loop flushes whatever was buffered this
// session and reports a non-completed Result carrying the failing page; the
// returned error is non-nil only when the session's records could not be
// persisted at all.
func (c *Collector) CollectLocation(ctx context.Context, p Params, location string, startPage int) (Result, error) {
	after := p.AfterDate
	if after == "" {
		after = "all time"
	}
	c.logger.Info().
		Str("location", location).
		Int("start_page", startPage).
		Msgf("Collecting %s %ss (published after %s)", p.Status, p.AnimalType, after)

	// Prior record count is read back solely for accurate running totals,
	// not for dedup; duplicate suppression happens in the combine stage.
	existing := 0
	if startPage > 1 {
		count, err := c.storage.Count(p.AnimalType, p.Status, location)
		if err != nil {
			c.logger.Warn().Err(err).Str("location", location).Msg("Could not read existing data")
		} else {
			existing = count
			c.logger.Info().
				Str("location", location).
				Int("existing", existing).
				Msg("Resuming with existing records")
		}
	}

	var buffer []petfinder.Record
	page := startPage

	for {
		body, err := c.fetchPage(ctx, p, location, page)
		if err != nil {
			c.logger.Warn().Err(err).
				Str("location", location).
				Int("page", page).
				Msg("Request failed, saving records collected before failure")

			if flushErr := c.storage.Append(p.AnimalType, p.Status, location, buffer); flushErr != nil {
				return Result{}, fmt.Errorf("persist %d records for %s: %w", len(buffer), location, flushErr)
			}

			return Result{
				Completed:    false,
				LastPage:     page,
				SessionCount: len(buffer),
				TotalCount:   existing + len(buffer),
				Err:          err,
			}, nil
		}

		if len(body.Animals) == 0 {
			c.logger.Info().
				Str("location", location).
				Int("page", page).
				Msg("No more animals found")
			break
		}

		now := c.now()
		for _, animal := range body.Animals {
			buffer = append(buffer, petfinder.Flatten(animal, location, now))
		}
		recordsCollectedTotal.WithLabelValues(location).Add(float64(len(body.Animals)))

		c.logger.Info().
			Str("location", location).
			Int("page", page).
			Int("total_pages", body.Pagination.TotalPages).
			Int("page_records", len(body.Animals)).
			Int("total", existing+len(buffer)).
			Msg("Page collected")

		if page >= body.Pagination.TotalPages {
			break
		}
		page++
	}

	if err := c.storage.Append(p.AnimalType, p.Status, location, buffer); err != nil {
		return Result{}, fmt.Errorf("persist %d records for %s: %w", len(buffer), location, err)
	}
	if len(buffer) == 0 {
		c.logger.Info().Str("location", location).Msg("No animals collected")
	}

	return Result{
		Completed:    true,
		LastPage:     page,
		SessionCount: len(buffer),
		TotalCount:   existing + len(buffer),
	}, nil
}

// Run collects every pending location in enumeration order, consulting the
// progress record to skip completed locations and resume partial ones.
//
// A non-completed result means the remote daily budget is exhausted and
// every further call would fail identically, so the run stops immediately
// with the resume point persisted. An error escaping the paginator is
// presumed location-specific; the location is marked failed and the run
// moves on.
func (c *Collector) Run(ctx context.Context, p Params, resume bool) error {
	after := p.AfterDate
	if after == "" {
		after = "all time"
	}
	c.logger.Info().
		Bool("resume", resume).
		Msgf("Starting collection: %s %ss across all locations (published after %s)", p.Status, p.AnimalType, after)

	var rec *progress.Record
	if resume {
		loaded, err := c.progress.Load(p.AnimalType, p.Status)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		rec = loaded
	} else {
		rec = progress.NewRecord()
	}

	var pending []string
	for _, loc := range c.locations {
		if !rec.IsCompleted(loc) {
			pending = append(pending, loc)
		}
	}

	if len(pending) == 0 {
		c.logger.Info().Msg("All locations already completed")
		return nil
	}

	c.logger.Info().
		Int("pending", len(pending)).
		Int("completed", len(rec.CompletedStates)).
		Int("partial", len(rec.PartialStates)).
		Msg("Processing pending locations")

	for _, loc := range pending {
		startPage := rec.ResumePage(loc)
		if startPage > 1 {
			c.logger.Info().
				Str("location", loc).
				Int("page", startPage).
				Msg("Resuming from recorded page")
		}

		result, err := c.CollectLocation(ctx, p, loc, startPage)
		if err != nil {
			c.logger.Error().Err(err).Str("location", loc).Msg("Failed to collect location")
			locationOutcomesTotal.WithLabelValues("failed").Inc()
			rec.MarkFailed(loc)
			if saveErr := c.progress.Save(p.AnimalType, p.Status, rec); saveErr != nil {
				return fmt.Errorf("save progress: %w", saveErr)
			}
			continue
		}

		if !result.Completed {
			// Remote budget exhausted: persist the resume point and stop
			// the whole run.
			locationOutcomesTotal.WithLabelValues("partial").Inc()
			rec.MarkPartial(loc, result.LastPage, result.TotalCount)
			if saveErr := c.progress.Save(p.AnimalType, p.Status, rec); saveErr != nil {
				return fmt.Errorf("save progress: %w", saveErr)
			}
			c.logger.Info().
				Str("location", loc).
				Int("last_page", result.LastPage).
				Int("total", result.TotalCount).
				Msg("Partially completed due to API limit, resume later to continue")
			return nil
		}

		locationOutcomesTotal.WithLabelValues("completed").Inc()
		rec.MarkCompleted(loc)
		if saveErr := c.progress.Save(p.AnimalType, p.Status, rec); saveErr != nil {
			return fmt.Errorf("save progress: %w", saveErr)
		}
		c.logger.Info().
			Str("location", loc).
			Int("session_records", result.SessionCount).
			Int("completed", len(rec.CompletedStates)).
			Int("locations", len(c.locations)).
			Msg("Completed location")
	}

	c.logger.Info().
		Int("completed", len(rec.CompletedStates)).
		Int("partial", len(rec.PartialStates)).
		Int("failed", len(rec.FailedStates)).
		Msg("Collection complete")

	return nil
}

// Combine builds the deduplicated combined artifact for the pair.
func (c *Collector) Combine(p Params) (string, error) {
	return c.storage.Combine(p.AnimalType, p.Status)
}

// StatusSummary logs the current per-location collection state.
func (c *Collector) StatusSummary(p Params) error {
	rec, err := c.progress.Load(p.AnimalType, p.Status)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}

	completed := len(rec.CompletedStates)
	partial := len(rec.PartialStates)
	failed := len(rec.FailedStates)
	remaining := len(c.locations) - completed - partial - failed
	if remaining < 0 {
		remaining = 0
	}

	c.logger.Info().
		Int("completed", completed).
		Int("locations", len(c.locations)).
		Int("partial", partial).
		Int("failed", failed).
		Int("remaining", remaining).
		Msgf("Collection status for %s %ss", p.Status, p.AnimalType)

	for loc, info := range rec.PartialStates {
		c.logger.Info().
			Str("location", loc).
			Int("last_page", info.LastPage).
			Int("animals_collected", info.AnimalsCollected).
			Msg("Partial location")
	}
	if failed > 0 {
		c.logger.Info().Strs("locations", rec.FailedStates).Msg("Failed locations")
	}

	return nil
}
