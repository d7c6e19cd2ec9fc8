package tasks

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistdl/internal/models"
	"github.com/desertthunder/playlistdl/internal/services"
	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/samber/lo"
)

// HistoryRecorder persists item outcomes.
type HistoryRecorder interface {
	Record(batchID, sourceURL string, outcome models.ItemOutcome) error
}

// BatchResult contains everything one run produced.
type BatchResult struct {
	ID         string               `json:"id" yaml:"id"`
	Source     string               `json:"source" yaml:"source"`
	Route      string               `json:"route" yaml:"route"`
	Directory  string               `json:"directory" yaml:"directory"`
	Outcomes   []models.ItemOutcome `json:"outcomes" yaml:"outcomes"`
	StartedAt  time.Time            `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time            `json:"finished_at" yaml:"finished_at"`
}

// Total is the number of items in the batch.
func (r *BatchResult) Total() int { return len(r.Outcomes) }

// Count returns how many outcomes have status.
func (r *BatchResult) Count(status models.OutcomeStatus) int {
	return lo.CountBy(r.Outcomes, func(o models.ItemOutcome) bool { return o.Status() == status })
}

// Files lists the paths of fetched outcomes in order.
func (r *BatchResult) Files() []string {
	return lo.FilterMap(r.Outcomes, func(o models.ItemOutcome, _ int) (string, bool) {
		return o.OutputPath(), o.Status() == models.StatusFetched
	})
}

// Records converts the outcomes into unsaved history records.
func (r *BatchResult) Records() []*models.DownloadRecord {
	return lo.Map(r.Outcomes, func(o models.ItemOutcome, _ int) *models.DownloadRecord {
		return models.NewDownloadRecord(r.ID, r.Source, o)
	})
}

// Summary describes the batch for a completion message.
func (r *BatchResult) Summary() string {
	fetched := r.Count(models.StatusFetched)
	return fmt.Sprintf("Downloaded %d of %d tracks to %s", fetched, r.Total(), r.Directory)
}

// PipelineEngine composes catalog resolution, matching, and fetching.
type PipelineEngine struct {
	catalog services.Catalog
	matcher *MatchFinder
	fetcher *Fetcher
	history HistoryRecorder
	tag     bool
	logger  *log.Logger
}

// EngineOption customizes a [PipelineEngine].
type EngineOption func(*PipelineEngine)

// WithHistory records every outcome through h.
func WithHistory(h HistoryRecorder) EngineOption {
	return func(e *PipelineEngine) { e.history = h }
}

// WithTagging writes ID3 frames to fetched mp3 files when the fetcher transcodes.
func WithTagging(enabled bool) EngineOption {
	return func(e *PipelineEngine) { e.tag = enabled }
}

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *PipelineEngine) { e.logger = l }
}

// NewPipelineEngine creates an engine. catalog may be nil for YouTube-only use.
func NewPipelineEngine(catalog services.Catalog, matcher *MatchFinder, fetcher *Fetcher, opts ...EngineOption) *PipelineEngine {
	e := &PipelineEngine{catalog: catalog, matcher: matcher, fetcher: fetcher}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

// WithCatalog returns a copy of e that resolves through catalog.
func (e *PipelineEngine) WithCatalog(catalog services.Catalog) *PipelineEngine {
	clone := *e
	clone.catalog = catalog
	return &clone
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PipelineEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// sendMilestone delivers update unless ctx ends first.
func (e *PipelineEngine) sendMilestone(ctx context.Context, progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	case <-ctx.Done():
	}
}

// DownloadSpotify resolves a Spotify URL and runs the batch.
//
// Input errors are returned before any network call. Resolution errors are
// returned as the catalog reported them.
func (e *PipelineEngine) DownloadSpotify(ctx context.Context, url, dest string, progress chan<- ProgressUpdate) (*BatchResult, error) {
	route, err := ClassifySpotify(url)
	if err != nil {
		return nil, err
	}
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: Spotify client id and secret are required", shared.ErrMissingCredentials)
	}

	url = strings.TrimSpace(url)
	e.sendProgress(progress, resolveUpdate(url, route))

	var items []models.CatalogItem
	if route == SpotifyTrack {
		item, err := e.catalog.ResolveSingle(ctx, url)
		if err != nil {
			return nil, err
		}
		items = []models.CatalogItem{item}
	} else {
		items, err = e.catalog.ResolveMany(ctx, url)
		if err != nil {
			return nil, err
		}
	}
	e.logger.Info("resolved", "route", route, "items", len(items))

	batch := e.newBatch(url, route, dest)
	batch.Outcomes = e.runBatch(ctx, batch, items, dest, progress)
	return e.finish(ctx, batch, progress), nil
}

// DownloadYouTube fetches a YouTube video or every entry of a YouTube playlist.
func (e *PipelineEngine) DownloadYouTube(ctx context.Context, url, dest string, progress chan<- ProgressUpdate) (*BatchResult, error) {
	route, err := ClassifyYouTube(url)
	if err != nil {
		return nil, err
	}
	if e.fetcher == nil {
		return nil, fmt.Errorf("%w: no fetcher configured", shared.ErrServiceUnavailable)
	}

	url = strings.TrimSpace(url)
	e.sendProgress(progress, resolveUpdate(url, route))
	batch := e.newBatch(url, route, dest)

	onFetch := func(ev FetchEvent) { e.sendProgress(progress, fetchUpdate(1, 1, ev)) }

	var fetches []models.FetchOutcome
	if route == YouTubePlaylist {
		fetches = e.fetcher.FetchCollection(ctx, url, dest, onFetch)
	} else {
		fetches = []models.FetchOutcome{e.fetcher.Fetch(ctx, url, dest, onFetch)}
	}

	for i, fetch := range fetches {
		item := models.CatalogItem{Title: url}
		if fetch.Succeeded {
			base := filepath.Base(fetch.OutputPath)
			item.Title = strings.TrimSuffix(base, filepath.Ext(base))
		}

		outcome := models.ItemOutcome{Item: item, Match: models.Located(url), Fetch: &fetch}
		batch.Outcomes = append(batch.Outcomes, outcome)
		e.record(batch, outcome)
		e.sendMilestone(ctx, progress, itemCompleteUpdate(i+1, len(fetches), outcome))
	}

	return e.finish(ctx, batch, progress), nil
}

// RunBatch matches and fetches items strictly in order and returns one outcome per item.
//
// After each item an ItemComplete update carrying (index+1, len(items)) is delivered.
func (e *PipelineEngine) RunBatch(ctx context.Context, items []models.CatalogItem, dest string, progress chan<- ProgressUpdate) []models.ItemOutcome {
	batch := e.newBatch("", SpotifyPlaylist, dest)
	return e.runBatch(ctx, batch, items, dest, progress)
}

func (e *PipelineEngine) runBatch(ctx context.Context, batch *BatchResult, items []models.CatalogItem, dest string, progress chan<- ProgressUpdate) []models.ItemOutcome {
	total := len(items)
	outcomes := make([]models.ItemOutcome, 0, total)

	for i, item := range items {
		e.sendProgress(progress, searchUpdate(i+1, total, item))

		outcome := e.runItem(ctx, item, dest, func(ev FetchEvent) {
			e.sendProgress(progress, fetchUpdate(i+1, total, ev))
		})
		outcomes = append(outcomes, outcome)
		e.record(batch, outcome)

		e.sendMilestone(ctx, progress, itemCompleteUpdate(i+1, total, outcome))
	}
	return outcomes
}

func (e *PipelineEngine) runItem(ctx context.Context, item models.CatalogItem, dest string, onFetch func(FetchEvent)) models.ItemOutcome {
	logger := shared.WithLogger(e.logger, "title", item.Title, "contributor", item.Contributor)

	if e.matcher == nil || e.fetcher == nil {
		return models.ItemOutcome{Item: item, Match: models.MatchResult{Error: shared.ErrServiceUnavailable.Error()}}
	}

	match, err := e.matcher.FindMatch(ctx, item.Title, item.Contributor)
	if err != nil {
		logger.Warn("search failed", "err", err)
		return models.ItemOutcome{Item: item, Match: models.MatchResult{Error: err.Error()}}
	}

	if !match.Found {
		logger.Info("no match")
		return models.ItemOutcome{Item: item, Match: match}
	}

	fetch := e.fetcher.Fetch(ctx, match.Address, dest, onFetch)
	if !fetch.Succeeded {
		logger.Warn("fetch failed", "address", match.Address, "err", fetch.ErrorDetail)
		return models.ItemOutcome{Item: item, Match: match, Fetch: &fetch}
	}

	logger.Info("fetched", "path", fetch.OutputPath)
	if e.tag && e.fetcher.Transcodes() && strings.EqualFold(filepath.Ext(fetch.OutputPath), ".mp3") {
		if err := TagFile(fetch.OutputPath, item); err != nil {
			logger.Warn("tagging failed", "err", err)
		}
	}
	return models.ItemOutcome{Item: item, Match: match, Fetch: &fetch}
}

func (e *PipelineEngine) newBatch(url string, route Route, dest string) *BatchResult {
	return &BatchResult{
		ID:        shared.GenerateID(),
		Source:    url,
		Route:     route.String(),
		Directory: dest,
		StartedAt: time.Now().UTC(),
	}
}

func (e *PipelineEngine) record(batch *BatchResult, outcome models.ItemOutcome) {
	if e.history == nil || batch.Source == "" {
		return
	}
	if err := e.history.Record(batch.ID, batch.Source, outcome); err != nil {
		e.logger.Warn("failed to record history", "batch", batch.ID, "err", err)
	}
}

func (e *PipelineEngine) finish(ctx context.Context, batch *BatchResult, progress chan<- ProgressUpdate) *BatchResult {
	batch.FinishedAt = time.Now().UTC()
	e.logger.Info("batch complete",
		"batch", batch.ID,
		"fetched", batch.Count(models.StatusFetched),
		"no_match", batch.Count(models.StatusNoMatch),
		"failed", batch.Count(models.StatusFailed),
	)
	e.sendMilestone(ctx, progress, batchCompleteUpdate(batch))
	return batch
}
