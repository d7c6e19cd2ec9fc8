package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistdl/internal/models"
	"github.com/desertthunder/playlistdl/internal/services"
	"github.com/desertthunder/playlistdl/internal/shared"
)

// FetchEventKind distinguishes [FetchEvent]s.
type FetchEventKind int

const (
	FetchStarted FetchEventKind = iota
	FetchProgress
	FetchFinished
)

// FetchEvent is a structured progress report for one fetch.
//
// Known is false when the extractor did not report a total size; Fraction is then zero.
type FetchEvent struct {
	Kind       FetchEventKind
	Fraction   float64
	Known      bool
	Downloaded int64
	Total      int64
	Title      string
}

func (e FetchEvent) String() string {
	switch e.Kind {
	case FetchStarted:
		return "starting download"
	case FetchFinished:
		return "download finished"
	}
	if !e.Known {
		return "unknown progress"
	}
	return fmt.Sprintf("%.0f%%", e.Fraction*100)
}

func progressEvent(p services.ExtractProgress) FetchEvent {
	ev := FetchEvent{Kind: FetchProgress, Downloaded: p.Downloaded, Total: p.Total, Title: p.Title}
	if p.Status == services.ExtractFinished {
		ev.Kind = FetchFinished
	}

	if p.Total > 0 {
		ev.Known = true
		ev.Fraction = min(float64(p.Downloaded)/float64(p.Total), 1)
	}
	if ev.Kind == FetchFinished {
		ev.Known, ev.Fraction = true, 1
	}
	return ev
}

// FetcherConfig controls output normalization.
type FetcherConfig struct {
	// TargetExt is the extension every output file is renamed to, e.g. "mp3".
	TargetExt string

	// Transcode asks the extractor to convert to TargetExt rather than only renaming.
	Transcode bool

	// Verbose lets the extractor print its own diagnostics for each call.
	Verbose bool
}

// Fetcher downloads addresses through an [services.Extractor].
type Fetcher struct {
	extractor services.Extractor
	config    FetcherConfig
	logger    *log.Logger
}

// NewFetcher creates a fetcher. TargetExt defaults to "mp3".
func NewFetcher(extractor services.Extractor, config FetcherConfig, logger *log.Logger) *Fetcher {
	config.TargetExt = strings.TrimPrefix(strings.TrimSpace(config.TargetExt), ".")
	if config.TargetExt == "" {
		config.TargetExt = "mp3"
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Fetcher{extractor: extractor, config: config, logger: logger}
}

// TargetExt is the extension fetched files end up with.
func (f *Fetcher) TargetExt() string { return f.config.TargetExt }

// Transcodes reports whether the audio is converted rather than relabelled.
func (f *Fetcher) Transcodes() bool { return f.config.Transcode }

// Fetch downloads the best audio of address into dest. It never returns an error;
// every failure is reported through the outcome.
func (f *Fetcher) Fetch(ctx context.Context, address, dest string, onProgress func(FetchEvent)) models.FetchOutcome {
	files, err := f.run(ctx, address, dest, false, onProgress)
	if err != nil {
		return models.FetchFailed(err)
	}
	return models.Fetched(files[0])
}

// FetchCollection downloads every entry of a playlist address. Each produced file
// is one successful outcome; an extractor error adds one failed outcome.
func (f *Fetcher) FetchCollection(ctx context.Context, address, dest string, onProgress func(FetchEvent)) []models.FetchOutcome {
	files, err := f.run(ctx, address, dest, true, onProgress)

	outcomes := make([]models.FetchOutcome, 0, len(files)+1)
	for _, path := range files {
		outcomes = append(outcomes, models.Fetched(path))
	}
	if err != nil {
		outcomes = append(outcomes, models.FetchFailed(err))
	}
	return outcomes
}

// run performs one extraction and returns the normalized output paths. On error the
// paths that were still produced are returned too.
func (f *Fetcher) run(ctx context.Context, address, dest string, playlist bool, onProgress func(FetchEvent)) (files []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			files, err = nil, fmt.Errorf("%w: extractor panicked: %v", shared.ErrExtractionFailed, r)
		}
	}()

	emit := func(ev FetchEvent) {
		if onProgress != nil {
			onProgress(ev)
		}
	}
	emit(FetchEvent{Kind: FetchStarted})

	if f.extractor == nil {
		return nil, fmt.Errorf("%w: no extractor configured", shared.ErrServiceUnavailable)
	}

	if err := shared.EnsureDir(dest); err != nil {
		return nil, err
	}

	before, err := shared.Snapshot(dest)
	if err != nil {
		return nil, err
	}

	req := services.ExtractRequest{
		Address:   address,
		OutputDir: dest,
		Playlist:  playlist,
		Verbose:   f.config.Verbose,
	}
	if f.config.Transcode {
		req.AudioFormat = f.config.TargetExt
	}

	f.logger.Debug("extracting", "address", address, "backend", f.extractor.Name(), "playlist", playlist)
	result, extractErr := f.extractor.Extract(ctx, req, func(p services.ExtractProgress) {
		emit(progressEvent(p))
	})

	var reported []string
	if result != nil {
		reported = result.Files
	}

	added, err := shared.NewFiles(dest, before)
	if err != nil {
		return nil, errors.Join(extractErr, err)
	}

	outputs := resolveOutputs(reported, added, f.config.TargetExt)
	if extractErr == nil && len(outputs) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoOutput, address)
	}

	renamed := make([]string, 0, len(outputs))
	var renameErrs []error
	for _, path := range outputs {
		target, err := shared.ReplaceExt(path, f.config.TargetExt)
		if err != nil {
			renameErrs = append(renameErrs, err)
			continue
		}
		renamed = append(renamed, target)
	}

	if err := errors.Join(extractErr, errors.Join(renameErrs...)); err != nil {
		return renamed, err
	}
	return renamed, nil
}

// resolveOutputs merges the files an extractor reported with the files that appeared
// in the directory. A reported path that no longer exists is replaced by its sibling
// carrying ext, which covers post-processors that convert and delete the original.
func resolveOutputs(reported, added []string, ext string) []string {
	seen := make(map[string]bool)
	var out []string
	keep := func(path string) {
		if path != "" && !seen[path] && shared.FileExists(path) {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, path := range reported {
		if shared.FileExists(path) {
			keep(path)
			continue
		}
		keep(strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext)
	}

	sort.Strings(added)
	for _, path := range added {
		keep(path)
	}
	return out
}
