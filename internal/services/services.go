package services

import (
	"context"

	"github.com/desertthunder/playlistdl/internal/models"
)

// Catalog resolves catalog URLs into ordered (title, contributor) items.
type Catalog interface {
	// ResolveSingle resolves a track URL into one item.
	ResolveSingle(ctx context.Context, url string) (models.CatalogItem, error)

	// ResolveMany resolves a collection URL into its items in service order.
	ResolveMany(ctx context.Context, url string) ([]models.CatalogItem, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// SearchResult is one candidate returned by a [Searcher].
type SearchResult struct {
	Address string
	Title   string
}

// Searcher runs a free-text video search.
type Searcher interface {
	// Search returns at most limit candidates, best first. An empty slice means nothing matched.
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)

	Name() string
}

// ExtractStatus is the phase reported by an [Extractor].
type ExtractStatus int

const (
	ExtractDownloading ExtractStatus = iota
	ExtractFinished
)

func (s ExtractStatus) String() string {
	switch s {
	case ExtractDownloading:
		return "downloading"
	case ExtractFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ExtractProgress is a single progress report. Total is zero when the size is unknown.
type ExtractProgress struct {
	Status     ExtractStatus
	Downloaded int64
	Total      int64
	Filename   string
	Title      string
}

// ExtractRequest describes one extraction.
type ExtractRequest struct {
	Address   string
	OutputDir string

	// Playlist downloads every entry of a playlist address.
	Playlist bool

	// AudioFormat, when set, asks the backend to convert the audio (e.g. "mp3").
	AudioFormat string

	// Verbose lets the backend print its own warnings and diagnostics for this call.
	Verbose bool
}

// ExtractResult lists the files a run reported writing. Paths may be stale when a
// post-processor replaced them; callers should verify.
type ExtractResult struct {
	Files []string
}

// Extractor downloads the best available audio for an address.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest, onProgress func(ExtractProgress)) (*ExtractResult, error)

	Name() string
}

func report(onProgress func(ExtractProgress), p ExtractProgress) {
	if onProgress != nil {
		onProgress(p)
	}
}
