package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/lrstanley/go-ytdlp"
)

const watchURL = "https://www.youtube.com/watch?v="

// YTDLPOptions configures the yt-dlp backed search and extractor.
type YTDLPOptions struct {
	// Executable overrides the yt-dlp binary; empty resolves it from PATH or the go-ytdlp cache.
	Executable string

	// Headers are forwarded with --add-headers.
	Headers *shared.RequestHeaders

	// ProgressInterval throttles progress callbacks. Defaults to 250ms.
	ProgressInterval time.Duration
}

func (o YTDLPOptions) command() *ytdlp.Command {
	dl := ytdlp.New()
	if o.Executable != "" {
		dl.SetExecutable(o.Executable)
	}
	for _, line := range o.Headers.Lines() {
		dl.AddHeaders(line)
	}
	return dl
}

// InstallYTDLP makes sure a yt-dlp binary is available, downloading it into the
// go-ytdlp cache when necessary.
func InstallYTDLP(ctx context.Context, logger *log.Logger) error {
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to install yt-dlp: %w", shared.ErrServiceUnavailable, err)
	}
	if logger != nil {
		logger.Info("yt-dlp ready", "path", resolved.Executable)
	}
	return nil
}

// YouTubeSearch implements [Searcher] with yt-dlp's search extractor.
type YouTubeSearch struct {
	opts YTDLPOptions
}

// NewYouTubeSearch creates a search backed by yt-dlp.
func NewYouTubeSearch(opts YTDLPOptions) *YouTubeSearch {
	return &YouTubeSearch{opts: opts}
}

// Name returns the name of the service.
func (s *YouTubeSearch) Name() string { return "YouTube" }

// Search runs "ytsearchN:query" without downloading and returns the watch URLs in rank order.
func (s *YouTubeSearch) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit < 1 {
		limit = 1
	}

	dl := s.opts.command().
		FlatPlaylist().
		SkipDownload().
		NoWarnings().
		Print("%(id)s\t%(title)s")

	result, err := dl.Run(ctx, fmt.Sprintf("ytsearch%d:%s", limit, query))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", shared.ErrSearchFailed, query, err)
	}

	results := parseSearchOutput(result.Stdout)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// parseSearchOutput reads "id<TAB>title" lines, ignoring anything else yt-dlp printed.
func parseSearchOutput(stdout string) []SearchResult {
	var results []SearchResult
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "{") || strings.HasPrefix(line, "[") {
			continue
		}

		id, title, _ := strings.Cut(line, "\t")
		if id == "" || id == "NA" || strings.ContainsAny(id, " /") {
			continue
		}
		results = append(results, SearchResult{Address: watchURL + id, Title: title})
	}
	return results
}

// YTDLPExtractor implements [Extractor] by running yt-dlp.
type YTDLPExtractor struct {
	opts YTDLPOptions
}

// NewYTDLPExtractor creates an extractor backed by yt-dlp.
func NewYTDLPExtractor(opts YTDLPOptions) *YTDLPExtractor {
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 250 * time.Millisecond
	}
	return &YTDLPExtractor{opts: opts}
}

// Name returns the name of the backend.
func (x *YTDLPExtractor) Name() string { return "yt-dlp" }

// Extract downloads the best audio stream of req.Address into req.OutputDir,
// naming files after the source title.
func (x *YTDLPExtractor) Extract(ctx context.Context, req ExtractRequest, onProgress func(ExtractProgress)) (*ExtractResult, error) {
	dl := x.opts.command().
		Format("bestaudio/best").
		Output(filepath.Join(req.OutputDir, "%(title)s.%(ext)s"))

	if req.Playlist {
		dl.YesPlaylist()
	} else {
		dl.NoPlaylist()
	}

	if req.AudioFormat != "" {
		dl.ExtractAudio().AudioFormat(req.AudioFormat)
	}

	if req.Verbose {
		dl.Verbose()
	} else {
		dl.NoWarnings()
	}

	// yt-dlp skips files that already exist without emitting progress, so final
	// paths come from an after_move print instead.
	printed, err := os.CreateTemp("", "playlistdl-paths-*.txt")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrExtractionFailed, err)
	}
	printed.Close()
	defer os.Remove(printed.Name())
	dl.PrintToFile("after_move:filepath", printed.Name())

	var (
		mu       sync.Mutex
		finished []string
	)
	dl.ProgressFunc(x.opts.ProgressInterval, func(update ytdlp.ProgressUpdate) {
		p, ok := translateProgress(string(update.Status), int64(update.DownloadedBytes), int64(update.TotalBytes))
		if !ok {
			return
		}
		p.Filename = update.Filename
		if update.Info != nil {
			if p.Filename == "" && update.Info.Filename != nil {
				p.Filename = *update.Info.Filename
			}
			if update.Info.Title != nil {
				p.Title = *update.Info.Title
			}
		}
		if p.Status == ExtractFinished && p.Filename != "" {
			mu.Lock()
			finished = append(finished, p.Filename)
			mu.Unlock()
		}
		report(onProgress, p)
	})

	result, err := dl.Run(ctx, req.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w%s", shared.ErrExtractionFailed, err, stderrTail(result))
	}

	mu.Lock()
	defer mu.Unlock()
	return &ExtractResult{Files: outputPaths(readPrintedPaths(printed.Name()), finished)}, nil
}

// readPrintedPaths reads the paths yt-dlp wrote with --print-to-file, one per line.
func readPrintedPaths(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var paths []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" && line != "NA" {
			paths = append(paths, line)
		}
	}
	return paths
}

// outputPaths merges printed final paths with the files progress reported as finished.
// Printed paths come first; duplicates are dropped.
func outputPaths(printed, finished []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, path := range append(printed, finished...) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	return out
}

// translateProgress maps a yt-dlp status onto [ExtractProgress]. Statuses other
// than downloading and finished are dropped.
func translateProgress(status string, downloaded, total int64) (ExtractProgress, bool) {
	p := ExtractProgress{Downloaded: downloaded, Total: total}
	switch status {
	case "downloading":
		p.Status = ExtractDownloading
	case "finished":
		p.Status = ExtractFinished
	default:
		return p, false
	}
	return p, true
}

func stderrTail(result *ytdlp.Result) string {
	if result == nil {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(result.Stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return ": " + line
		}
	}
	return ""
}
