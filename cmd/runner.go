package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistdl/internal/formatter"
	"github.com/desertthunder/playlistdl/internal/repositories"
	"github.com/desertthunder/playlistdl/internal/services"
	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/desertthunder/playlistdl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	catalog     services.Catalog
	searcher    services.Searcher
	extractor   services.Extractor
	history     *repositories.DownloadRepository
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	prompter    Prompter
	interactive bool
	openFolder  func(string) error
	engine      *tasks.PipelineEngine

	installYTDLP func(context.Context, *log.Logger) error
	installed    bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	Catalog     services.Catalog
	Searcher    services.Searcher
	Extractor   services.Extractor
	History     *repositories.DownloadRepository
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	Input       io.Reader
	Prompter    Prompter
	Interactive bool
	OpenFolder  func(string) error

	// InstallYTDLP replaces services.InstallYTDLP for extractor.auto_install.
	InstallYTDLP func(context.Context, *log.Logger) error
}

// NewRunner creates a new Runner with the provided configuration.
//
// Services left nil are built from the config: a Spotify catalog when credentials are
// configured, yt-dlp search, and the configured extractor backend.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenFolder == nil {
		opts.OpenFolder = shared.OpenFolder
	}
	if opts.InstallYTDLP == nil {
		opts.InstallYTDLP = services.InstallYTDLP
	}

	r := &Runner{
		config:      opts.Config,
		catalog:     opts.Catalog,
		searcher:    opts.Searcher,
		extractor:   opts.Extractor,
		history:     opts.History,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		prompter:    opts.Prompter,
		interactive: opts.Interactive,
		openFolder:  opts.OpenFolder,

		installYTDLP: opts.InstallYTDLP,
	}

	if r.prompter == nil {
		if r.interactive {
			r.prompter = &surveyPrompter{}
		} else {
			r.prompter = newLinePrompter(opts.Input, opts.Output)
		}
	}

	r.initServices()
	r.buildEngine()
	return r
}

func (r *Runner) initServices() {
	var headers *shared.RequestHeaders
	if path := r.config.Extractor.HeadersPath; path != "" {
		h, err := shared.LoadRequestHeaders(path)
		if err != nil {
			r.logger.Warn("ignoring request headers", "path", path, "err", err)
		} else {
			headers = h
		}
	}

	ytOpts := services.YTDLPOptions{Executable: r.config.Extractor.Executable, Headers: headers}

	if r.catalog == nil && r.config.Credentials.Spotify.Complete() {
		svc, err := services.NewSpotifyService(r.config.Credentials.Spotify.Map(), services.WithSpotifyHTTPClient(r.httpClient))
		if err != nil {
			r.logger.Warn("Spotify service unavailable", "err", err)
		} else {
			r.catalog = svc
		}
	}

	if r.searcher == nil {
		r.searcher = services.NewYouTubeSearch(ytOpts)
	}

	if r.extractor == nil {
		switch r.config.Extractor.Backend {
		case "native":
			r.extractor = services.NewNativeExtractor(r.httpClient, headers)
		default:
			r.extractor = services.NewYTDLPExtractor(ytOpts)
		}
	}
}

// buildEngine wires the pipeline from the runner's services and current logger.
func (r *Runner) buildEngine() {
	fetcher := tasks.NewFetcher(r.extractor, tasks.FetcherConfig{
		TargetExt: r.config.Downloads.AudioFormat,
		Transcode: r.config.Downloads.Transcode,
		Verbose:   r.config.Extractor.Verbose,
	}, r.logger)

	opts := []tasks.EngineOption{
		tasks.WithLogger(r.logger),
		tasks.WithTagging(r.config.Downloads.Tag),
	}
	if r.history != nil {
		opts = append(opts, tasks.WithHistory(repositories.NewHistoryAdapter(r.history)))
	}

	r.engine = tasks.NewPipelineEngine(r.catalog, tasks.NewMatchFinder(r.searcher, r.config.Search.RateLimit), fetcher, opts...)
}

// ensureYTDLP installs yt-dlp once per process when extractor.auto_install is set
// and no explicit executable is configured. Failures are logged; the download then
// reports its own extraction error.
func (r *Runner) ensureYTDLP(ctx context.Context) {
	if r.installed || !r.config.Extractor.AutoInstall || r.config.Extractor.Executable != "" {
		return
	}
	r.installed = true

	if err := r.installYTDLP(ctx, r.logger); err != nil {
		r.logger.Warn("yt-dlp auto install failed", "err", err)
	}
}

// SetLogger replaces the logger and rebuilds the engine around it.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.buildEngine()
}

// spotifyCatalog builds a catalog from clientID and clientSecret. It returns nil when
// neither is given, leaving the configured catalog in place.
func (r *Runner) spotifyCatalog(clientID, clientSecret string) (services.Catalog, error) {
	if clientID == "" && clientSecret == "" {
		return nil, nil
	}

	creds := shared.SpotifyConfig{ClientID: clientID, ClientSecret: clientSecret}
	svc, err := services.NewSpotifyService(creds.Map(), services.WithSpotifyHTTPClient(r.httpClient))
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		promptCommand, spotifyCommand, youtubeCommand, guiCommand, openCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// outputDir is the --output flag or the configured download directory.
func (r *Runner) outputDir(cmd *cli.Command) string {
	if dir := cmd.String("output"); dir != "" {
		return dir
	}
	return r.config.Downloads.Directory
}

// writeReport writes the batch report when a format was requested by flag or config.
func (r *Runner) writeReport(result *tasks.BatchResult, format string) error {
	if format == "" {
		format = r.config.Downloads.ReportFormat
	}
	if format == "" || result == nil {
		return nil
	}

	f, err := formatter.ParseFormat(format)
	if err != nil {
		return err
	}

	report := &formatter.Report{
		BatchID:   result.ID,
		Source:    result.Source,
		Directory: result.Directory,
		Records:   result.Records(),
	}
	path, err := formatter.WriteReport(report, result.Directory, f)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	r.logger.Debug("report written", "path", path)
	r.writePlain("Report saved to: %s\n", path)
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
