package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistdl/internal/models"
	"github.com/desertthunder/playlistdl/internal/repositories"
	"github.com/desertthunder/playlistdl/internal/services"
	"github.com/desertthunder/playlistdl/internal/shared"
	tu "github.com/desertthunder/playlistdl/internal/testing"
)

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	config := shared.DefaultConfig()
	config.Downloads.Directory = t.TempDir()
	config.Database.History = false
	config.Log.File = filepath.Join(t.TempDir(), "playlistdl.log")
	return config
}

func playlistItems() []models.CatalogItem {
	return []models.CatalogItem{
		{Title: "Song One", Contributor: "Artist A"},
		{Title: "Song Two", Contributor: "Artist B"},
		{Title: "Song Three", Contributor: "Artist C"},
	}
}

// hitsFor returns a searcher that finds every item except the skipped queries.
func hitsFor(items []models.CatalogItem, skip ...string) *tu.MockSearcher {
	results := map[string][]services.SearchResult{}
	for i, item := range items {
		results[item.Query()] = tu.Located("https://www.youtube.com/watch?v=v" + string(rune('a'+i)))
	}
	for _, q := range skip {
		delete(results, q)
	}
	return &tu.MockSearcher{Results: results}
}

func newTestRunner(t *testing.T, input string, opts RunnerOpts) (*Runner, *bytes.Buffer) {
	t.Helper()
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")

	output := &bytes.Buffer{}
	if opts.Config == nil {
		opts.Config = testConfig(t)
	}
	if opts.Extractor == nil {
		opts.Extractor = &tu.MockExtractor{}
	}
	if opts.Searcher == nil {
		opts.Searcher = &tu.MockSearcher{}
	}
	opts.Logger = shared.NewLogger(io.Discard)
	opts.Output = output
	opts.Input = strings.NewReader(input)
	return NewRunner(opts), output
}

func runApp(r *Runner, args ...string) error {
	return newApp(r).Run(context.Background(), append([]string{"playlistdl"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			catalog := &tu.MockCatalog{}
			searcher := &tu.MockSearcher{}
			extractor := &tu.MockExtractor{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Catalog:    catalog,
				Searcher:   searcher,
				Extractor:  extractor,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.catalog != catalog || runner.searcher != searcher || runner.extractor != extractor {
				t.Error("expected services to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be built")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected stdout output")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected default HTTP client")
			}
		})

		t.Run("builds services from config", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Extractor.Backend = "native"
			config.Credentials.Spotify = shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"}

			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard)})

			if _, ok := runner.extractor.(*services.NativeExtractor); !ok {
				t.Errorf("expected native extractor, got %T", runner.extractor)
			}
			if _, ok := runner.searcher.(*services.YouTubeSearch); !ok {
				t.Errorf("expected yt-dlp search, got %T", runner.searcher)
			}
			if _, ok := runner.catalog.(*services.SpotifyService); !ok {
				t.Errorf("expected Spotify catalog, got %T", runner.catalog)
			}
		})

		t.Run("without credentials leaves catalog empty", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Logger: shared.NewLogger(io.Discard)})
			if runner.catalog != nil {
				t.Errorf("expected no catalog, got %T", runner.catalog)
			}
			if _, ok := runner.extractor.(*services.YTDLPExtractor); !ok {
				t.Errorf("expected yt-dlp extractor, got %T", runner.extractor)
			}
		})

		t.Run("non-interactive uses line prompts", func(t *testing.T) {
			runner, _ := newTestRunner(t, "", RunnerOpts{})
			if _, ok := runner.prompter.(*linePrompter); !ok {
				t.Errorf("expected line prompter, got %T", runner.prompter)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := &Runner{output: output}

			if err := runner.writePlain("Hello %s\n", "World"); err != nil {
				t.Fatalf("writePlain failed: %v", err)
			}
			if output.String() != "Hello World\n" {
				t.Errorf("got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := &Runner{output: &tu.FWriter{}}
			if err := runner.writePlain("test"); err == nil {
				t.Error("expected error for write failure")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner, _ := newTestRunner(t, "", RunnerOpts{})
		names := map[string]bool{}
		for _, cmd := range runner.register() {
			names[cmd.Name] = true
		}
		for _, want := range []string{"prompt", "spotify", "youtube", "gui", "open", "history", "setup"} {
			if !names[want] {
				t.Errorf("missing command %s", want)
			}
		}
	})
}

func TestPrompt(t *testing.T) {
	t.Run("YouTube Video", func(t *testing.T) {
		runner, output := newTestRunner(t, "2\nhttps://www.youtube.com/watch?v=abc\n", RunnerOpts{})

		if err := runApp(runner); err != nil {
			t.Fatalf("Prompt failed: %v", err)
		}

		out := output.String()
		for _, want := range []string{"Playlist Downloader", "1. Spotify", "2. YouTube", "Enter choice (1 or 2):", "Download completed.", "Downloaded 1 of 1 tracks"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		tu.AssertFileExists(t, filepath.Join(runner.config.Downloads.Directory, "abc.mp3"))
	})

	t.Run("Spotify Playlist With Configured Credentials", func(t *testing.T) {
		items := playlistItems()
		config := testConfig(t)
		config.Credentials.Spotify = shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"}
		catalog := &tu.MockCatalog{Many: items}
		extractor := &tu.MockExtractor{Progress: []services.ExtractProgress{
			{Status: services.ExtractDownloading, Downloaded: 50, Total: 100},
			{Status: services.ExtractDownloading, Downloaded: 10},
		}}

		runner, output := newTestRunner(t, "1\nhttps://open.spotify.com/playlist/abc?si=x\n", RunnerOpts{
			Config:    config,
			Catalog:   catalog,
			Searcher:  hitsFor(items, items[1].Query()),
			Extractor: extractor,
		})

		if err := runApp(runner); err != nil {
			t.Fatalf("Prompt failed: %v", err)
		}

		out := output.String()
		for _, want := range []string{
			"Using Spotify credentials from config.",
			"Downloading: 1/3 - Song One by Artist A",
			"Progress: 1/3 tracks downloaded.",
			"Downloading... 50.00%",
			"Downloading... unknown progress",
			"Download completed.",
			"Could not find: Song Two by Artist B on YouTube",
			"Progress: 2/3 tracks downloaded.",
			"Progress: 3/3 tracks downloaded.",
			"All tracks downloaded.",
			"Downloaded 2 of 3 tracks",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		miss := strings.Index(out, "Could not find: Song Two")
		if count := strings.Index(out, "Progress: 2/3"); miss < 0 || count < miss {
			t.Errorf("batch counter should follow the miss line:\n%s", out)
		}
		if catalog.ManyHit != 1 {
			t.Errorf("expected one resolution, got %d", catalog.ManyHit)
		}
		if files := tu.ListFiles(t, config.Downloads.Directory); len(files) != 2 {
			t.Errorf("expected 2 files, got %v", files)
		}
	})

	t.Run("Spotify Track", func(t *testing.T) {
		items := playlistItems()[:1]
		config := testConfig(t)
		config.Credentials.Spotify = shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"}

		runner, output := newTestRunner(t, "1\nhttps://open.spotify.com/track/abc\n", RunnerOpts{
			Config:   config,
			Catalog:  &tu.MockCatalog{Single: items[0]},
			Searcher: hitsFor(items),
		})

		if err := runApp(runner); err != nil {
			t.Fatalf("Prompt failed: %v", err)
		}

		out := output.String()
		if !strings.Contains(out, "Downloading: Song One by Artist A\n") {
			t.Errorf("expected the single track line without a counter:\n%s", out)
		}
		for _, unwanted := range []string{"1/1", "All tracks downloaded."} {
			if strings.Contains(out, unwanted) {
				t.Errorf("output should not contain %q:\n%s", unwanted, out)
			}
		}
		if !strings.Contains(out, "Download completed.") {
			t.Errorf("output missing completion:\n%s", out)
		}
	})

	t.Run("Input Errors Are Printed", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
			want  string
		}{
			{"Invalid Choice", "3\n", "Error: invalid choice"},
			{"Missing Credentials", "1\n\n\n", "Error: missing credentials: Please provide both Client ID and Client Secret"},
			{"Empty YouTube URL", "2\n\n", "Error: URL cannot be empty"},
			{"Invalid YouTube URL", "2\nhttps://vimeo.com/1\n", "Error: invalid URL"},
			{"Invalid Spotify URL", "1\nid\nsecret\nhttps://open.spotify.com/artist/1\n", "Error: invalid URL"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				extractor := &tu.MockExtractor{}
				runner, output := newTestRunner(t, tt.input, RunnerOpts{Extractor: extractor})

				if err := runApp(runner); err != nil {
					t.Fatalf("input errors should not fail the command: %v", err)
				}
				if !strings.Contains(output.String(), tt.want) {
					t.Errorf("output missing %q:\n%s", tt.want, output.String())
				}
				if extractor.CallCount() != 0 {
					t.Error("no download should start after an input error")
				}
			})
		}
	})

	t.Run("Resolution Errors Are Returned", func(t *testing.T) {
		config := testConfig(t)
		config.Credentials.Spotify = shared.SpotifyConfig{ClientID: "id", ClientSecret: "bad"}
		authErr := errors.New("oauth2: \"invalid_client\"")

		runner, _ := newTestRunner(t, "1\nhttps://open.spotify.com/track/x\n", RunnerOpts{
			Config:  config,
			Catalog: &tu.MockCatalog{Err: authErr},
		})

		if err := runApp(runner); !errors.Is(err, authErr) {
			t.Errorf("expected resolution error, got %v", err)
		}
	})
}

func TestDownloadCommands(t *testing.T) {
	t.Run("Spotify With Report", func(t *testing.T) {
		items := playlistItems()
		dir := t.TempDir()
		runner, output := newTestRunner(t, "", RunnerOpts{
			Catalog:  &tu.MockCatalog{Many: items},
			Searcher: hitsFor(items),
		})

		err := runApp(runner, "spotify", "--url", "https://open.spotify.com/album/xyz", "--output", dir, "--report", "csv")
		if err != nil {
			t.Fatalf("spotify failed: %v", err)
		}

		reports, _ := filepath.Glob(filepath.Join(dir, "report_*.csv"))
		if len(reports) != 1 {
			t.Fatalf("expected one report, got %v", reports)
		}
		if !strings.Contains(tu.MustReadFile(t, reports[0]), "Song Three,Artist C,fetched") {
			t.Errorf("unexpected report:\n%s", tu.MustReadFile(t, reports[0]))
		}
		if !strings.Contains(output.String(), "Report saved to:") {
			t.Errorf("output missing report path:\n%s", output.String())
		}
	})

	t.Run("Spotify Without Credentials", func(t *testing.T) {
		runner, _ := newTestRunner(t, "", RunnerOpts{})
		err := runApp(runner, "spotify", "--url", "https://open.spotify.com/track/x")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Spotify Invalid URL", func(t *testing.T) {
		runner, _ := newTestRunner(t, "", RunnerOpts{Catalog: &tu.MockCatalog{}})
		err := runApp(runner, "spotify", "--url", "https://example.com/show/1")
		if !errors.Is(err, shared.ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL, got %v", err)
		}
	})

	t.Run("YouTube Playlist", func(t *testing.T) {
		extractor := &tu.MockExtractor{PlaylistEntries: []string{"one", "two"}}
		runner, output := newTestRunner(t, "", RunnerOpts{Extractor: extractor})

		if err := runApp(runner, "youtube", "--url", "https://www.youtube.com/playlist?list=PL1"); err != nil {
			t.Fatalf("youtube failed: %v", err)
		}
		if !strings.Contains(output.String(), "All tracks downloaded.") {
			t.Errorf("output missing completion:\n%s", output.String())
		}
		if files := tu.ListFiles(t, runner.config.Downloads.Directory); len(files) != 2 {
			t.Errorf("expected 2 files, got %v", files)
		}
	})

	t.Run("Bad Report Format", func(t *testing.T) {
		runner, _ := newTestRunner(t, "", RunnerOpts{})
		err := runApp(runner, "youtube", "--url", "https://youtu.be/x", "--report", "xml")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestHistoryCommands(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		runner, _ := newTestRunner(t, "", RunnerOpts{})
		if err := runApp(runner, "history", "list"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	db, err := shared.OpenHistory(shared.DatabaseConfig{Path: filepath.Join(t.TempDir(), "history.db")})
	if err != nil {
		t.Fatalf("failed to open history: %v", err)
	}
	defer db.Close()
	repo := repositories.NewDownloadRepository(db)

	runner, output := newTestRunner(t, "", RunnerOpts{History: repo})
	if err := runApp(runner, "youtube", "--url", "https://www.youtube.com/watch?v=abc"); err != nil {
		t.Fatalf("youtube failed: %v", err)
	}

	t.Run("List", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, "history", "list"); err != nil {
			t.Fatalf("history list failed: %v", err)
		}
		if !strings.Contains(output.String(), "abc") || !strings.Contains(output.String(), "fetched") {
			t.Errorf("unexpected table:\n%s", output.String())
		}
	})

	t.Run("List Bad Status", func(t *testing.T) {
		if err := runApp(runner, "history", "list", "--status", "pending"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("Batches", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, "history", "batches"); err != nil {
			t.Fatalf("history batches failed: %v", err)
		}
		if !strings.Contains(output.String(), "https://www.youtube.com/watch?v=abc") {
			t.Errorf("unexpected table:\n%s", output.String())
		}
	})

	t.Run("Export", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, "history", "export", "--format", "markdown"); err != nil {
			t.Fatalf("history export failed: %v", err)
		}
		if !strings.HasPrefix(output.String(), "# Download history") {
			t.Errorf("unexpected export:\n%s", output.String())
		}

		path := filepath.Join(t.TempDir(), "history.yaml")
		if err := runApp(runner, "history", "export", "--format", "yaml", "--output", path); err != nil {
			t.Fatalf("history export to file failed: %v", err)
		}
		if !strings.Contains(tu.MustReadFile(t, path), "status: fetched") {
			t.Errorf("unexpected YAML:\n%s", tu.MustReadFile(t, path))
		}
	})

	t.Run("Clear", func(t *testing.T) {
		if err := runApp(runner, "history", "clear"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}

		output.Reset()
		if err := runApp(runner, "history", "clear", "--all"); err != nil {
			t.Fatalf("history clear failed: %v", err)
		}
		if !strings.Contains(output.String(), "Removed 1 records") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestAutoInstall(t *testing.T) {
	tests := []struct {
		name        string
		autoInstall bool
		executable  string
		want        int
	}{
		{"Enabled Installs Once", true, "", 1},
		{"Disabled", false, "", 0},
		{"Explicit Executable Wins", true, "/usr/local/bin/yt-dlp", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig(t)
			config.Extractor.AutoInstall = tt.autoInstall
			config.Extractor.Executable = tt.executable

			calls := 0
			runner, _ := newTestRunner(t, "", RunnerOpts{
				Config: config,
				InstallYTDLP: func(ctx context.Context, _ *log.Logger) error {
					calls++
					return nil
				},
			})

			for range 2 {
				if err := runApp(runner, "youtube", "--url", "https://youtu.be/abc"); err != nil {
					t.Fatalf("youtube failed: %v", err)
				}
			}
			if calls != tt.want {
				t.Errorf("install called %d times, want %d", calls, tt.want)
			}
		})
	}

	t.Run("Failure Does Not Block Download", func(t *testing.T) {
		config := testConfig(t)
		config.Extractor.AutoInstall = true
		runner, _ := newTestRunner(t, "", RunnerOpts{
			Config: config,
			InstallYTDLP: func(ctx context.Context, _ *log.Logger) error {
				return shared.ErrServiceUnavailable
			},
		})

		if err := runApp(runner, "youtube", "--url", "https://youtu.be/abc"); err != nil {
			t.Fatalf("youtube failed: %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(config.Downloads.Directory, "abc.mp3"))
	})

	t.Run("History Commands Skip Install", func(t *testing.T) {
		config := testConfig(t)
		config.Extractor.AutoInstall = true
		calls := 0
		runner, _ := newTestRunner(t, "", RunnerOpts{
			Config: config,
			InstallYTDLP: func(ctx context.Context, _ *log.Logger) error {
				calls++
				return nil
			},
		})

		_ = runApp(runner, "history", "list")
		if calls != 0 {
			t.Errorf("install should only run before downloads, got %d calls", calls)
		}
	})
}

func TestPlainRunLogsToFile(t *testing.T) {
	config := testConfig(t)
	stderr := &bytes.Buffer{}
	runner, output := newTestRunner(t, "2\nhttps://www.youtube.com/watch?v=abc\n", RunnerOpts{Config: config})
	console := shared.NewLogger(stderr)
	runner.SetLogger(console)

	if err := runApp(runner); err != nil {
		t.Fatalf("Prompt failed: %v", err)
	}

	if strings.Contains(stderr.String(), "batch complete") || strings.Contains(output.String(), "batch complete") {
		t.Errorf("run logs should not reach the console:\nstderr: %s\noutput: %s", stderr.String(), output.String())
	}
	if logs := tu.MustReadFile(t, config.Log.File); !strings.Contains(logs, "batch complete") {
		t.Errorf("expected run logs in %s, got:\n%s", config.Log.File, logs)
	}
	if runner.logger != console {
		t.Error("console logger should be restored after the run")
	}
}

func TestOpenAndSetup(t *testing.T) {
	t.Run("Open", func(t *testing.T) {
		var opened string
		runner, _ := newTestRunner(t, "", RunnerOpts{OpenFolder: func(dir string) error {
			opened = dir
			return nil
		}})

		dir := filepath.Join(t.TempDir(), "music")
		if err := runApp(runner, "open", "--output", dir); err != nil {
			t.Fatalf("open failed: %v", err)
		}
		if opened != dir {
			t.Errorf("expected %s to be opened, got %q", dir, opened)
		}
		tu.AssertFileExists(t, dir)
	})

	t.Run("Setup Config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner, _ := newTestRunner(t, "", RunnerOpts{})

		if err := runApp(runner, "setup", "config", "--config", path, "--client-id", "abc", "--client-secret", "def"); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}

		loaded, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load written config: %v", err)
		}
		if loaded.Credentials.Spotify.ClientID != "abc" || loaded.Credentials.Spotify.ClientSecret != "def" {
			t.Errorf("unexpected credentials %+v", loaded.Credentials.Spotify)
		}

		if err := runApp(runner, "setup", "config", "--config", path); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for existing file, got %v", err)
		}
		if err := runApp(runner, "setup", "config", "--config", path, "--force"); err != nil {
			t.Errorf("--force should overwrite: %v", err)
		}
	})

	t.Run("Setup Database", func(t *testing.T) {
		dir := t.TempDir()
		config := testConfig(t)
		config.Database.Path = filepath.Join(dir, "data", "history.db")
		runner, _ := newTestRunner(t, "", RunnerOpts{Config: config})

		if err := runApp(runner, "setup", "database", "--config", filepath.Join(dir, "missing.toml")); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)

		if err := runApp(runner, "setup", "database", "--config", filepath.Join(t.TempDir(), "missing.toml"), "--rollback"); err != nil {
			t.Errorf("rollback failed: %v", err)
		}
	})
}

func TestLinePrompter(t *testing.T) {
	out := &bytes.Buffer{}
	p := newLinePrompter(strings.NewReader("2\n\n  typed  \n"), out)

	idx, err := p.Select("Pick:", []string{"a", "b", "c"})
	if err != nil || idx != 1 {
		t.Errorf("Select() = %d, %v", idx, err)
	}
	if !strings.Contains(out.String(), "Enter choice (1-3): ") {
		t.Errorf("unexpected prompt %q", out.String())
	}

	if got, _ := p.Input("Name:", "default"); got != "default" {
		t.Errorf("empty line should use default, got %q", got)
	}
	if got, _ := p.Input("Name:", ""); got != "typed" {
		t.Errorf("expected trimmed input, got %q", got)
	}
	if got, err := p.Input("Name:", "x"); err != nil || got != "x" {
		t.Errorf("end of input should read as empty, got %q, %v", got, err)
	}
}
