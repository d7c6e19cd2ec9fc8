package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playlistdl/internal/services"
	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/desertthunder/playlistdl/internal/tasks"
	"github.com/desertthunder/playlistdl/internal/ui"
	"github.com/urfave/cli/v3"
)

// Spotify downloads a Spotify playlist, album, or track.
func (r *Runner) Spotify(ctx context.Context, cmd *cli.Command) error {
	url := cmd.String("url")
	dest := r.outputDir(cmd)

	catalog, err := r.spotifyCatalog(cmd.String("client-id"), cmd.String("client-secret"))
	if err != nil {
		return err
	}

	result, err := r.runSpotify(ctx, catalog, url, dest, cmd.Bool("plain"))
	if err != nil {
		return err
	}
	return r.writeReport(result, cmd.String("report"))
}

// YouTube downloads a YouTube video or playlist.
func (r *Runner) YouTube(ctx context.Context, cmd *cli.Command) error {
	result, err := r.runYouTube(ctx, cmd.String("url"), r.outputDir(cmd), cmd.Bool("plain"))
	if err != nil {
		return err
	}
	return r.writeReport(result, cmd.String("report"))
}

// runSpotify downloads url, resolving through catalog when it is not nil.
func (r *Runner) runSpotify(ctx context.Context, catalog services.Catalog, url, dest string, plain bool) (*tasks.BatchResult, error) {
	route, err := tasks.ClassifySpotify(url)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("spotify download", "route", route, "url", url, "dest", dest)
	job := func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.BatchResult, error) {
		engine := r.engine
		if catalog != nil {
			engine = engine.WithCatalog(catalog)
		}
		return engine.DownloadSpotify(ctx, url, dest, progress)
	}
	return r.run(ctx, fmt.Sprintf("Downloading %s", route), job, plain)
}

func (r *Runner) runYouTube(ctx context.Context, url, dest string, plain bool) (*tasks.BatchResult, error) {
	route, err := tasks.ClassifyYouTube(url)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("youtube download", "route", route, "url", url, "dest", dest)
	job := func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.BatchResult, error) {
		return r.engine.DownloadYouTube(ctx, url, dest, progress)
	}
	return r.run(ctx, fmt.Sprintf("Downloading %s", route), job, plain)
}

// run executes job with the bubbletea monitor on a terminal, or line output otherwise.
func (r *Runner) run(ctx context.Context, title string, job ui.Job, plain bool) (*tasks.BatchResult, error) {
	r.ensureYTDLP(ctx)
	if r.interactive && !plain {
		return r.runMonitor(ctx, title, job)
	}
	return r.runPlain(ctx, job)
}

func (r *Runner) runMonitor(ctx context.Context, title string, job ui.Job) (*tasks.BatchResult, error) {
	// Redirect logs to file to avoid interfering with TUI rendering
	restore, err := r.logToFile()
	if err != nil {
		return nil, err
	}
	defer restore()

	model := ui.NewModel(ctx, title, job)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}
	return model.Result()
}

// runPlain prints progress line by line and keeps logs off the console.
func (r *Runner) runPlain(ctx context.Context, job ui.Job) (*tasks.BatchResult, error) {
	if r.config.Log.File != "" {
		restore, err := r.logToFile()
		if err != nil {
			return nil, err
		}
		defer restore()
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.renderUpdate(update)
		}
	}()

	result, err := job(ctx, progressCh)
	close(progressCh)
	<-done

	return result, err
}

// logToFile swaps the runner onto a logger writing to log.file at the current level.
// The returned func restores the previous logger and closes the file.
func (r *Runner) logToFile() (func(), error) {
	fileLogger, f, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}

	previous := r.logger
	shared.SetLogLevel(fileLogger, previous.GetLevel())
	r.SetLogger(fileLogger)

	return func() {
		r.SetLogger(previous)
		f.Close()
	}, nil
}

func (r *Runner) renderUpdate(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.SearchTrack:
		r.writePlainln("%s", update.Message)
	case tasks.FetchAudio:
		ev, ok := update.Data.(tasks.FetchEvent)
		if !ok {
			return
		}
		switch {
		case ev.Kind == tasks.FetchFinished:
			r.writePlainln("Download completed.")
		case ev.Kind == tasks.FetchProgress && ev.Known:
			r.writePlain("\rDownloading... %.2f%%", ev.Fraction*100)
		case ev.Kind == tasks.FetchProgress:
			r.writePlain("\rDownloading... %s", ev)
		}
	case tasks.ItemComplete:
		line := update.BatchLine()
		if update.Message != line {
			r.writePlain("%s\n", update.Message)
		}
		if update.Total > 1 {
			r.writePlain("%s\n", line)
		}
	case tasks.BatchComplete:
		result, ok := update.Data.(*tasks.BatchResult)
		if ok && result.Total() > 1 {
			r.writePlainln("All tracks downloaded.")
		}
		r.writePlain("%s\n", update.Message)
	}
}
