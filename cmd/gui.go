package main

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2/app"
	"github.com/desertthunder/playlistdl/internal/gui"
	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/desertthunder/playlistdl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// guiBackend adapts the runner to [gui.Backend].
type guiBackend struct {
	r *Runner
}

func (b guiBackend) Download(ctx context.Context, req gui.Request, progress chan<- tasks.ProgressUpdate) (*tasks.BatchResult, error) {
	b.r.ensureYTDLP(ctx)
	dest := b.r.config.Downloads.Directory

	switch req.Service {
	case gui.ServiceSpotify:
		catalog, err := b.r.spotifyCatalog(req.ClientID, req.ClientSecret)
		if err != nil {
			return nil, err
		}
		return b.r.engine.WithCatalog(catalog).DownloadSpotify(ctx, req.URL, dest, progress)
	case gui.ServiceYouTube:
		return b.r.engine.DownloadYouTube(ctx, req.URL, dest, progress)
	}
	return nil, fmt.Errorf("%w: %q", shared.ErrInvalidChoice, req.Service)
}

func (b guiBackend) OpenFolder() error {
	dir := b.r.config.Downloads.Directory
	if err := shared.EnsureDir(dir); err != nil {
		return err
	}
	return b.r.openFolder(dir)
}

func (b guiBackend) Directory() string { return b.r.config.Downloads.Directory }

// GUI opens the desktop window.
func (r *Runner) GUI(ctx context.Context, cmd *cli.Command) error {
	restore, err := r.logToFile()
	if err != nil {
		return err
	}
	defer restore()

	creds := r.config.Credentials.Spotify
	defaults := gui.Request{ClientID: creds.ClientID, ClientSecret: creds.ClientSecret}

	a := app.NewWithID(gui.AppID)
	gui.NewWindow(ctx, a, guiBackend{r}, defaults, r.logger).ShowAndRun()
	return nil
}

// Open opens the download directory in the system file manager.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	dir := r.outputDir(cmd)
	if err := shared.EnsureDir(dir); err != nil {
		return err
	}

	r.logger.Debug("opening folder", "dir", dir)
	return r.openFolder(dir)
}
