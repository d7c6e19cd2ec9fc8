// Package gui is the desktop front-end: a single fyne form that runs one download at a time
// on a worker goroutine and reports completion in an information dialog.
package gui

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistdl/internal/models"
	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/desertthunder/playlistdl/internal/tasks"
)

const (
	AppID = "com.desertthunder.playlistdl"

	WindowWidth  = 520
	WindowHeight = 360

	ServiceSpotify = "Spotify"
	ServiceYouTube = "YouTube"

	servicePlaceholder = "Select a service"
)

// Request is what the form collected for one download.
type Request struct {
	Service      string
	URL          string
	ClientID     string
	ClientSecret string
}

// Backend performs the work behind the form.
type Backend interface {
	// Download runs one batch, reporting through progress. It must not close progress.
	Download(ctx context.Context, req Request, progress chan<- tasks.ProgressUpdate) (*tasks.BatchResult, error)
	OpenFolder() error
	Directory() string
}

// Window holds the form widgets and the single-flight guard.
type Window struct {
	ctx     context.Context
	window  fyne.Window
	backend Backend
	logger  *log.Logger

	service     *widget.Select
	url         *widget.Entry
	clientID    *widget.Entry
	secret      *widget.Entry
	credentials *fyne.Container
	download    *widget.Button
	open        *widget.Button
	status      *widget.Label

	running atomic.Bool
}

// NewWindow builds the form on app. defaults pre-fills the credential entries.
func NewWindow(ctx context.Context, app fyne.App, backend Backend, defaults Request, logger *log.Logger) *Window {
	w := &Window{
		ctx:     ctx,
		window:  app.NewWindow("Playlist Downloader"),
		backend: backend,
		logger:  logger,
	}

	w.url = widget.NewEntry()
	w.url.SetPlaceHolder("https://open.spotify.com/playlist/...")

	w.clientID = widget.NewEntry()
	w.clientID.SetText(defaults.ClientID)
	w.secret = widget.NewPasswordEntry()
	w.secret.SetText(defaults.ClientSecret)
	w.credentials = container.NewVBox(widget.NewForm(
		widget.NewFormItem("Client ID", w.clientID),
		widget.NewFormItem("Client Secret", w.secret),
	))
	w.credentials.Hide()

	w.service = widget.NewSelect([]string{ServiceSpotify, ServiceYouTube}, w.onServiceChanged)
	w.service.PlaceHolder = servicePlaceholder
	if defaults.Service != "" {
		w.service.SetSelected(defaults.Service)
	}

	w.download = widget.NewButtonWithIcon("Download", theme.DownloadIcon(), w.onDownload)
	w.download.Importance = widget.HighImportance
	w.open = widget.NewButtonWithIcon("Open download folder", theme.FolderOpenIcon(), w.onOpenFolder)

	w.status = widget.NewLabel(fmt.Sprintf("Files are saved to %s", backend.Directory()))
	w.status.Wrapping = fyne.TextWrapWord

	form := widget.NewForm(
		widget.NewFormItem("Service", w.service),
		widget.NewFormItem("URL", w.url),
	)
	content := container.NewVBox(
		form,
		w.credentials,
		container.NewHBox(w.download, w.open),
		widget.NewSeparator(),
		w.status,
	)

	w.window.SetContent(container.NewPadded(content))
	w.window.Resize(fyne.NewSize(WindowWidth, WindowHeight))
	return w
}

// ShowAndRun shows the window and blocks until the app quits.
func (w *Window) ShowAndRun() {
	w.window.ShowAndRun()
}

func (w *Window) onServiceChanged(service string) {
	if credentialsVisible(service) {
		w.credentials.Show()
		w.url.SetPlaceHolder("https://open.spotify.com/playlist/...")
	} else {
		w.credentials.Hide()
		w.url.SetPlaceHolder("https://www.youtube.com/watch?v=...")
	}
}

func (w *Window) request() Request {
	return Request{
		Service:      w.service.Selected,
		URL:          strings.TrimSpace(w.url.Text),
		ClientID:     strings.TrimSpace(w.clientID.Text),
		ClientSecret: strings.TrimSpace(w.secret.Text),
	}
}

func (w *Window) onDownload() {
	req := w.request()
	if err := validateRequest(req); err != nil {
		dialog.ShowInformation("Download", completionMessage(nil, err), w.window)
		return
	}

	if !w.running.CompareAndSwap(false, true) {
		w.status.SetText(shared.ErrBusy.Error())
		return
	}

	w.download.Disable()
	w.status.SetText("Starting download...")
	w.logger.Info("download requested", "service", req.Service, "url", req.URL)
	go w.run(req)
}

// run executes on the worker goroutine. Widgets are only touched through fyne.Do.
func (w *Window) run(req Request) {
	var message string
	defer func() {
		if r := recover(); r != nil {
			message = completionMessage(nil, fmt.Errorf("%v", r))
		}
		fyne.Do(func() {
			w.running.Store(false)
			w.download.Enable()
			w.status.SetText(message)
			dialog.ShowInformation("Download", message, w.window)
		})
	}()

	progress := make(chan tasks.ProgressUpdate, 50)
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for update := range progress {
			if text := statusText(update); text != "" {
				fyne.Do(func() { w.status.SetText(text) })
			}
		}
	}()

	result, err := w.backend.Download(w.ctx, req, progress)
	close(progress)
	<-forwarded

	if err != nil {
		w.logger.Error("download failed", "url", req.URL, "err", err)
	}
	message = completionMessage(result, err)
}

func (w *Window) onOpenFolder() {
	if err := w.backend.OpenFolder(); err != nil {
		w.logger.Warn("failed to open folder", "err", err)
		dialog.ShowError(err, w.window)
	}
}

// credentialsVisible reports whether the Spotify credential entries apply to service.
func credentialsVisible(service string) bool {
	return service == ServiceSpotify
}

// validateRequest rejects input errors before any network call.
func validateRequest(req Request) error {
	switch req.Service {
	case ServiceSpotify:
		if req.ClientID == "" || req.ClientSecret == "" {
			return fmt.Errorf("%w: Please provide both Client ID and Client Secret", shared.ErrMissingCredentials)
		}
		_, err := tasks.ClassifySpotify(req.URL)
		return err
	case ServiceYouTube:
		_, err := tasks.ClassifyYouTube(req.URL)
		return err
	default:
		return fmt.Errorf("%w: Please select a service", shared.ErrInvalidChoice)
	}
}

// completionMessage is the text of the final dialog.
func completionMessage(result *tasks.BatchResult, err error) string {
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	if result == nil {
		return "Error: no result"
	}
	if result.Total() == 1 && result.Count(models.StatusFetched) == 0 {
		outcome := result.Outcomes[0]
		if detail := outcome.Detail(); detail != "" {
			return fmt.Sprintf("Error: %s", detail)
		}
		return fmt.Sprintf("Could not find: %s on YouTube", outcome.Item)
	}
	return result.Summary()
}

// statusText picks the progress updates worth showing in the status label.
func statusText(update tasks.ProgressUpdate) string {
	if update.Phase == tasks.FetchAudio && update.Total > 1 {
		return fmt.Sprintf("%s (%d/%d)", update.Message, update.Step, update.Total)
	}
	return update.Message
}
