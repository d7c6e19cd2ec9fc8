package gui

import (
	"errors"
	"testing"

	"github.com/desertthunder/playlistdl/internal/models"
	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/desertthunder/playlistdl/internal/tasks"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"No Service", Request{URL: "https://youtu.be/x"}, shared.ErrInvalidChoice},
		{"Spotify Missing Secret", Request{Service: ServiceSpotify, URL: "https://open.spotify.com/track/x", ClientID: "id"}, shared.ErrMissingCredentials},
		{"Spotify Empty URL", Request{Service: ServiceSpotify, ClientID: "id", ClientSecret: "s"}, shared.ErrEmptyURL},
		{"Spotify Invalid URL", Request{Service: ServiceSpotify, URL: "https://example.com", ClientID: "id", ClientSecret: "s"}, shared.ErrInvalidURL},
		{"YouTube Empty URL", Request{Service: ServiceYouTube}, shared.ErrEmptyURL},
		{"YouTube Invalid URL", Request{Service: ServiceYouTube, URL: "https://vimeo.com/1"}, shared.ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateRequest(tt.req); !errors.Is(err, tt.want) {
				t.Errorf("validateRequest() = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("Valid", func(t *testing.T) {
		valid := []Request{
			{Service: ServiceSpotify, URL: "https://open.spotify.com/playlist/x", ClientID: "id", ClientSecret: "s"},
			{Service: ServiceYouTube, URL: "https://www.youtube.com/watch?v=x"},
			{Service: ServiceYouTube, URL: "https://www.youtube.com/playlist?list=PL"},
		}
		for _, req := range valid {
			if err := validateRequest(req); err != nil {
				t.Errorf("validateRequest(%+v) = %v", req, err)
			}
		}
	})
}

func TestCompletionMessage(t *testing.T) {
	fetched := models.Fetched("downloads/a.mp3")
	failed := models.FetchFailed(errors.New("HTTP Error 403"))

	t.Run("Error", func(t *testing.T) {
		if got := completionMessage(nil, errors.New("invalid_client")); got != "Error: invalid_client" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("Batch Summary", func(t *testing.T) {
		result := &tasks.BatchResult{Directory: "downloads", Outcomes: []models.ItemOutcome{
			{Match: models.Located("a"), Fetch: &fetched},
			{},
		}}
		if got := completionMessage(result, nil); got != "Downloaded 1 of 2 tracks to downloads" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("Single Failure", func(t *testing.T) {
		result := &tasks.BatchResult{Outcomes: []models.ItemOutcome{{Match: models.Located("a"), Fetch: &failed}}}
		if got := completionMessage(result, nil); got != "Error: HTTP Error 403" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("Single Miss", func(t *testing.T) {
		result := &tasks.BatchResult{Outcomes: []models.ItemOutcome{{Item: models.CatalogItem{Title: "A", Contributor: "B"}}}}
		if got := completionMessage(result, nil); got != "Could not find: A by B on YouTube" {
			t.Errorf("got %q", got)
		}
	})
}

func TestCredentialsVisible(t *testing.T) {
	if !credentialsVisible(ServiceSpotify) {
		t.Error("credentials should show for Spotify")
	}
	if credentialsVisible(ServiceYouTube) || credentialsVisible("") {
		t.Error("credentials should be hidden otherwise")
	}
}

func TestStatusText(t *testing.T) {
	update := tasks.ProgressUpdate{Phase: tasks.FetchAudio, Step: 2, Total: 4, Message: "50%"}
	if got := statusText(update); got != "50% (2/4)" {
		t.Errorf("got %q", got)
	}

	update = tasks.ProgressUpdate{Phase: tasks.ItemComplete, Step: 2, Total: 4, Message: "Progress: 2/4 tracks downloaded."}
	if got := statusText(update); got != update.Message {
		t.Errorf("got %q", got)
	}
}
