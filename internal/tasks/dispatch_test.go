package tasks

import (
	"errors"
	"testing"

	"github.com/desertthunder/playlistdl/internal/shared"
)

func TestClassifySpotify(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Route
	}{
		{"Playlist", "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", SpotifyPlaylist},
		{"Track", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", SpotifyTrack},
		{"Album", "https://open.spotify.com/album/1DFixLWuPkv3KT3TnV35m3", SpotifyAlbum},
		{"Playlist Wins Over Track", "https://open.spotify.com/playlist/x?from=track", SpotifyPlaylist},
		{"Track Wins Over Album", "https://open.spotify.com/track/x?context=album", SpotifyTrack},
		{"Surrounding Space", "  https://open.spotify.com/track/x  ", SpotifyTrack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifySpotify(tt.url)
			if err != nil {
				t.Fatalf("ClassifySpotify() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ClassifySpotify() = %s, want %s", got, tt.want)
			}
		})
	}

	t.Run("Empty", func(t *testing.T) {
		if _, err := ClassifySpotify("   "); !errors.Is(err, shared.ErrEmptyURL) {
			t.Errorf("expected ErrEmptyURL, got %v", err)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		if _, err := ClassifySpotify("https://open.spotify.com/show/abc"); !errors.Is(err, shared.ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL, got %v", err)
		}
	})
}

func TestClassifyYouTube(t *testing.T) {
	tests := []struct {
		url  string
		want Route
	}{
		{"https://www.youtube.com/playlist?list=PL123", YouTubePlaylist},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", YouTubeVideo},
		{"https://youtu.be/dQw4w9WgXcQ", YouTubeVideo},
		{"https://music.youtube.com/watch?v=abc", YouTubeVideo},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := ClassifyYouTube(tt.url)
			if err != nil || got != tt.want {
				t.Errorf("ClassifyYouTube() = %s, %v; want %s", got, err, tt.want)
			}
		})
	}

	if _, err := ClassifyYouTube(""); !errors.Is(err, shared.ErrEmptyURL) {
		t.Errorf("expected ErrEmptyURL, got %v", err)
	}
	if _, err := ClassifyYouTube("https://example.com/video"); !errors.Is(err, shared.ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
}

func TestRouteBatch(t *testing.T) {
	if SpotifyTrack.Batch() || YouTubeVideo.Batch() {
		t.Error("single routes should not be batches")
	}
	if !SpotifyPlaylist.Batch() || !SpotifyAlbum.Batch() || !YouTubePlaylist.Batch() {
		t.Error("collection routes should be batches")
	}
}
