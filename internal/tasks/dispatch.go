package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/playlistdl/internal/shared"
)

// Route is the download path a URL selects.
type Route int

const (
	SpotifyPlaylist Route = iota
	SpotifyTrack
	SpotifyAlbum
	YouTubePlaylist
	YouTubeVideo
)

func (r Route) String() string {
	switch r {
	case SpotifyPlaylist:
		return "Spotify playlist"
	case SpotifyTrack:
		return "Spotify track"
	case SpotifyAlbum:
		return "Spotify album"
	case YouTubePlaylist:
		return "YouTube playlist"
	case YouTubeVideo:
		return "YouTube video"
	default:
		return "unknown"
	}
}

// Batch reports whether the route resolves to more than one item.
func (r Route) Batch() bool {
	return r == SpotifyPlaylist || r == SpotifyAlbum || r == YouTubePlaylist
}

// ClassifySpotify picks the route for a Spotify URL by substring, checking
// "playlist" before "track" before "album".
func ClassifySpotify(url string) (Route, error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "":
		return 0, shared.ErrEmptyURL
	case strings.Contains(url, "playlist"):
		return SpotifyPlaylist, nil
	case strings.Contains(url, "track"):
		return SpotifyTrack, nil
	case strings.Contains(url, "album"):
		return SpotifyAlbum, nil
	default:
		return 0, fmt.Errorf("%w: not a Spotify playlist, track, or album: %s", shared.ErrInvalidURL, url)
	}
}

// ClassifyYouTube picks the route for a YouTube URL by substring.
func ClassifyYouTube(url string) (Route, error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "":
		return 0, shared.ErrEmptyURL
	case strings.Contains(url, "playlist"):
		return YouTubePlaylist, nil
	case strings.Contains(url, "youtube.com"), strings.Contains(url, "youtu.be"):
		return YouTubeVideo, nil
	default:
		return 0, fmt.Errorf("%w: not a YouTube video or playlist: %s", shared.ErrInvalidURL, url)
	}
}
