package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/playlistdl/internal/models"
	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// SpotifyService implements [Catalog] for Spotify tracks, playlists, and albums.
type SpotifyService struct {
	client *spotify.Client
}

type spotifyOptions struct {
	baseURL    string
	tokenURL   string
	httpClient *http.Client
}

// SpotifyOption customizes [NewSpotifyService].
type SpotifyOption func(*spotifyOptions)

// WithSpotifyBaseURL points the API client at url instead of api.spotify.com.
func WithSpotifyBaseURL(url string) SpotifyOption {
	return func(o *spotifyOptions) { o.baseURL = url }
}

// WithSpotifyTokenURL overrides the accounts service token endpoint.
func WithSpotifyTokenURL(url string) SpotifyOption {
	return func(o *spotifyOptions) { o.tokenURL = url }
}

// WithSpotifyHTTPClient sets the transport used for both token and API requests.
func WithSpotifyHTTPClient(c *http.Client) SpotifyOption {
	return func(o *spotifyOptions) { o.httpClient = c }
}

// NewSpotifyService creates a service from "client_id" and "client_secret" credentials.
//
// No request is made here; the first API call fetches a token, which is then
// cached and refreshed by the oauth2 token source.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID := strings.TrimSpace(credentials["client_id"])
	clientSecret := strings.TrimSpace(credentials["client_secret"])
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	o := spotifyOptions{tokenURL: spotifyauth.TokenURL}
	for _, opt := range opts {
		opt(&o)
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     o.tokenURL,
	}

	ctx := context.Background()
	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}

	var clientOpts []spotify.ClientOption
	if o.baseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(strings.TrimSuffix(o.baseURL, "/")+"/"))
	}

	return &SpotifyService{client: spotify.New(config.Client(ctx), clientOpts...)}, nil
}

// Name returns the name of the service.
func (s *SpotifyService) Name() string { return "Spotify" }

// ExtractID returns the identifier of a catalog locator: the last path segment
// with any query string removed. The identifier is not validated.
//
// Spotify URIs ("spotify:track:<id>") yield the segment after the last colon.
func ExtractID(locator string) string {
	if strings.HasPrefix(locator, "spotify:") {
		return locator[strings.LastIndex(locator, ":")+1:]
	}

	segments := strings.Split(locator, "/")
	id, _, _ := strings.Cut(segments[len(segments)-1], "?")
	return id
}

// ResolveSingle fetches the track named by url.
func (s *SpotifyService) ResolveSingle(ctx context.Context, url string) (models.CatalogItem, error) {
	track, err := s.client.GetTrack(ctx, spotify.ID(ExtractID(url)))
	if err != nil {
		return models.CatalogItem{}, err
	}
	return itemFromTrack(track.SimpleTrack), nil
}

// ResolveMany fetches every track of the playlist or album named by url, following pagination.
//
// Playlist entries without a track object (podcast episodes) are skipped.
func (s *SpotifyService) ResolveMany(ctx context.Context, url string) ([]models.CatalogItem, error) {
	id := spotify.ID(ExtractID(url))
	if strings.Contains(url, "album") {
		return s.albumItems(ctx, id)
	}
	return s.playlistItems(ctx, id)
}

func (s *SpotifyService) playlistItems(ctx context.Context, id spotify.ID) ([]models.CatalogItem, error) {
	page, err := s.client.GetPlaylistItems(ctx, id)
	if err != nil {
		return nil, err
	}

	var items []models.CatalogItem
	for {
		for _, entry := range page.Items {
			if entry.Track.Track == nil {
				continue
			}
			items = append(items, itemFromTrack(entry.Track.Track.SimpleTrack))
		}

		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			return items, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (s *SpotifyService) albumItems(ctx context.Context, id spotify.ID) ([]models.CatalogItem, error) {
	page, err := s.client.GetAlbumTracks(ctx, id)
	if err != nil {
		return nil, err
	}

	var items []models.CatalogItem
	for {
		for _, track := range page.Tracks {
			items = append(items, itemFromTrack(track))
		}

		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			return items, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func itemFromTrack(t spotify.SimpleTrack) models.CatalogItem {
	item := models.CatalogItem{Title: t.Name}
	if len(t.Artists) > 0 {
		item.Contributor = t.Artists[0].Name
	}
	return item
}
