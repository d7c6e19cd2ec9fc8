package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/gosimple/slug"
	"github.com/kkdai/youtube/v2"
)

// NativeExtractor implements [Extractor] without an external binary by
// streaming audio-only formats straight from YouTube.
//
// It cannot transcode; requests with an AudioFormat fail with [shared.ErrNotImplemented].
type NativeExtractor struct {
	client *youtube.Client
}

// NewNativeExtractor creates an extractor using httpClient, or a default client when nil.
func NewNativeExtractor(httpClient *http.Client, headers *shared.RequestHeaders) *NativeExtractor {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if headers != nil {
		wrapped := *httpClient
		wrapped.Transport = headers.Transport(httpClient.Transport)
		httpClient = &wrapped
	}
	return &NativeExtractor{client: &youtube.Client{HTTPClient: httpClient}}
}

// Name returns the name of the backend.
func (x *NativeExtractor) Name() string { return "native" }

// Extract downloads a single video or, with req.Playlist, every playlist entry.
//
// Playlist entries that fail are skipped; the joined error is returned along with
// the files that did download.
func (x *NativeExtractor) Extract(ctx context.Context, req ExtractRequest, onProgress func(ExtractProgress)) (*ExtractResult, error) {
	if req.AudioFormat != "" {
		return nil, fmt.Errorf("%w: native backend cannot convert to %s", shared.ErrNotImplemented, req.AudioFormat)
	}

	if !req.Playlist {
		video, err := x.client.GetVideoContext(ctx, req.Address)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrExtractionFailed, err)
		}
		path, err := x.download(ctx, video, req.OutputDir, onProgress)
		if err != nil {
			return nil, err
		}
		return &ExtractResult{Files: []string{path}}, nil
	}

	playlist, err := x.client.GetPlaylistContext(ctx, req.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrExtractionFailed, err)
	}

	result := &ExtractResult{}
	var errs []error
	for _, entry := range playlist.Videos {
		if entry == nil || entry.ID == "" {
			continue
		}
		video, err := x.client.VideoFromPlaylistEntryContext(ctx, entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.Title, err))
			continue
		}
		path, err := x.download(ctx, video, req.OutputDir, onProgress)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", video.Title, err))
			continue
		}
		result.Files = append(result.Files, path)
	}

	if len(errs) > 0 {
		return result, fmt.Errorf("%w: %w", shared.ErrExtractionFailed, errors.Join(errs...))
	}
	return result, nil
}

func (x *NativeExtractor) download(ctx context.Context, video *youtube.Video, dir string, onProgress func(ExtractProgress)) (string, error) {
	format := pickAudioFormat(video.Formats)
	if format == nil {
		return "", fmt.Errorf("%w: no audio formats for %s", shared.ErrExtractionFailed, video.ID)
	}

	name := slug.Make(video.Title)
	if name == "" {
		name = video.ID
	}
	path := filepath.Join(dir, name+"."+mimeExt(format.MimeType))

	stream, size, err := x.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrExtractionFailed, err)
	}
	defer stream.Close()

	partial := path + ".part"
	f, err := os.Create(partial)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Base(partial), err)
	}

	pw := &progressWriter{total: size, title: video.Title, filename: path, onProgress: onProgress}
	_, copyErr := io.Copy(io.MultiWriter(f, pw), stream)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(partial)
		return "", fmt.Errorf("%w: %w", shared.ErrExtractionFailed, err)
	}

	if err := os.Rename(partial, path); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", filepath.Base(path), err)
	}

	report(onProgress, ExtractProgress{Status: ExtractFinished, Downloaded: pw.written, Total: size, Filename: path, Title: video.Title})
	return path, nil
}

// pickAudioFormat prefers audio-only formats, then any format carrying audio, highest bitrate first.
func pickAudioFormat(formats youtube.FormatList) *youtube.Format {
	var best, fallback *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 {
			continue
		}
		if f.Width == 0 && f.Height == 0 && strings.HasPrefix(f.MimeType, "audio/") {
			if best == nil || f.Bitrate > best.Bitrate {
				best = f
			}
			continue
		}
		if fallback == nil || f.Bitrate > fallback.Bitrate {
			fallback = f
		}
	}
	if best != nil {
		return best
	}
	return fallback
}

// mimeExt maps a format mime type such as `audio/webm; codecs="opus"` to a file extension.
func mimeExt(mime string) string {
	base, _, _ := strings.Cut(mime, ";")
	kind, sub, ok := strings.Cut(strings.TrimSpace(base), "/")
	if !ok || sub == "" {
		return "bin"
	}
	if kind == "audio" && sub == "mp4" {
		return "m4a"
	}
	return sub
}

type progressWriter struct {
	written    int64
	total      int64
	title      string
	filename   string
	onProgress func(ExtractProgress)
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	report(w.onProgress, ExtractProgress{
		Status:     ExtractDownloading,
		Downloaded: w.written,
		Total:      w.total,
		Filename:   w.filename,
		Title:      w.title,
	})
	return len(p), nil
}
