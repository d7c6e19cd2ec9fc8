// Package services wraps the external collaborators of a download run.
//
// # Catalog
//
// [SpotifyService] implements [Catalog]. It authenticates with the OAuth2
// client-credentials flow; the token is fetched lazily and reused for the life
// of the service.
//
// # Search
//
// [YouTubeSearch] implements [Searcher] with yt-dlp's "ytsearchN:" extractor,
// printing one id and title per line without downloading anything.
//
// # Extraction
//
// Two [Extractor] backends fetch audio:
//   - [YTDLPExtractor] drives the yt-dlp binary through go-ytdlp and reports its
//     progress callbacks.
//   - [NativeExtractor] resolves and streams audio-only formats in-process.
//
// Both translate their progress into [ExtractProgress] values.
package services
