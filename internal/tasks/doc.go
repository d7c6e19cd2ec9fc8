// Package tasks runs the resolve, search, and fetch pipeline.
//
// # Components
//
//   - [MatchFinder] turns a catalog item into the address of the top search result.
//   - [Fetcher] downloads one address into a directory and normalizes the file extension.
//   - [PipelineEngine] composes them: it resolves a URL, walks the items strictly in
//     order, and records one [models.ItemOutcome] per item. A miss or a failed fetch
//     never stops the batch.
//
// # Routing
//
// [ClassifySpotify] and [ClassifyYouTube] map a URL onto a [Route] before any
// network call is made. Both presentation layers use them.
//
// # Progress Reporting
//
// Operations report on a ProgressUpdate channel. High-frequency fetch progress is
// sent without blocking and may be dropped when the reader falls behind;
// item and batch completions are always delivered unless the context ends.
//
// # History
//
// The optional [HistoryRecorder] receives every outcome. Recorder errors are
// logged and never affect the batch.
package tasks
