// Package models defines the values that flow through a download run.
//
// Transient pipeline values:
//   - [CatalogItem] : a (title, contributor) pair resolved from a catalog URL
//   - [MatchResult] : the located video address for an item, or not found
//   - [FetchOutcome] : the terminal result of one fetch attempt
//   - [ItemOutcome] : what happened to one item of a batch
//   - [BatchProgress] : completed/total counts surfaced after each item
//
// Persistent entities:
//   - [DownloadRecord] : one history row per item outcome
//
// Persistent entities implement [Model]; [Repository] describes their storage.
package models
