// Package repositories persists the download history in SQLite.
//
// [DownloadRepository] implements models.Repository for [models.DownloadRecord]
// and [HistoryAdapter] plugs it into the pipeline as its outcome recorder.
package repositories
