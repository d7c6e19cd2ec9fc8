// Package ui implements the terminal download monitor using bubbletea's Elm architecture.
//
// The monitor has two views:
//  1. [RunningView] : spinner, overall progress bar, and the latest per-item messages
//  2. [ResultView] : batch summary and a browsable list of item outcomes
//
// The [Model] runs a [Job] on one goroutine and consumes its [tasks.ProgressUpdate] channel
// through waitForProgress, one message per update. The job's result arrives as a single
// completion message after the channel closes. Pressing ctrl+c or esc while running
// cancels the job's context; the batch then finishes with whatever items completed.
package ui
