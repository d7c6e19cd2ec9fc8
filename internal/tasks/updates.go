package tasks

import (
	"fmt"

	"github.com/desertthunder/playlistdl/internal/models"
)

// ProgressUpdate represents a progress event during a download run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current item number, 1-based
	Total   int    // Total items in the batch
	Message string // Human-readable message for display
	Data    any    // Phase-specific payload, see [Phase]
}

// Progress returns the batch counters carried by the update.
func (u ProgressUpdate) Progress() models.BatchProgress {
	return models.BatchProgress{Completed: u.Step, Total: u.Total}
}

// BatchLine is the batch counter line printed after every item of a batch.
func (u ProgressUpdate) BatchLine() string {
	return fmt.Sprintf("Progress: %d/%d tracks downloaded.", u.Step, u.Total)
}

// Phase enumerates the stages of a run. Data carries:
//   - SearchTrack: models.CatalogItem
//   - FetchAudio: FetchEvent
//   - ItemComplete: models.ItemOutcome
//   - BatchComplete: *BatchResult
type Phase int

const (
	ResolveSource Phase = iota
	SearchTrack
	FetchAudio
	ItemComplete
	BatchComplete
)

func (p Phase) String() string {
	switch p {
	case ResolveSource:
		return "resolve_source"
	case SearchTrack:
		return "search_track"
	case FetchAudio:
		return "fetch_audio"
	case ItemComplete:
		return "item_complete"
	case BatchComplete:
		return "batch_complete"
	default:
		return ""
	}
}

func resolveUpdate(url string, route Route) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveSource,
		Message: fmt.Sprintf("Resolving %s: %s", route, url),
	}
}

func searchUpdate(step, total int, item models.CatalogItem) ProgressUpdate {
	msg := fmt.Sprintf("Downloading: %d/%d - %s", step, total, item)
	if total == 1 {
		msg = fmt.Sprintf("Downloading: %s", item)
	}

	return ProgressUpdate{
		Phase:   SearchTrack,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    item,
	}
}

func fetchUpdate(step, total int, ev FetchEvent) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAudio,
		Step:    step,
		Total:   total,
		Message: ev.String(),
		Data:    ev,
	}
}

// itemCompleteUpdate carries the outcome line for misses and failures. Fetched
// items carry only the batch counter, see [ProgressUpdate.BatchLine].
func itemCompleteUpdate(step, total int, outcome models.ItemOutcome) ProgressUpdate {
	update := ProgressUpdate{
		Phase: ItemComplete,
		Step:  step,
		Total: total,
		Data:  outcome,
	}

	switch outcome.Status() {
	case models.StatusNoMatch:
		update.Message = fmt.Sprintf("Could not find: %s on YouTube", outcome.Item)
	case models.StatusFailed:
		update.Message = fmt.Sprintf("Could not download: %s: %s", outcome.Item, outcome.Detail())
	default:
		update.Message = update.BatchLine()
	}
	return update
}

func batchCompleteUpdate(result *BatchResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchComplete,
		Step:    result.Total(),
		Total:   result.Total(),
		Message: result.Summary(),
		Data:    result,
	}
}
