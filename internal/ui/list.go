package ui

import (
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/playlistdl/internal/models"
	"github.com/samber/lo"
)

var _ list.Item = outcomeItem{}

// outcomeItem wraps [models.ItemOutcome] to implement [list.Item].
type outcomeItem struct {
	outcome models.ItemOutcome
}

func (i outcomeItem) FilterValue() string { return i.outcome.Item.Title }
func (i outcomeItem) Title() string       { return i.outcome.Item.String() }
func (i outcomeItem) Description() string {
	switch status := i.outcome.Status(); status {
	case models.StatusFetched:
		return styles.status("fetched • "+filepath.Base(i.outcome.OutputPath()), status)
	case models.StatusNoMatch:
		return styles.status("not found on YouTube", status)
	default:
		return styles.status("failed • "+i.outcome.Detail(), status)
	}
}

func outcomeItems(outcomes []models.ItemOutcome) []list.Item {
	return lo.Map(outcomes, func(o models.ItemOutcome, _ int) list.Item { return outcomeItem{outcome: o} })
}
