package repositories

import (
	"fmt"

	"github.com/desertthunder/playlistdl/internal/models"
)

// HistoryAdapter records pipeline outcomes through a [DownloadRepository].
type HistoryAdapter struct {
	repo *DownloadRepository
}

// NewHistoryAdapter creates a new HistoryAdapter with the given repository
func NewHistoryAdapter(repo *DownloadRepository) *HistoryAdapter {
	return &HistoryAdapter{repo: repo}
}

// Record persists one item outcome of batchID.
func (a *HistoryAdapter) Record(batchID, sourceURL string, outcome models.ItemOutcome) error {
	if err := a.repo.Create(models.NewDownloadRecord(batchID, sourceURL, outcome)); err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	return nil
}
