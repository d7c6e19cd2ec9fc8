package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/playlistdl/internal/models"
	"github.com/desertthunder/playlistdl/internal/shared"
)

const downloadColumns = `id, sequence, batch_id, source_url, title, contributor, address, status, output_path, error_detail, created_at`

// DownloadRepository implements models.Repository[*models.DownloadRecord].
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new DownloadRepository with the given database connection
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Create validates rec, assigns its ID and sequence, and inserts it.
func (r *DownloadRepository) Create(rec *models.DownloadRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "downloads")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	rec.SetSequence(sequence)
	rec.SetID(shared.GenerateID())

	_, err = r.db.Exec(
		`INSERT INTO downloads (`+downloadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID(), rec.Sequence(), rec.BatchID(), rec.SourceURL(), rec.Title(), rec.Contributor(),
		rec.Address(), string(rec.Status()), rec.OutputPath(), rec.ErrorDetail(), rec.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert download: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (r *DownloadRepository) Get(id string) (*models.DownloadRecord, error) {
	row := r.db.QueryRow(`SELECT `+downloadColumns+` FROM downloads WHERE id = ?`, id)
	rec, err := scanDownload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: download %s", shared.ErrRecordNotFound, id)
	}
	return rec, err
}

// List retrieves records newest first.
//
// Supported criteria: "batch_id" (string), "status" (string), "limit" (int).
func (r *DownloadRepository) List(criteria map[string]any) ([]*models.DownloadRecord, error) {
	query := `SELECT ` + downloadColumns + ` FROM downloads WHERE 1 = 1`
	args := []any{}

	if batchID, ok := criteria["batch_id"].(string); ok && batchID != "" {
		query += " AND batch_id = ?"
		args = append(args, batchID)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var records []*models.DownloadRecord
	for rows.Next() {
		rec, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating downloads: %w", err)
	}
	return records, nil
}

// BatchSummary aggregates the rows of one batch.
type BatchSummary struct {
	BatchID   string
	SourceURL string
	Fetched   int
	NoMatch   int
	Failed    int
	StartedAt time.Time
}

// Total is the number of items recorded for the batch.
func (s BatchSummary) Total() int { return s.Fetched + s.NoMatch + s.Failed }

// Batches summarizes the most recent batches, newest first.
func (r *DownloadRepository) Batches(limit int) ([]BatchSummary, error) {
	query := `
		SELECT d.batch_id, d.source_url, s.fetched, s.no_match, s.failed, d.created_at
		FROM (
			SELECT batch_id,
				MIN(sequence) AS first,
				SUM(CASE WHEN status = 'fetched' THEN 1 ELSE 0 END) AS fetched,
				SUM(CASE WHEN status = 'no_match' THEN 1 ELSE 0 END) AS no_match,
				SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) AS failed
			FROM downloads
			GROUP BY batch_id
		) s
		JOIN downloads d ON d.sequence = s.first
		ORDER BY s.first DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var summaries []BatchSummary
	for rows.Next() {
		var s BatchSummary
		if err := rows.Scan(&s.BatchID, &s.SourceURL, &s.Fetched, &s.NoMatch, &s.Failed, &s.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Clear removes the records of batchID, or every record when batchID is empty.
// It returns the number of rows removed.
func (r *DownloadRepository) Clear(batchID string) (int64, error) {
	var (
		result sql.Result
		err    error
	)
	if batchID == "" {
		result, err = r.db.Exec("DELETE FROM downloads")
	} else {
		result, err = r.db.Exec("DELETE FROM downloads WHERE batch_id = ?", batchID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear downloads: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDownload(s scanner) (*models.DownloadRecord, error) {
	var (
		id, batchID, sourceURL, title, contributor string
		address, status, outputPath, errorDetail   string
		sequence                                   int
		createdAt                                  time.Time
	)

	err := s.Scan(&id, &sequence, &batchID, &sourceURL, &title, &contributor, &address, &status, &outputPath, &errorDetail, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan download: %w", err)
	}

	return models.RestoreDownloadRecord(
		id, sequence, batchID, sourceURL, title, contributor, address,
		models.OutcomeStatus(status), outputPath, errorDetail, createdAt,
	), nil
}
