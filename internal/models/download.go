package models

import (
	"errors"
	"time"
)

// DownloadRecord is the persisted form of an [ItemOutcome].
type DownloadRecord struct {
	id          string
	sequence    int
	batchID     string
	sourceURL   string
	title       string
	contributor string
	address     string
	status      OutcomeStatus
	outputPath  string
	errorDetail string
	createdAt   time.Time
}

// NewDownloadRecord builds an unsaved record for outcome within batchID.
func NewDownloadRecord(batchID, sourceURL string, outcome ItemOutcome) *DownloadRecord {
	return &DownloadRecord{
		batchID:     batchID,
		sourceURL:   sourceURL,
		title:       outcome.Item.Title,
		contributor: outcome.Item.Contributor,
		address:     outcome.Match.Address,
		status:      outcome.Status(),
		outputPath:  outcome.OutputPath(),
		errorDetail: outcome.Detail(),
		createdAt:   time.Now().UTC(),
	}
}

// RestoreDownloadRecord rebuilds a record read from storage.
func RestoreDownloadRecord(
	id string, sequence int, batchID, sourceURL, title, contributor, address string,
	status OutcomeStatus, outputPath, errorDetail string, createdAt time.Time,
) *DownloadRecord {
	return &DownloadRecord{
		id: id, sequence: sequence, batchID: batchID, sourceURL: sourceURL,
		title: title, contributor: contributor, address: address, status: status,
		outputPath: outputPath, errorDetail: errorDetail, createdAt: createdAt,
	}
}

func (r *DownloadRecord) ID() string {
	return r.id
}

func (r *DownloadRecord) Sequence() int {
	return r.sequence
}

func (r *DownloadRecord) BatchID() string {
	return r.batchID
}

func (r *DownloadRecord) SourceURL() string {
	return r.sourceURL
}

func (r *DownloadRecord) Title() string {
	return r.title
}

func (r *DownloadRecord) Contributor() string {
	return r.contributor
}

func (r *DownloadRecord) Address() string {
	return r.address
}

func (r *DownloadRecord) Status() OutcomeStatus {
	return r.status
}

func (r *DownloadRecord) OutputPath() string {
	return r.outputPath
}

func (r *DownloadRecord) ErrorDetail() string {
	return r.errorDetail
}

func (r *DownloadRecord) CreatedAt() time.Time {
	return r.createdAt
}

func (r *DownloadRecord) SetID(id string) {
	r.id = id
}

func (r *DownloadRecord) SetSequence(seq int) {
	r.sequence = seq
}

// Validate checks required fields before the record is written.
func (r *DownloadRecord) Validate() error {
	if r.batchID == "" {
		return errors.New("batch id is required")
	}
	if r.title == "" {
		return errors.New("title is required")
	}
	if _, err := ParseOutcomeStatus(string(r.status)); err != nil {
		return err
	}
	return nil
}
