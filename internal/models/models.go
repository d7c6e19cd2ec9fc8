package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the data access operations the history store supports.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// CatalogItem is one track as reported by the catalog service.
// Duplicates are possible and are not collapsed.
type CatalogItem struct {
	Title       string `json:"title" yaml:"title"`
	Contributor string `json:"contributor" yaml:"contributor"`
}

// Query is the search string for the item: title and contributor joined by one space.
func (c CatalogItem) Query() string {
	return c.Title + " " + c.Contributor
}

func (c CatalogItem) String() string {
	if c.Contributor == "" {
		return c.Title
	}
	return fmt.Sprintf("%s by %s", c.Title, c.Contributor)
}

// MatchResult is the top search candidate for an item.
//
// Found is false when the search returned nothing; Error is set when the search itself failed.
type MatchResult struct {
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	Found   bool   `json:"found" yaml:"found"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NotFound is the MatchResult for an empty search.
func NotFound() MatchResult { return MatchResult{} }

// Located is the MatchResult for a search whose first candidate is address.
func Located(address string) MatchResult { return MatchResult{Address: address, Found: true} }

// FetchOutcome is the terminal result of one fetch attempt.
type FetchOutcome struct {
	Succeeded   bool   `json:"succeeded" yaml:"succeeded"`
	OutputPath  string `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	ErrorDetail string `json:"error_detail,omitempty" yaml:"error_detail,omitempty"`
}

// Fetched builds a successful outcome.
func Fetched(path string) FetchOutcome { return FetchOutcome{Succeeded: true, OutputPath: path} }

// FetchFailed builds a failed outcome from err.
func FetchFailed(err error) FetchOutcome {
	return FetchOutcome{ErrorDetail: err.Error()}
}

// BatchProgress is surfaced after each item of a batch.
type BatchProgress struct {
	Completed int
	Total     int
}

func (p BatchProgress) String() string {
	return fmt.Sprintf("%d/%d", p.Completed, p.Total)
}

// OutcomeStatus classifies an [ItemOutcome].
type OutcomeStatus string

const (
	StatusFetched OutcomeStatus = "fetched"
	StatusNoMatch OutcomeStatus = "no_match"
	StatusFailed  OutcomeStatus = "failed"
)

// ParseOutcomeStatus validates a status name.
func ParseOutcomeStatus(s string) (OutcomeStatus, error) {
	switch st := OutcomeStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusFetched, StatusNoMatch, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// ItemOutcome records what happened to one item. Fetch is nil when no fetch was attempted.
type ItemOutcome struct {
	Item  CatalogItem   `json:"item" yaml:"item"`
	Match MatchResult   `json:"match" yaml:"match"`
	Fetch *FetchOutcome `json:"fetch,omitempty" yaml:"fetch,omitempty"`
}

// Status derives the outcome class: a search error or failed fetch is failed,
// an empty search is no match.
func (o ItemOutcome) Status() OutcomeStatus {
	switch {
	case o.Match.Error != "":
		return StatusFailed
	case !o.Match.Found:
		return StatusNoMatch
	case o.Fetch != nil && o.Fetch.Succeeded:
		return StatusFetched
	default:
		return StatusFailed
	}
}

// Detail is the most specific error text for the outcome, if any.
func (o ItemOutcome) Detail() string {
	if o.Match.Error != "" {
		return o.Match.Error
	}
	if o.Fetch != nil {
		return o.Fetch.ErrorDetail
	}
	return ""
}

// OutputPath is the fetched file, or empty.
func (o ItemOutcome) OutputPath() string {
	if o.Fetch == nil {
		return ""
	}
	return o.Fetch.OutputPath
}
