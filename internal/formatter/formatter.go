// package formatter exports download outcomes and history to various formats (JSON, YAML, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/playlistdl/internal/models"
	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts a format name or its usual file extension.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unsupported format %q (json, yaml, csv, markdown, txt)", shared.ErrInvalidFlag, name)
}

// Ext is the file extension for the format, without a dot.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// Report is a set of history records to export. BatchID and Source are empty
// when the records span several batches.
type Report struct {
	BatchID   string
	Source    string
	Directory string
	Records   []*models.DownloadRecord
}

// Count returns how many records have status.
func (r *Report) Count(status models.OutcomeStatus) int {
	return lo.CountBy(r.Records, func(rec *models.DownloadRecord) bool { return rec.Status() == status })
}

func (r *Report) title() string {
	if r.BatchID == "" {
		return "Download history"
	}
	return "Download report"
}

// Row is the serialized form of a [models.DownloadRecord].
type Row struct {
	Sequence    int       `json:"sequence" yaml:"sequence"`
	BatchID     string    `json:"batch_id" yaml:"batch_id"`
	SourceURL   string    `json:"source_url" yaml:"source_url"`
	Title       string    `json:"title" yaml:"title"`
	Contributor string    `json:"contributor,omitempty" yaml:"contributor,omitempty"`
	Status      string    `json:"status" yaml:"status"`
	Address     string    `json:"address,omitempty" yaml:"address,omitempty"`
	OutputPath  string    `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty" yaml:"error_detail,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Rows converts records into serializable rows, keeping their order.
func Rows(records []*models.DownloadRecord) []Row {
	return lo.Map(records, func(rec *models.DownloadRecord, _ int) Row {
		return Row{
			Sequence:    rec.Sequence(),
			BatchID:     rec.BatchID(),
			SourceURL:   rec.SourceURL(),
			Title:       rec.Title(),
			Contributor: rec.Contributor(),
			Status:      string(rec.Status()),
			Address:     rec.Address(),
			OutputPath:  rec.OutputPath(),
			ErrorDetail: rec.ErrorDetail(),
			CreatedAt:   rec.CreatedAt(),
		}
	})
}

type document struct {
	BatchID   string `json:"batch_id,omitempty" yaml:"batch_id,omitempty"`
	Source    string `json:"source,omitempty" yaml:"source,omitempty"`
	Directory string `json:"directory,omitempty" yaml:"directory,omitempty"`
	Fetched   int    `json:"fetched" yaml:"fetched"`
	NoMatch   int    `json:"no_match" yaml:"no_match"`
	Failed    int    `json:"failed" yaml:"failed"`
	Records   []Row  `json:"records" yaml:"records"`
}

func (r *Report) document() document {
	return document{
		BatchID:   r.BatchID,
		Source:    r.Source,
		Directory: r.Directory,
		Fetched:   r.Count(models.StatusFetched),
		NoMatch:   r.Count(models.StatusNoMatch),
		Failed:    r.Count(models.StatusFailed),
		Records:   Rows(r.Records),
	}
}

// ExportToJSON encodes the report with summary counts and every record.
func ExportToJSON(report *Report) ([]byte, error) {
	return shared.MarshalJSON(report.document(), true)
}

// ExportToYAML encodes the same document as [ExportToJSON] in YAML.
func ExportToYAML(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(report.document()); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToCSV converts records to CSV with columns: Sequence, Batch, Title, Contributor, Status, Address, Output, Error
func ExportToCSV(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "Batch", "Title", "Contributor", "Status", "Address", "Output", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, rec := range report.Records {
		record := []string{
			strconv.Itoa(rec.Sequence()),
			rec.BatchID(),
			rec.Title(),
			rec.Contributor(),
			string(rec.Status()),
			rec.Address(),
			rec.OutputPath(),
			rec.ErrorDetail(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the report as a Markdown document
func ExportToMarkdown(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", report.title()))
	if report.Source != "" {
		buf.WriteString(fmt.Sprintf("**Source**: %s\n", report.Source))
	}
	if report.Directory != "" {
		buf.WriteString(fmt.Sprintf("**Directory**: %s\n", report.Directory))
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(report.Records)))
	buf.WriteString(fmt.Sprintf("**Fetched**: %d, **Not found**: %d, **Failed**: %d\n\n",
		report.Count(models.StatusFetched), report.Count(models.StatusNoMatch), report.Count(models.StatusFailed)))

	buf.WriteString("## Tracks\n\n")
	for i, rec := range report.Records {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]", i+1, recordLabel(rec), rec.Status()))
		switch {
		case rec.Status() == models.StatusFetched:
			buf.WriteString(fmt.Sprintf(" `%s`", filepath.Base(rec.OutputPath())))
		case rec.ErrorDetail() != "":
			buf.WriteString(fmt.Sprintf(": %s", rec.ErrorDetail()))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts the report to plain text format
func ExportToText(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", report.title()))
	if report.Source != "" {
		buf.WriteString(fmt.Sprintf("Source: %s\n", report.Source))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d (fetched %d)\n\n", len(report.Records), report.Count(models.StatusFetched)))

	for i, rec := range report.Records {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, recordLabel(rec), rec.Status()))
	}

	return buf.Bytes(), nil
}

func recordLabel(rec *models.DownloadRecord) string {
	if rec.Contributor() == "" {
		return rec.Title()
	}
	return fmt.Sprintf("%s - %s", rec.Contributor(), rec.Title())
}

// Export encodes report in format.
func Export(report *Report, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportToJSON(report)
	case FormatYAML:
		return ExportToYAML(report)
	case FormatCSV:
		return ExportToCSV(report)
	case FormatMarkdown:
		return ExportToMarkdown(report)
	case FormatText:
		return ExportToText(report)
	}
	return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
}

// WriteExport encodes report in format and writes it to path, creating parent directories.
func WriteExport(report *Report, format Format, path string) error {
	data, err := Export(report, format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := shared.EnsureDir(dir); err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return nil
}

// WriteReport writes report into dir as report_{batch}.{ext} and returns the path.
func WriteReport(report *Report, dir string, format Format) (string, error) {
	name := "history"
	if report.BatchID != "" {
		name = report.BatchID
	}

	path := filepath.Join(dir, fmt.Sprintf("report_%s.%s", name, format.Ext()))
	if err := WriteExport(report, format, path); err != nil {
		return "", err
	}
	return path, nil
}
