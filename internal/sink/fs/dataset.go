// Package fs writes the per-run dataset files to the local filesystem.
package fs

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jobsweep/linkedin-crawler/internal/crawler"
)

// csvHeader is the fixed column set of the CSV dataset. The JSON file
// carries the full records; the CSV is the spreadsheet-friendly subset.
var csvHeader = []string{
	"id", "title", "companyName", "location", "link",
	"employment_type", "seniority_level", "postedAt", "scraped_at",
	"descriptionText",
}

// DatasetSink buffers the run's records and writes one JSON array file and
// one CSV file on Close.
type DatasetSink struct {
	mu      sync.Mutex
	dir     string
	runID   string
	records []crawler.JobRecord
	files   []string
	closed  bool
}

// NewDatasetSink creates the output directory and returns a sink for runID.
func NewDatasetSink(dir, runID string) (*DatasetSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create dataset dir %s: %w", dir, err)
	}
	return &DatasetSink{dir: dir, runID: runID}, nil
}

// Emit buffers one record in arrival order.
func (s *DatasetSink) Emit(_ context.Context, record crawler.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("dataset sink already closed")
	}
	s.records = append(s.records, record)
	return nil
}

// Close flushes the buffered records to disk. Closing twice is a no-op.
func (s *DatasetSink) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}

	jsonPath := filepath.Join(s.dir, fmt.Sprintf("jobs_%s.json", s.runID))
	if err := s.writeJSON(jsonPath); err != nil {
		return err
	}
	s.files = append(s.files, jsonPath)

	csvPath := filepath.Join(s.dir, fmt.Sprintf("jobs_%s.csv", s.runID))
	if err := s.writeCSV(csvPath); err != nil {
		return err
	}
	s.files = append(s.files, csvPath)
	return nil
}

// Files returns the paths written by Close, for upload and the summary.
func (s *DatasetSink) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.files...)
}

func (s *DatasetSink) writeJSON(path string) error {
	records := s.records
	if records == nil {
		records = []crawler.JobRecord{}
	}
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write dataset %s: %w", path, err)
	}
	return nil
}

func (s *DatasetSink) writeCSV(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create csv %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // flushed and checked below

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range s.records {
		row := []string{
			r.ID, r.Title, r.CompanyName, r.Location, r.Link,
			r.EmploymentType, r.SeniorityLevel, r.PostedAt, r.ScrapedAt,
			r.DescriptionText,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv %s: %w", path, err)
	}
	return nil
}
