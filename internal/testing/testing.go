// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/playlistdl/internal/models"
	"github.com/desertthunder/playlistdl/internal/services"
)

// MockCatalog is a test double for [services.Catalog]
type MockCatalog struct {
	Single    models.CatalogItem
	Many      []models.CatalogItem
	Err       error
	Resolved  []string
	SingleHit int
	ManyHit   int
}

func (m *MockCatalog) ResolveSingle(ctx context.Context, url string) (models.CatalogItem, error) {
	m.SingleHit++
	m.Resolved = append(m.Resolved, url)
	return m.Single, m.Err
}

func (m *MockCatalog) ResolveMany(ctx context.Context, url string) ([]models.CatalogItem, error) {
	m.ManyHit++
	m.Resolved = append(m.Resolved, url)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Many, nil
}

func (m *MockCatalog) Name() string { return "mock-catalog" }

// MockSearcher is a test double for [services.Searcher]. Queries without an entry in
// Results return nothing.
type MockSearcher struct {
	mu      sync.Mutex
	Results map[string][]services.SearchResult
	Errs    map[string]error
	Queries []string
	Limits  []int
}

func (m *MockSearcher) Search(ctx context.Context, query string, limit int) ([]services.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Queries = append(m.Queries, query)
	m.Limits = append(m.Limits, limit)
	if err := m.Errs[query]; err != nil {
		return nil, err
	}
	return m.Results[query], nil
}

func (m *MockSearcher) Name() string { return "mock-search" }

// MockExtractor is a test double for [services.Extractor]. It writes one small file
// per address (or per playlist entry) named after the address, using Ext.
type MockExtractor struct {
	mu sync.Mutex

	Ext             string                     // extension of written files, default "webm"
	Progress        []services.ExtractProgress // emitted before each file is written
	Fail            map[string]error           // address -> error
	ReportFiles     bool                       // list written files in the result
	PlaylistEntries []string                   // entry names written for playlist requests
	PlaylistErr     error                      // returned after writing playlist entries
	Calls           []services.ExtractRequest
}

func (m *MockExtractor) Extract(ctx context.Context, req services.ExtractRequest, onProgress func(services.ExtractProgress)) (*services.ExtractResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()

	if err := m.Fail[req.Address]; err != nil {
		return nil, err
	}

	ext := m.Ext
	if ext == "" {
		ext = "webm"
	}
	if req.AudioFormat != "" {
		ext = req.AudioFormat
	}

	names := []string{AddressName(req.Address)}
	if req.Playlist {
		names = m.PlaylistEntries
	}

	result := &services.ExtractResult{}
	for _, name := range names {
		path := filepath.Join(req.OutputDir, name+"."+ext)
		for _, p := range m.Progress {
			p.Filename = path
			if onProgress != nil {
				onProgress(p)
			}
		}
		if err := os.WriteFile(path, []byte("audio:"+name), 0o644); err != nil {
			return result, err
		}
		if onProgress != nil {
			onProgress(services.ExtractProgress{Status: services.ExtractFinished, Filename: path})
		}
		if m.ReportFiles {
			result.Files = append(result.Files, path)
		}
	}

	if req.Playlist && m.PlaylistErr != nil {
		return result, m.PlaylistErr
	}
	return result, nil
}

func (m *MockExtractor) Name() string { return "mock-extractor" }

// CallCount returns the number of Extract calls.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// AddressName derives a file stem from a video address: the value after the last "=" or "/".
func AddressName(address string) string {
	if i := strings.LastIndexAny(address, "=/"); i >= 0 {
		address = address[i+1:]
	}
	if address == "" {
		return "video"
	}
	return address
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// ListFiles returns the sorted names of the regular files in dir.
func ListFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read directory %s: %v", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// Located builds a single search result for address.
func Located(address string) []services.SearchResult {
	return []services.SearchResult{{Address: address, Title: fmt.Sprintf("video %s", AddressName(address))}}
}
