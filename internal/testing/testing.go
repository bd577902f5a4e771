// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/deachawatss/pickbench/internal/models"
)

// MockBackend is a scriptable test double for [services.Service].
//
// Unset funcs answer with empty values so tests only script what they assert.
type MockBackend struct {
	GetRunFunc        func(ctx context.Context, runNumber int) (*models.RunHeader, []models.BatchRow, error)
	GetBatchItemsFunc func(ctx context.Context, runNumber, rowNumber int) ([]models.BatchItem, error)
	HealthFunc        func(ctx context.Context) error
}

func (m *MockBackend) GetRun(ctx context.Context, runNumber int) (*models.RunHeader, []models.BatchRow, error) {
	if m.GetRunFunc != nil {
		return m.GetRunFunc(ctx, runNumber)
	}
	return &models.RunHeader{RunNumber: runNumber}, nil, nil
}

func (m *MockBackend) GetBatchItems(ctx context.Context, runNumber, rowNumber int) ([]models.BatchItem, error) {
	if m.GetBatchItemsFunc != nil {
		return m.GetBatchItemsFunc(ctx, runNumber, rowNumber)
	}
	return nil, nil
}

func (m *MockBackend) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

func (m *MockBackend) Name() string { return "mock" }

// StubMonitor is a fixed-verdict connectivity checker.
type StubMonitor struct {
	IsOnline bool
}

func (s *StubMonitor) Online() bool { return s.IsOnline }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
