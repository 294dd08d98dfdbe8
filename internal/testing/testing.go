// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/cinematch/internal/models"
)

// MockCatalog is a test double for services.Catalog. Nil function fields fall back to empty results.
type MockCatalog struct {
	SearchFunc func(ctx context.Context, query string) ([]models.Movie, error)

	mu      sync.Mutex
	Queries []string
}

func (m *MockCatalog) Search(ctx context.Context, query string) ([]models.Movie, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, query)
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return []models.Movie{}, nil
}

func (m *MockCatalog) PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return "https://images.test/w200" + path
}

func (m *MockCatalog) Name() string { return "mock" }

// Calls returns the number of searches issued.
func (m *MockCatalog) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Queries)
}

// MockStore wraps a real [models.PreferenceStore] and can inject failures per operation.
//
// Every call is counted whether or not it fails.
type MockStore struct {
	models.PreferenceStore

	GetErr    error
	CreateErr error
	AddErr    error
	RemoveErr error

	mu    sync.Mutex
	calls map[string]int
}

func NewMockStore(inner models.PreferenceStore) *MockStore {
	return &MockStore{PreferenceStore: inner, calls: make(map[string]int)}
}

func (m *MockStore) record(op string) {
	m.mu.Lock()
	m.calls[op]++
	m.mu.Unlock()
}

// Calls returns how many times op ("Get", "Create", "AddMovie", "RemoveMovie") was invoked.
func (m *MockStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of store operations of any kind.
func (m *MockStore) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *MockStore) Get(ctx context.Context, uid string) (*models.Preferences, error) {
	m.record("Get")
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.PreferenceStore.Get(ctx, uid)
}

func (m *MockStore) Create(ctx context.Context, uid string) error {
	m.record("Create")
	if m.CreateErr != nil {
		return m.CreateErr
	}
	return m.PreferenceStore.Create(ctx, uid)
}

func (m *MockStore) AddMovie(ctx context.Context, uid string, l models.List, id int) error {
	m.record("AddMovie")
	if m.AddErr != nil {
		return m.AddErr
	}
	return m.PreferenceStore.AddMovie(ctx, uid, l, id)
}

func (m *MockStore) RemoveMovie(ctx context.Context, uid string, l models.List, id int) error {
	m.record("RemoveMovie")
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	return m.PreferenceStore.RemoveMovie(ctx, uid, l, id)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing and keeps the last request
type MockRoundTripper struct {
	response *http.Response
	err      error
	Request  *http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.Request = req
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
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
