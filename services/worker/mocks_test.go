package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hyunsoo718/briefingworker/helpers"
	"hyunsoo718/briefingworker/internal/scraper"
	"hyunsoo718/briefingworker/services/analyzer"
	"hyunsoo718/briefingworker/services/publisher"
	"hyunsoo718/briefingworker/services/store"
)

// mockStore implements store.Store and records every mutating call in
// order so tests can assert on sequencing
type mockStore struct {
	mu       sync.Mutex
	channels []store.Channel
	queryErr error

	existsByURL map[string]bool
	existsErr   error

	recentByKey map[string]bool
	recentSince time.Time

	createErr    error
	setActiveErr error

	created     []store.Report
	bodies      []string
	deactivated []string
	ops         []string
}

var _ store.Store = (*mockStore)(nil)

func newMockStore(channels ...store.Channel) *mockStore {
	return &mockStore{
		channels:    channels,
		existsByURL: make(map[string]bool),
		recentByKey: make(map[string]bool),
	}
}

func (m *mockStore) QueryChannels(ctx context.Context) ([]store.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	out := make([]store.Channel, len(m.channels))
	copy(out, m.channels)
	return out, nil
}

func (m *mockStore) SetChannelActive(ctx context.Context, pageID string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setActiveErr != nil {
		return m.setActiveErr
	}
	if !active {
		m.deactivated = append(m.deactivated, pageID)
	}
	m.ops = append(m.ops, fmt.Sprintf("set_active:%s:%t", pageID, active))
	return nil
}

func (m *mockStore) ResetAllChannels(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.channels {
		m.channels[i].Active = true
	}
	m.ops = append(m.ops, "reset_all")
	return len(m.channels), nil
}

func (m *mockStore) CreateReport(ctx context.Context, report store.Report, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created = append(m.created, report)
	m.bodies = append(m.bodies, content)
	m.ops = append(m.ops, "create:"+report.URL)
	return fmt.Sprintf("page-%d", len(m.created)), nil
}

func (m *mockStore) ReportExistsByURL(ctx context.Context, videoURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.existsByURL[videoURL], nil
}

func (m *mockStore) RecentReportExists(ctx context.Context, keyword, videoURL string, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recentSince = since
	return m.recentByKey[keyword+"|"+videoURL], nil
}

// mockScraper returns a fixed video per channel URL
type mockScraper struct {
	mu     sync.Mutex
	videos map[string]*scraper.Video
	err    error
	calls  []string
	panics bool
}

var _ Scraper = (*mockScraper)(nil)

func newMockScraper() *mockScraper {
	return &mockScraper{videos: make(map[string]*scraper.Video)}
}

func (m *mockScraper) FindLatest(ctx context.Context, channelURL, keyword string) (*scraper.Video, error) {
	m.mu.Lock()
	m.calls = append(m.calls, keyword)
	m.mu.Unlock()
	if m.panics {
		panic("scraper blew up")
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.videos[channelURL], nil
}

// mockTranscripts returns one fixed transcript
type mockTranscripts struct {
	text string
	err  error
}

func (m *mockTranscripts) Get(ctx context.Context, videoID string) (string, error) {
	return m.text, m.err
}

// mockAnalyzer returns a fixed report and records the requests
type mockAnalyzer struct {
	mu       sync.Mutex
	report   string
	err      error
	requests []analyzer.Request
}

var _ analyzer.Analyzer = (*mockAnalyzer)(nil)

func (m *mockAnalyzer) Analyze(ctx context.Context, req analyzer.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.report, m.err
}

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu       sync.Mutex
	messages map[string][]byte
	trims    int
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][]byte)}
}

func (m *MockPublisher) Publish(key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	messageCopy := make([]byte, len(message))
	copy(messageCopy, message)
	m.messages[key] = messageCopy
	return nil
}

func (m *MockPublisher) TrimStreams() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trims++
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// MockLogger implements the helpers.LoggerInterface for testing
type MockLogger struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

var _ helpers.LoggerInterface = (*MockLogger)(nil)

func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) LogError(channelName string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, channelName+": "+err.Error())
}

func (m *MockLogger) LogInfo(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}
