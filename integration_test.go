package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"hyunsoo718/briefingworker/helpers"
	"hyunsoo718/briefingworker/internal/scraper"
	"hyunsoo718/briefingworker/services/analyzer"
	"hyunsoo718/briefingworker/services/publisher"
	"hyunsoo718/briefingworker/services/store"
	"hyunsoo718/briefingworker/services/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Initial data payload mimicking a channel /streams listing: a short
// clip first, the live broadcast second, one unrelated video last
const listingInitialData = `{
  "contents": {
    "twoColumnBrowseResultsRenderer": {
      "tabs": [
        {
          "tabRenderer": {
            "content": {
              "richGridRenderer": {
                "contents": [
                  {"richItemRenderer": {"content": {"videoRenderer": {
                    "videoId": "clip0002",
                    "title": {"runs": [{"text": "테스트 클립"}]},
                    "publishedTimeText": {"simpleText": "3시간 전"},
                    "lengthText": {"simpleText": "3:20"}
                  }}}},
                  {"richItemRenderer": {"content": {"videoRenderer": {
                    "videoId": "live0001",
                    "title": {"runs": [{"text": "테스트 방송"}]},
                    "badges": [{"metadataBadgeRenderer": {"style": "BADGE_STYLE_TYPE_LIVE_NOW"}}],
                    "thumbnailOverlays": [{"thumbnailOverlayTimeStatusRenderer": {"style": "LIVE"}}]
                  }}}},
                  {"richItemRenderer": {"content": {"videoRenderer": {
                    "videoId": "other003",
                    "title": {"runs": [{"text": "다른 방송"}]},
                    "publishedTimeText": {"simpleText": "1일 전"},
                    "lengthText": {"simpleText": "10:00"}
                  }}}}
                ]
              }
            }
          }
        }
      ]
    }
  }
}`

// fakeRecordStore is an in-memory stand-in for the Notion record store
// that records mutations in order
type fakeRecordStore struct {
	mu       sync.Mutex
	channels []store.Channel
	reports  []store.Report
	bodies   []string
	ops      []string
}

var _ store.Store = (*fakeRecordStore)(nil)

func (f *fakeRecordStore) QueryChannels(ctx context.Context) ([]store.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Channel, len(f.channels))
	copy(out, f.channels)
	return out, nil
}

func (f *fakeRecordStore) SetChannelActive(ctx context.Context, pageID string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.channels {
		if f.channels[i].PageID == pageID {
			f.channels[i].Active = active
		}
	}
	if active {
		f.ops = append(f.ops, "activate:"+pageID)
	} else {
		f.ops = append(f.ops, "deactivate:"+pageID)
	}
	return nil
}

func (f *fakeRecordStore) ResetAllChannels(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.channels {
		f.channels[i].Active = true
	}
	f.ops = append(f.ops, "reset_all")
	return len(f.channels), nil
}

func (f *fakeRecordStore) CreateReport(ctx context.Context, report store.Report, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
	f.bodies = append(f.bodies, content)
	f.ops = append(f.ops, "create:"+report.URL)
	return "report-page-1", nil
}

func (f *fakeRecordStore) ReportExistsByURL(ctx context.Context, videoURL string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reports {
		if r.URL == videoURL {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRecordStore) RecentReportExists(ctx context.Context, keyword, videoURL string, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reports {
		if r.Keyword != keyword || r.VideoDate.Before(since) {
			continue
		}
		if videoURL == "" || r.URL == videoURL {
			return true, nil
		}
	}
	return false, nil
}

// fakeTranscripts returns one fixed transcript and records the video IDs
type fakeTranscripts struct {
	mu       sync.Mutex
	text     string
	videoIDs []string
}

func (f *fakeTranscripts) Get(ctx context.Context, videoID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoIDs = append(f.videoIDs, videoID)
	return f.text, nil
}

// fakeAnalyzer returns a fixed briefing and records the requests
type fakeAnalyzer struct {
	mu       sync.Mutex
	report   string
	requests []analyzer.Request
}

var _ analyzer.Analyzer = (*fakeAnalyzer)(nil)

func (f *fakeAnalyzer) Analyze(ctx context.Context, req analyzer.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.report, nil
}

// capturePublisher collects published capture events in memory
type capturePublisher struct {
	mu       sync.Mutex
	messages map[string][]byte
	trims    int
}

var _ publisher.Publisher = (*capturePublisher)(nil)

func (p *capturePublisher) Publish(key string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	payload := make([]byte, len(message))
	copy(payload, message)
	p.messages[key] = payload
	return nil
}

func (p *capturePublisher) TrimStreams() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trims++
	return nil
}

func (p *capturePublisher) Close() error { return nil }

// TestIntegration runs the capture pipeline end to end: a real listing
// scrape against a fixture server, candidate selection, dedup, report
// creation, deactivation ordering and the second-cycle veto after the
// daily reset
func TestIntegration(t *testing.T) {
	listingPage := `<!DOCTYPE html><html><head><script nonce="x">var ytInitialData = ` +
		listingInitialData + `;</script></head><body></body></html>`

	var listingRequests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/youtube.com/@testchannel/streams" {
			http.NotFound(w, r)
			return
		}
		listingRequests++
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, listingPage)
	}))
	defer server.Close()

	// 워커의 채널 URL 검증은 youtube.com을 요구한다
	channelURL := server.URL + "/youtube.com/@testchannel"

	recordStore := &fakeRecordStore{
		channels: []store.Channel{{
			PageID:      "chan-page-1",
			Keyword:     "테스트",
			URL:         channelURL,
			ChannelName: "테스트 채널",
			Hour:        9,
			Active:      true,
		}},
	}
	transcripts := &fakeTranscripts{text: strings.Repeat("시장 흐름과 종목 이야기를 나눕니다. ", 8)}
	briefings := &fakeAnalyzer{report: "# 강력 추천 종목\n\n## 현대건설\n- 언급 이유: 해외 수주 확대"}
	events := &capturePublisher{messages: make(map[string][]byte)}

	w := worker.NewWorker(
		recordStore,
		scraper.NewChannelScraper(nil),
		transcripts,
		briefings,
		events,
		helpers.NewLogger(filepath.Join(t.TempDir(), "errors.log")),
	)

	ctx := context.Background()

	// First cycle: the live broadcast wins over the 200-second clip
	stats := w.Run(ctx, 12, false)
	assert.Equal(t, 1, stats.Eligible)
	assert.Equal(t, 1, stats.Captured)
	assert.Equal(t, 1, listingRequests)

	require.Len(t, recordStore.reports, 1)
	report := recordStore.reports[0]
	assert.Equal(t, "테스트", report.Keyword)
	assert.Equal(t, "https://www.youtube.com/watch?v=live0001", report.URL)
	assert.Equal(t, "테스트 채널", report.ChannelName)
	assert.Equal(t, "Unknown", report.VideoLength)
	assert.WithinDuration(t, time.Now(), report.VideoDate, time.Minute)
	assert.Equal(t, briefings.report, recordStore.bodies[0])

	// 비활성화는 저장 성공 뒤에만 온다
	require.Len(t, recordStore.ops, 2)
	assert.Equal(t, "create:https://www.youtube.com/watch?v=live0001", recordStore.ops[0])
	assert.Equal(t, "deactivate:chan-page-1", recordStore.ops[1])
	assert.False(t, recordStore.channels[0].Active)

	// The transcript and analysis stages saw the live broadcast
	assert.Equal(t, []string{"live0001"}, transcripts.videoIDs)
	require.Len(t, briefings.requests, 1)
	assert.Equal(t, "테스트 방송", briefings.requests[0].VideoTitle)
	assert.Equal(t, transcripts.text, briefings.requests[0].Transcript)

	// The capture event round-trips through the publisher
	payload, ok := events.messages["테스트"]
	require.True(t, ok)
	var event publisher.CaptureEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "live0001", event.VideoID)
	assert.True(t, event.IsLive)
	assert.Equal(t, "report-page-1", event.PageID)
	assert.Equal(t, 1, events.trims)

	// Daily reset reactivates the channel
	count, err := recordStore.ResetAllChannels(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, recordStore.channels[0].Active)

	// Second cycle: same broadcast still live, vetoed by the URL check
	stats = w.Run(ctx, 12, false)
	assert.Equal(t, 1, stats.Eligible)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Captured)
	assert.Len(t, recordStore.reports, 1)

	// No second deactivation happened
	deactivations := 0
	for _, op := range recordStore.ops {
		if op == "deactivate:chan-page-1" {
			deactivations++
		}
	}
	assert.Equal(t, 1, deactivations)
}

// TestIntegrationVideosFallback tests the /streams to /videos fallback
// against a channel that serves its listing only on /videos
func TestIntegrationVideosFallback(t *testing.T) {
	listingPage := `<!DOCTYPE html><html><head><script>var ytInitialData = ` +
		listingInitialData + `;</script></head><body></body></html>`

	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path != "/youtube.com/@testchannel/videos" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, listingPage)
	}))
	defer server.Close()

	s := scraper.NewChannelScraper(nil)
	video, err := s.FindLatest(context.Background(), server.URL+"/youtube.com/@testchannel", "테스트")

	require.NoError(t, err)
	require.NotNil(t, video)
	assert.Equal(t, "테스트 방송", video.Title)
	assert.True(t, video.IsLive)
	assert.Contains(t, paths, "/youtube.com/@testchannel/streams")
	assert.Contains(t, paths, "/youtube.com/@testchannel/videos")
}
