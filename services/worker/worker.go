package worker

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"hyunsoo718/briefingworker/helpers"
	"hyunsoo718/briefingworker/internal/scraper"
	"hyunsoo718/briefingworker/internal/timetext"
	"hyunsoo718/briefingworker/pkg/errors"
	"hyunsoo718/briefingworker/services/analyzer"
	"hyunsoo718/briefingworker/services/publisher"
	"hyunsoo718/briefingworker/services/store"
	"hyunsoo718/briefingworker/services/transcript"
)

const (
	// maxConcurrentChannels bounds the channels processed at once;
	// launches are staggered so the listing requests do not burst
	maxConcurrentChannels = 3
	launchStagger         = 2 * time.Second

	// minTranscriptLength filters out empty and teaser captions
	minTranscriptLength = 100
)

// Scraper finds the newest keyword matching video on a channel
type Scraper interface {
	FindLatest(ctx context.Context, channelURL, keyword string) (*scraper.Video, error)
}

// RunStats summarizes one polling cycle
type RunStats struct {
	Eligible int
	Captured int
	Skipped  int
	Failed   int
}

type channelOutcome int

const (
	outcomeFailed channelOutcome = iota
	outcomeSkipped
	outcomeCaptured
)

// Worker runs polling cycles over the channel roster: scrape, dedup,
// transcript, analysis, store. A channel is deactivated only after its
// report page was written; every failure path leaves it active so a
// later cycle retries.
type Worker struct {
	store       store.Store
	scraper     Scraper
	transcripts transcript.Service
	analyzer    analyzer.Analyzer
	publisher   publisher.Publisher
	gate        *DedupGate
	logger      helpers.LoggerInterface
	concurrency int
	stagger     time.Duration
	now         func() time.Time
}

// NewWorker creates a worker over the collaborating services. The
// publisher may be nil when no event stream is configured.
func NewWorker(
	st store.Store,
	sc Scraper,
	tr transcript.Service,
	an analyzer.Analyzer,
	pub publisher.Publisher,
	logger helpers.LoggerInterface,
) *Worker {
	return &Worker{
		store:       st,
		scraper:     sc,
		transcripts: tr,
		analyzer:    an,
		publisher:   pub,
		gate:        NewDedupGate(st),
		logger:      logger,
		concurrency: maxConcurrentChannels,
		stagger:     launchStagger,
		now:         timetext.Now,
	}
}

// Run processes the channels eligible at currentHour and reports what
// happened. With timeAgnostic set, every active channel is processed
// regardless of its hour setting.
func (w *Worker) Run(ctx context.Context, currentHour int, timeAgnostic bool) RunStats {
	var stats RunStats

	channels, err := w.store.QueryChannels(ctx)
	if err != nil {
		w.logger.LogError("QueryChannels", err)
		return stats
	}

	var targets []store.Channel
	for _, ch := range channels {
		if !ch.Active {
			continue
		}
		if !timeAgnostic && !EligibleAt(ch.Hour, currentHour) {
			continue
		}
		targets = append(targets, ch)
	}
	stats.Eligible = len(targets)

	if len(targets) == 0 {
		w.logger.LogInfo("현재 시간(%d시)에 처리할 활성화된 채널이 없습니다.", currentHour)
		return stats
	}
	w.logger.LogInfo("현재 시간(%d시)에 처리할 활성화된 채널 %d개를 찾았습니다.", currentHour, len(targets))

	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, w.concurrency)

	for i, ch := range targets {
		if i > 0 {
			if err := helpers.SleepContext(ctx, w.stagger); err != nil {
				break
			}
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(ch store.Channel) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := w.processChannel(ctx, ch)

			mu.Lock()
			switch outcome {
			case outcomeCaptured:
				stats.Captured++
			case outcomeSkipped:
				stats.Skipped++
			default:
				stats.Failed++
			}
			mu.Unlock()
		}(ch)
	}
	wg.Wait()

	if w.publisher != nil {
		if err := w.publisher.TrimStreams(); err != nil {
			w.logger.LogError("StreamTrimming", err)
		}
	}

	w.logger.LogInfo("처리 완료: 대상 %d개, 캡처 %d개, 스킵 %d개, 실패 %d개",
		stats.Eligible, stats.Captured, stats.Skipped, stats.Failed)
	return stats
}

// processChannel runs the capture pipeline for one channel. A panic in
// any stage is contained here so the rest of the cycle keeps going.
func (w *Worker) processChannel(ctx context.Context, ch store.Channel) (outcome channelOutcome) {
	name := ch.ChannelName
	if name == "" {
		name = ch.Keyword
	}

	defer func() {
		if r := recover(); r != nil {
			w.logger.LogError(name, fmt.Errorf("채널 처리 중 패닉: %v", r))
			outcome = outcomeFailed
		}
	}()

	if ch.URL == "" || ch.Keyword == "" {
		w.logger.LogInfo("채널 URL 또는 키워드가 없습니다. 스킵합니다: %s", name)
		return outcomeSkipped
	}
	if !strings.Contains(ch.URL, "youtube.com") {
		w.logger.LogError(name, errors.NewValidation(ch.Keyword, "유튜브 채널 URL이 아닙니다: "+ch.URL))
		return outcomeFailed
	}

	video, err := w.scraper.FindLatest(ctx, ch.URL, ch.Keyword)
	if err != nil {
		w.logger.LogError(name, err)
		return outcomeFailed
	}
	if video == nil {
		w.logger.LogInfo("채널에서 키워드가 포함된 적합한 영상을 찾을 수 없습니다: %s", ch.URL)
		return outcomeSkipped
	}

	captured, err := w.gate.AlreadyCaptured(ctx, ch.Keyword, video.URL, w.now())
	if err != nil {
		// 조회에 실패하면 중복이 아닌 것으로 보고 계속 진행한다
		w.logger.LogError(name, err)
	}
	if captured {
		w.logger.LogInfo("이미 처리된 영상입니다: %s. 채널 %s의 활성화 상태를 유지합니다 (새 영상 기다림).", video.Title, name)
		return outcomeSkipped
	}

	text, err := w.transcripts.Get(ctx, video.VideoID)
	if err != nil {
		if stderrors.Is(err, transcript.ErrNotAvailable) {
			w.logger.LogInfo("자막이 아직 업로드되지 않았습니다: %s. 활성화 상태를 유지하고 다음에 다시 확인합니다.", video.Title)
			return outcomeSkipped
		}
		w.logger.LogError(name, err)
		return outcomeFailed
	}
	if len([]rune(strings.TrimSpace(text))) < minTranscriptLength {
		w.logger.LogInfo("스크립트가 너무 짧거나 비어 있습니다: %s", video.Title)
		return outcomeSkipped
	}

	videoDate := timetext.ParseUploadDate(video.UploadDate, w.now())

	report, err := w.analyzer.Analyze(ctx, analyzer.Request{
		Transcript:  text,
		VideoTitle:  video.Title,
		ChannelName: ch.ChannelName,
		ProgramName: ch.Keyword,
	})
	if err != nil {
		w.logger.LogError(name, err)
		return outcomeFailed
	}
	if analyzer.IsErrorReport(report) {
		w.logger.LogError(name, errors.NewAnalysis(ch.Keyword, "분석 결과에 오류 보고가 포함되어 있습니다", nil))
		return outcomeFailed
	}

	pageID, err := w.store.CreateReport(ctx, store.Report{
		Keyword:     ch.Keyword,
		URL:         video.URL,
		VideoDate:   videoDate,
		ChannelName: ch.ChannelName,
		VideoLength: video.Length,
	}, report)
	if err != nil {
		w.logger.LogError(name, err)
		w.logger.LogInfo("스크립트 생성 실패로 채널 '%s'을 활성화 상태로 유지합니다.", name)
		return outcomeFailed
	}
	w.logger.LogInfo("스크립트+보고서 페이지 생성 완료: %s", video.Title)

	// 저장이 끝난 뒤에만 채널을 비활성화한다
	if err := w.store.SetChannelActive(ctx, ch.PageID, false); err != nil {
		w.logger.LogError(name, err)
	} else {
		w.logger.LogInfo("채널 %s의 활성화 상태를 비활성화로 변경했습니다.", name)
	}

	w.publishCapture(ch, video, videoDate, pageID)
	return outcomeCaptured
}

// publishCapture pushes the capture event out. Publishing is best
// effort: a failure never undoes a finished capture.
func (w *Worker) publishCapture(ch store.Channel, video *scraper.Video, videoDate time.Time, pageID string) {
	if w.publisher == nil {
		return
	}

	event := publisher.CaptureEvent{
		Keyword:     ch.Keyword,
		ChannelName: ch.ChannelName,
		VideoID:     video.VideoID,
		Title:       video.Title,
		URL:         video.URL,
		VideoDate:   videoDate,
		VideoLength: video.Length,
		IsLive:      video.IsLive,
		PageID:      pageID,
		CapturedAt:  w.now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		w.logger.LogError(ch.ChannelName, err)
		return
	}
	if err := w.publisher.Publish(ch.Keyword, payload); err != nil {
		w.logger.LogError(ch.ChannelName, err)
	}
}
