// Package scheduler owns the cron entries that drive polling cycles
// and the daily roster reset.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"hyunsoo718/briefingworker/internal/timetext"
	"hyunsoo718/briefingworker/logger"
	"hyunsoo718/briefingworker/pkg/errors"
	"hyunsoo718/briefingworker/services/worker"
)

// Runner runs one polling cycle and reports what happened
type Runner interface {
	Run(ctx context.Context, currentHour int, timeAgnostic bool) worker.RunStats
}

// Resetter flips every channel back to active
type Resetter interface {
	ResetAllChannels(ctx context.Context) (int, error)
}

// Scheduler fires the runner on cron entries evaluated in KST. A
// scheduler is single use: Stop cancels its jobs for good and a
// restart means building a new one.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	resetter Resetter
	log      *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a scheduler. With no checkHours the runner fires every
// hour on the hour with the hour window filter applied; with
// checkHours set it fires only at those hours, time agnostic. The
// reset job runs daily at resetHour.
func New(runner Runner, resetter Resetter, resetHour int, checkHours []int) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(timetext.KST)),
		runner:   runner,
		resetter: resetter,
		log:      logger.ForScheduler(),
		ctx:      ctx,
		cancel:   cancel,
	}

	if _, err := s.cron.AddFunc(fmt.Sprintf("0 %d * * *", resetHour), s.resetChannels); err != nil {
		cancel()
		return nil, errors.NewConfiguration(fmt.Sprintf("invalid reset hour %d", resetHour), err)
	}

	if len(checkHours) == 0 {
		if _, err := s.cron.AddFunc("0 * * * *", s.hourlyCheck); err != nil {
			cancel()
			return nil, errors.NewConfiguration("invalid hourly schedule", err)
		}
		return s, nil
	}
	for _, hour := range checkHours {
		if _, err := s.cron.AddFunc(fmt.Sprintf("0 %d * * *", hour), s.fixedHourCheck); err != nil {
			cancel()
			return nil, errors.NewConfiguration(fmt.Sprintf("invalid check hour %d", hour), err)
		}
	}
	return s, nil
}

// Start begins firing jobs and returns immediately
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("스케줄러가 시작되었습니다")
}

// Stop cancels in-flight cycles and waits for them to wind down
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info().Msg("스케줄러가 종료되었습니다")
}

func (s *Scheduler) hourlyCheck() {
	hour := timetext.Now().Hour()
	s.log.Info().Int("hour", hour).Msg("채널 처리 시작")
	stats := s.runner.Run(s.ctx, hour, false)
	s.log.Info().
		Int("eligible", stats.Eligible).
		Int("captured", stats.Captured).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("채널 처리 종료")
}

func (s *Scheduler) fixedHourCheck() {
	hour := timetext.Now().Hour()
	s.log.Info().Int("hour", hour).Msg("시간 무관 채널 처리 시작")
	stats := s.runner.Run(s.ctx, hour, true)
	s.log.Info().
		Int("eligible", stats.Eligible).
		Int("captured", stats.Captured).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("시간 무관 채널 처리 종료")
}

func (s *Scheduler) resetChannels() {
	s.log.Info().Msg("모든 채널 활성화 작업 시작")
	count, err := s.resetter.ResetAllChannels(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("채널 초기화에 실패했습니다")
		return
	}
	s.log.Info().Int("channels", count).Msg("모든 채널이 활성화되었습니다")
}
