package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hyunsoo718/briefingworker/config"
	"hyunsoo718/briefingworker/helpers"
	"hyunsoo718/briefingworker/internal/scraper"
	"hyunsoo718/briefingworker/internal/timetext"
	"hyunsoo718/briefingworker/logger"
	"hyunsoo718/briefingworker/services/analyzer"
	"hyunsoo718/briefingworker/services/cache"
	"hyunsoo718/briefingworker/services/publisher"
	"hyunsoo718/briefingworker/services/scheduler"
	"hyunsoo718/briefingworker/services/store"
	"hyunsoo718/briefingworker/services/transcript"
	"hyunsoo718/briefingworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	simulateHour := flag.Int("simulate", -1, "print the channels eligible at the given hour and exit")
	runOnce := flag.Bool("run-once", false, "process every active channel once, ignoring hour settings, and exit")
	flag.Parse()

	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Dry run: list the eligible channels and exit
	if *simulateHour >= 0 {
		if err := simulateEligibility(ctx, cfg, *simulateHour); err != nil {
			log.Fatal().Err(err).Msg("Simulation failed")
		}
		return
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("model", cfg.GeminiModel).
		Ints("check_hours", cfg.CheckHours).
		Msg("Starting application")

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	if *runOnce {
		stats := services.Worker.Run(ctx, timetext.Now().Hour(), true)
		log.Info().
			Int("eligible", stats.Eligible).
			Int("captured", stats.Captured).
			Int("skipped", stats.Skipped).
			Int("failed", stats.Failed).
			Msg("Single run finished")
		return
	}

	// Create and start the scheduler
	sched, err := scheduler.New(services.Worker, services.Store, cfg.ResetHour, cfg.CheckHours)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	sched.Start()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().
		Str("signal", sig.String()).
		Msg("Received shutdown signal")

	// Graceful shutdown
	sched.Stop()
	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Store     store.Store
	Publisher publisher.Publisher
	Worker    *worker.Worker
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	notionStore := store.NewNotionStore(cfg.NotionAPIKey, cfg.ChannelDatabaseID, cfg.ReportDatabaseID)
	services.Store = notionStore

	// Rate-limit blocklist over memcache
	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	blocklist := cache.NewBlocklist(cacheService, cfg.FetchBlockTime)
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Capture event publisher
	redisPublisher := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	services.Publisher = redisPublisher

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	gemini, err := analyzer.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}

	services.Worker = worker.NewWorker(
		notionStore,
		scraper.NewChannelScraper(blocklist),
		transcript.NewYouTubeService(),
		gemini,
		services.Publisher,
		helpers.NewLogger("error_channels.log"),
	)

	return services, nil
}

// simulateEligibility prints the channels a run at the given hour would
// pick up, without processing anything
func simulateEligibility(ctx context.Context, cfg *config.Config, hour int) error {
	if hour > 23 {
		return fmt.Errorf("hour must be between 0 and 23, got %d", hour)
	}

	notionStore := store.NewNotionStore(cfg.NotionAPIKey, cfg.ChannelDatabaseID, cfg.ReportDatabaseID)
	channels, err := notionStore.QueryChannels(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("시간 설정 %d시에 대한 작업 시뮬레이션\n", hour)
	eligible := 0
	for _, ch := range channels {
		if !ch.Active || !worker.EligibleAt(ch.Hour, hour) {
			continue
		}
		eligible++
		fmt.Printf("채널 '%s'은 %d시 설정이며, 지정 시간 %d시는 처리 가능한 시간대입니다.\n",
			ch.ChannelName, worker.NormalizeHour(ch.Hour), hour)
	}
	fmt.Printf("시간 %d시에 처리할 활성화된 채널 %d개 찾음\n", hour, eligible)
	return nil
}
