package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tc.com/oracle-node/pkg/config"
	"tc.com/oracle-node/pkg/logging"
	"tc.com/oracle-node/pkg/metrics"
	"tc.com/oracle-node/pkg/oracle"
	"tc.com/oracle-node/pkg/sources"
	"tc.com/oracle-node/pkg/submit"
	"tc.com/oracle-node/pkg/version"

	// Import sources to register them
	_ "tc.com/oracle-node/pkg/sources/cex"
	_ "tc.com/oracle-node/pkg/sources/index"
)

var (
	configFile  = flag.String("config", "config/config.yaml", "Path to configuration file")
	showVer     = flag.Bool("version", false, "Show version and exit")
	runOnce     = flag.Bool("once", false, "Run a single consensus cycle per asset and exit")
	testSources = flag.Bool("test-sources", false, "Fetch one quote from every source and exit")
	dryRun      = flag.Bool("dry-run", false, "Dry run mode: log consensus results instead of submitting them")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("oracle-node version %s\n", version.Version)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Override submission mode from command line
	if *dryRun {
		cfg.Submit.Type = "log"
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	logger, err := logging.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("Starting oracle-node", "version", version.Version, "assets", cfg.Assets)

	if *dryRun {
		logger.Warn("DRY RUN MODE ENABLED - Consensus results will be logged but NOT submitted")
	}

	// Initialize metrics
	if cfg.Metrics.Enabled {
		metrics.Init()
		go func() {
			logger.Info("Starting metrics server", "addr", cfg.Metrics.Addr)
			if err := metrics.ServeHTTP(cfg.Metrics.Addr); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize fetchers
	fetchers, streamers, err := buildFetchers(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize sources", "error", err)
	}
	defer func() {
		for _, s := range streamers {
			if err := s.Stop(); err != nil {
				logger.Warn("Failed to stop source stream", "error", err)
			}
		}
	}()

	if *testSources {
		os.Exit(testAllSources(ctx, cfg, fetchers, logger))
	}

	// Build the consensus pipeline
	store := oracle.NewHistoryStore(cfg.History.Capacity)
	validator := oracle.NewValidator(store, logger)
	engine := oracle.NewEngineWithParams(oracle.ConsensusParams{
		MinSources:             cfg.Consensus.MinSources,
		MaxOutlierPercentage:   cfg.Consensus.MaxOutlierPercentage,
		ConfidenceThreshold:    cfg.Consensus.ConfidenceThreshold,
		PriceVarianceThreshold: cfg.Consensus.PriceVarianceThreshold,
	}, logger)

	sink := buildSink(cfg, logger)
	logger.Info("Using submission sink", "sink", sink.Name())

	orch := oracle.NewOrchestrator(fetchers, validator, engine, sink, cfg.FetchTimeout.ToDuration(), logger)

	if *runOnce {
		runAllAssets(ctx, orch, cfg.Assets, logger)
		return
	}

	// Run cycles on the configured interval until shutdown
	errChan := make(chan error, 1)
	go func() {
		errChan <- runLoop(ctx, orch, cfg, logger)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig.String())
		cancel()
	case err := <-errChan:
		if err != nil {
			logger.Error("Cycle loop failed", "error", err)
			cancel()
		}
	}

	logger.Info("Shutting down gracefully...")
	time.Sleep(200 * time.Millisecond)
	logger.Info("Shutdown complete")
}

// buildFetchers creates and starts all enabled sources from the configuration.
// Streaming sources are started immediately so their caches warm up before the
// first cycle.
func buildFetchers(ctx context.Context, cfg *config.Config, logger *logging.Logger) ([]oracle.Fetcher, []sources.Streamer, error) {
	var fetchers []oracle.Fetcher
	var streamers []sources.Streamer

	for _, sourceCfg := range cfg.Sources {
		if !sourceCfg.Enabled {
			continue
		}

		logger.Info("Initializing source", "type", sourceCfg.Type, "name", sourceCfg.Name)

		fetcher, err := sources.Create(sourceCfg.Type, sourceCfg.Name, sourceCfg.Config)
		if err != nil {
			logger.Warn("Failed to create source", "type", sourceCfg.Type, "name", sourceCfg.Name, "error", err)
			continue
		}

		if streamer, ok := fetcher.(sources.Streamer); ok {
			if err := streamer.Start(ctx); err != nil {
				logger.Warn("Failed to start source stream", "source", fetcher.Name(), "error", err)
			} else {
				streamers = append(streamers, streamer)
			}
		}

		fetchers = append(fetchers, fetcher)
		logger.Info("Source started", "source", fetcher.Name())
	}

	if len(fetchers) == 0 {
		return nil, nil, fmt.Errorf("no sources available")
	}

	return fetchers, streamers, nil
}

// buildSink creates the configured submission sink.
func buildSink(cfg *config.Config, logger *logging.Logger) oracle.Sink {
	if cfg.Submit.Type == "http" {
		return submit.NewHTTPSink(cfg.Submit.URL, cfg.Submit.Timeout.ToDuration())
	}
	return submit.NewLogSink(logger)
}

// testAllSources fetches one quote per source and asset and reports the
// results. Returns a process exit code.
func testAllSources(ctx context.Context, cfg *config.Config, fetchers []oracle.Fetcher, logger *logging.Logger) int {
	failed := 0
	for _, fetcher := range fetchers {
		for _, asset := range cfg.Assets {
			fetchCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout.ToDuration())
			quote, err := fetcher.FetchQuote(fetchCtx, asset)
			cancel()

			if err != nil {
				logger.Error("Source test failed", "source", fetcher.Name(), "asset", asset, "error", err)
				failed++
				continue
			}
			logger.Info("Source test succeeded",
				"source", fetcher.Name(),
				"asset", asset,
				"price", quote.Price,
				"confidence", quote.Confidence)
		}
	}
	return min(failed, 1)
}

// runAllAssets runs one cycle per asset concurrently.
func runAllAssets(ctx context.Context, orch *oracle.Orchestrator, assets []string, logger *logging.Logger) {
	var wg sync.WaitGroup
	for _, asset := range assets {
		wg.Add(1)
		go func(asset string) {
			defer wg.Done()
			result, err := orch.RunCycle(ctx, asset)
			if err != nil {
				logger.Error("Cycle failed", "asset", asset, "error", err)
				return
			}
			logger.Info("Cycle complete",
				"asset", asset,
				"price", result.Price,
				"confidence", result.Confidence,
				"score", result.ConsensusScore,
				"sources", result.Sources)
		}(asset)
	}
	wg.Wait()
}

// runLoop runs consensus cycles for all assets on the configured interval
// until the context is canceled.
func runLoop(ctx context.Context, orch *oracle.Orchestrator, cfg *config.Config, logger *logging.Logger) error {
	interval := cfg.UpdateInterval.ToDuration()
	logger.Info("Starting cycle loop", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First round immediately, then on every tick.
	runAllAssets(ctx, orch, cfg.Assets, logger)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			runAllAssets(ctx, orch, cfg.Assets, logger)
		}
	}
}
