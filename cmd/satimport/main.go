// Command satimport drives the SAT question import pipeline from the
// command line. Runs are resumable: progress is tracked per partition in a
// local file and an interrupted run picks up where it stopped.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/openprep/sat-import-service/internal/cache"
	"github.com/openprep/sat-import-service/internal/config"
	"github.com/openprep/sat-import-service/internal/models"
	"github.com/openprep/sat-import-service/internal/progress"
	"github.com/openprep/sat-import-service/internal/qbank"
	"github.com/openprep/sat-import-service/internal/repositories/postgres"
	"github.com/openprep/sat-import-service/internal/services"
	"github.com/openprep/sat-import-service/internal/taxonomy"
	"github.com/openprep/sat-import-service/internal/utils"
	"github.com/openprep/sat-import-service/internal/validator"
	"github.com/openprep/sat-import-service/pkg"
)

func main() {
	domain := flag.String("domain", "", "domain code to import (see -list-domains)")
	eventsFlag := flag.String("events", "", "comma-separated assessment event ids (default 99,100,102)")
	all := flag.Bool("all", false, "import every domain of both tests")
	allMath := flag.Bool("all-math", false, "import every math domain")
	allReading := flag.Bool("all-reading", false, "import every reading/writing domain")
	listDomains := flag.Bool("list-domains", false, "print known domain codes and exit")
	startIndex := flag.Int("start-index", -1, "explicit start index for a single partition (-1 resumes from stored progress)")
	maxQuestions := flag.Int("max-questions", 0, "cap on questions processed per partition (0 uses the rate-limit threshold)")
	resetKey := flag.String("reset", "", "clear stored progress for a partition key (e.g. T2-H-99) and exit")
	reportPath := flag.String("report", "", "write an xlsx progress report to the given path and exit")
	flag.Parse()

	if *listDomains {
		printDomains()
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := utils.ForEnvironment(cfg.Environment)

	store, err := progress.Open(cfg.ProgressFile)
	if err != nil {
		logger.LogError(err, "failed to open progress file", "path", cfg.ProgressFile)
		os.Exit(1)
	}

	if *resetKey != "" {
		if !store.Has(*resetKey) {
			logger.Warn("no stored progress for partition", "partition", *resetKey)
			return
		}
		if err := store.Reset(*resetKey); err != nil {
			logger.LogError(err, "failed to reset partition", "partition", *resetKey)
			os.Exit(1)
		}
		logger.Info("partition progress cleared", "partition", *resetKey)
		return
	}

	if *reportPath != "" {
		data, err := services.NewReportService(store, logger).ExportProgressToExcel()
		if err != nil {
			logger.LogError(err, "failed to build progress report")
			os.Exit(1)
		}
		if err := os.WriteFile(*reportPath, data, 0o644); err != nil {
			logger.LogError(err, "failed to write progress report", "path", *reportPath)
			os.Exit(1)
		}
		logger.Info("progress report written", "path", *reportPath)
		return
	}

	svc, cleanup, err := buildImportService(cfg, store, logger)
	if err != nil {
		logger.LogError(err, "setup failed")
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var results []*services.BatchResult
	switch {
	case *all:
		results, err = svc.ImportAll(ctx)
	case *allMath:
		results, err = svc.ImportTest(ctx, taxonomy.TestMath)
	case *allReading:
		results, err = svc.ImportTest(ctx, taxonomy.TestReadingWriting)
	case *domain != "":
		eventIDs, perr := parseEventIDs(*eventsFlag)
		if perr != nil {
			logger.LogError(perr, "invalid -events value", "value", *eventsFlag)
			os.Exit(1)
		}
		if *startIndex >= 0 || *maxQuestions > 0 {
			results, err = importSinglePartition(ctx, svc, *domain, eventIDs, *startIndex, *maxQuestions, logger)
		} else {
			results, err = svc.ImportDomain(ctx, *domain, eventIDs)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.LogError(err, "import failed")
		os.Exit(1)
	}
	printSummary(logger, results)
}

// importSinglePartition handles explicit -start-index / -max-questions runs,
// which only make sense against exactly one partition.
func importSinglePartition(ctx context.Context, svc services.ImportService, domain string, eventIDs []int, startIndex, maxQuestions int, logger utils.Logger) ([]*services.BatchResult, error) {
	info, ok := taxonomy.Domains[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", services.ErrUnknownDomain, domain)
	}
	if len(eventIDs) != 1 {
		return nil, fmt.Errorf("-start-index and -max-questions need exactly one event id, got %d", len(eventIDs))
	}

	partition := models.Partition{TestID: info.TestID, Domain: domain, EventID: eventIDs[0]}
	result, err := svc.ImportPartition(ctx, partition, services.ImportOptions{
		StartIndex:   startIndex,
		MaxQuestions: maxQuestions,
	})
	if err != nil {
		return nil, err
	}
	return []*services.BatchResult{result}, nil
}

func buildImportService(cfg *config.Config, store *progress.Store, logger utils.Logger) (services.ImportService, func(), error) {
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.LogError(err, "redis unavailable, existence cache disabled")
		redisClient = nil
	}
	repo := postgres.NewQuestionPostgreSQL(db, cache.NewExistenceCache(redisClient, 0))

	client := qbank.NewClient(qbank.ClientConfig{
		OverviewURL:     cfg.QbankOverviewURL,
		QuestionURL:     cfg.QbankQuestionURL,
		LegacyBaseURL:   cfg.QbankLegacyBaseURL,
		OverviewTimeout: cfg.OverviewTimeout,
		DetailTimeout:   cfg.DetailTimeout,
	})

	publisher, err := cfg.Events.CreateEventPublisher(utils.ToSlogLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("create event publisher: %w", err)
	}

	svc := services.NewImportService(client, repo, store, publisher, validator.New(), logger, services.ImportServiceConfig{
		RateLimitThreshold: cfg.RateLimitThreshold,
		Pacing: services.PacingConfig{
			ItemDelay:       cfg.ItemDelay,
			LightPauseEvery: cfg.LightPauseEvery,
			LightPause:      cfg.LightPause,
			HeavyPauseEvery: cfg.HeavyPauseEvery,
			HeavyPause:      cfg.HeavyPause,
		},
	})

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			logger.LogError(err, "failed to close event publisher")
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		if redisClient != nil {
			redisClient.Close()
		}
	}
	return svc, cleanup, nil
}

func parseEventIDs(value string) ([]int, error) {
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("event id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printDomains() {
	fmt.Println("Reading and Writing (test 1):")
	for _, code := range taxonomy.ReadingDomains {
		fmt.Printf("  %-4s %s\n", code, taxonomy.Domains[code].Name)
	}
	fmt.Println("Math (test 2):")
	for _, code := range taxonomy.MathDomains {
		fmt.Printf("  %-4s %s\n", code, taxonomy.Domains[code].Name)
	}
}

func printSummary(logger utils.Logger, results []*services.BatchResult) {
	var imported, duplicates, skipped, failed int
	for _, result := range results {
		logger.Info("partition summary",
			"partition", result.Partition.Key(),
			"imported", result.Imported,
			"duplicates", result.Duplicates,
			"skipped", result.Skipped,
			"failed", result.Failed,
			"next_index", result.NextIndex,
			"total", result.TotalQuestions,
			"completed", result.Completed())
		imported += result.Imported
		duplicates += result.Duplicates
		skipped += result.Skipped
		failed += result.Failed
	}
	logger.Info("import run finished",
		"partitions", len(results),
		"imported", imported,
		"duplicates", duplicates,
		"skipped", skipped,
		"failed", failed)
}
