package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/reviewhub/backend/internal/analytics/snapshot"
	"github.com/reviewhub/backend/internal/analytics/trend"
	"github.com/reviewhub/backend/internal/storage/models"
	"github.com/reviewhub/backend/internal/storage/sqlite"
	"github.com/reviewhub/backend/pkg/config"
	appLogger "github.com/reviewhub/backend/pkg/logger"
	"github.com/reviewhub/backend/pkg/retry"
)

// The aggregator is the nightly batch: daily snapshots for every product and
// category, then trend ranking for each period. Entities that fail are
// skipped and logged so one bad row cannot stall the whole run.
func main() {
	dateFlag := flag.String("date", "", "snapshot date in YYYY-MM-DD format (default: today)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	day := time.Now().UTC()
	if *dateFlag != "" {
		day, err = time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			appLogger.Fatal("Invalid -date value", zap.String("date", *dateFlag), zap.Error(err))
		}
	}

	appLogger.Info("Starting aggregation run", zap.String("date", day.Format("2006-01-02")))

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	ctx := context.Background()
	retryCfg := retry.DefaultConfig()

	aggregator := snapshot.NewAggregator(sqliteClient)
	scorer := trend.NewScorer(sqliteClient)

	productIDs, err := sqliteClient.ListProductIDs(ctx)
	if err != nil {
		appLogger.Fatal("Failed to list products", zap.Error(err))
	}

	var failed int
	for _, id := range productIDs {
		productID := id
		err := retry.Do(ctx, retryCfg, func() error {
			_, err := aggregator.ProductDaily(ctx, productID, day)
			return err
		})
		if err != nil {
			failed++
			appLogger.Error("Product snapshot failed, skipping",
				zap.String("product_id", productID),
				zap.Error(err),
			)
		}
	}
	appLogger.Info("Product snapshots done",
		zap.Int("total", len(productIDs)),
		zap.Int("failed", failed),
	)

	categoryIDs, err := sqliteClient.ListCategoryIDs(ctx)
	if err != nil {
		appLogger.Fatal("Failed to list categories", zap.Error(err))
	}

	failed = 0
	for _, id := range categoryIDs {
		categoryID := id
		err := retry.Do(ctx, retryCfg, func() error {
			_, err := aggregator.CategoryDaily(ctx, categoryID, day)
			return err
		})
		if err != nil {
			failed++
			appLogger.Error("Category snapshot failed, skipping",
				zap.String("category_id", categoryID),
				zap.Error(err),
			)
		}
	}
	appLogger.Info("Category snapshots done",
		zap.Int("total", len(categoryIDs)),
		zap.Int("failed", failed),
	)

	// Ranking runs after snapshots so the trend window sees today's data.
	periods := []models.TrendPeriod{models.PeriodDaily, models.PeriodWeekly, models.PeriodMonthly}
	for _, period := range periods {
		p := period
		err := retry.Do(ctx, retryCfg, func() error {
			_, err := scorer.RankPeriod(ctx, p, day, trend.WindowForPeriod(p))
			return err
		})
		if err != nil {
			appLogger.Error("Trend ranking failed",
				zap.String("period", string(p)),
				zap.Error(err),
			)
		}
	}

	appLogger.Info("Aggregation run complete", zap.String("date", day.Format("2006-01-02")))
}
