package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"indicatorEngine/config"
	"indicatorEngine/internal/adapters/binanceclient"
	"indicatorEngine/internal/adapters/logger"
	"indicatorEngine/internal/adapters/sqlite"
	"indicatorEngine/internal/app"
	"indicatorEngine/internal/ports"
	"indicatorEngine/internal/utils"
)

func main() {
	symbol := flag.String("symbol", "ETHUSDT", "trading symbol")
	interval := flag.String("interval", "1h", "kline interval")
	period := flag.String("period", "3mo", "lookback period ("+strings.Join(app.Periods(), ", ")+")")
	out := flag.String("out", "", "CSV output path (default data/<symbol>_<interval>_<start>_to_<end>.csv)")
	incremental := flag.Bool("incremental", false, "resume after the newest stored kline")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	ctx := context.Background()

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.Config{Level: cfg.LogLevel.String(), Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}

	// 3. Initialize Repository and Exchange Client
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer repo.Close()

	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	sym := strings.ToUpper(*symbol)
	start, end := app.ResolvePeriod(*period, time.Now().UTC())
	if *incremental {
		latest, err := repo.LatestOpenTime(ctx, sym, *interval)
		switch {
		case err == nil && latest.After(start):
			start = latest.Add(time.Millisecond)
		case err != nil && !errors.Is(err, ports.ErrNotFound):
			log.Fatalf("Error reading stored klines: %v", err)
		}
	}

	fmt.Printf("Fetching klines for %s %s from %s to %s...\n", sym, *interval, start.Format(time.RFC3339), end.Format(time.RFC3339))
	klines, err := binanceClient.FetchPriceHistory(ctx, sym, *interval, start, end)
	if err != nil {
		log.Fatalf("Error fetching klines: %v", err)
	}
	appLogger.Info(ctx, "Fetched klines", map[string]interface{}{"count": len(klines)})

	if err := repo.SaveKlines(ctx, klines); err != nil {
		log.Fatalf("Error storing klines: %v", err)
	}

	filename := *out
	if filename == "" {
		filename = fmt.Sprintf("data/%s_%s_%s_to_%s.csv", sym, *interval, start.Format("20060102"), end.Format("20060102"))
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		log.Fatalf("Error creating output directory: %v", err)
	}
	if err := utils.WriteKlinesToCSV(klines, filename); err != nil {
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": filename, "db": cfg.DBPath})
}
