package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/lphedge/config"
	"github.com/alejandrodnm/lphedge/internal/adapters/binance"
	"github.com/alejandrodnm/lphedge/internal/adapters/notify"
	"github.com/alejandrodnm/lphedge/internal/adapters/pricefeed"
	"github.com/alejandrodnm/lphedge/internal/adapters/storage"
	"github.com/alejandrodnm/lphedge/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	dataFile := flag.String("data", "", "price file .csv|.json (overrides config)")
	events := flag.Bool("events", false, "print the rebalance events table")
	eventsCSV := flag.String("events-csv", "", "write rebalance events to this CSV file")
	sweepMode := flag.Bool("sweep", false, "run the threshold × k0 grid instead of a single backtest")
	fetch := flag.Bool("fetch", false, "download klines from Binance into the data file and exit")
	report := flag.Int("report", 0, "list the last N stored runs and exit")
	show := flag.String("show", "", "print a stored run (full ID or prefix) with its rebalances and exit")
	noStore := flag.Bool("no-store", false, "do not persist results to SQLite")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *dataFile != "" {
		cfg.Data.File = *dataFile
	}
	setupLogger(cfg.Log)

	params, err := cfg.BacktestParams()
	if err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	slog.Info("lphedge starting",
		"config", *configPath,
		"data", cfg.Data.File,
		"sweep", *sweepMode,
		"fetch", *fetch,
		"store", !*noStore,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *fetch {
		client := binance.NewClient(cfg.Fetch.BaseURL)
		if err := runFetch(ctx, client, cfg.Fetch, params, cfg.Data.File); err != nil {
			slog.Error("fetch failed", "err", err)
			os.Exit(1)
		}
		return
	}

	// Interfaz nil explícita: sin -no-store no se persiste nada
	var store ports.ResultStore
	if !*noStore || *report > 0 || *show != "" {
		db, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	}

	console := notify.NewConsole(*events, cfg.Sweep.Top)

	if *report > 0 {
		if err := runReport(ctx, store, console, *report); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if *show != "" {
		if err := runShow(ctx, store, console, *show); err != nil {
			slog.Error("show failed", "err", err)
			os.Exit(1)
		}
		return
	}

	src := pricefeed.NewFile(cfg.Data.File)

	if *sweepMode {
		err = runSweep(ctx, cfg.Sweep, params, src, cfg.Data.File, store, console)
	} else {
		err = runBacktest(ctx, params, src, cfg.Data.File, store, console, *eventsCSV)
	}
	if err != nil {
		slog.Error("lphedge exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("lphedge finished")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// stderr: stdout queda para las tablas
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
