package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/profitcalc/config"
	"github.com/alejandrodnm/profitcalc/internal/adapters/notify"
	"github.com/alejandrodnm/profitcalc/internal/adapters/storage"
	"github.com/alejandrodnm/profitcalc/internal/calculator"
	"github.com/alejandrodnm/profitcalc/internal/domain"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	serve := flag.Bool("serve", false, "run the HTTP server and offline cache manager")

	cost := flag.String("cost", "", "cost price (₫)")
	fee := flag.String("fee", "", "platform fee percent")
	platform := flag.String("platform", "", "platform preset for the fee: shopee|tiktok|lazada")
	shipping := flag.String("shipping", "", "shipping fee (₫)")
	ads := flag.String("ads", "", "ads cost per order (₫)")
	price := flag.String("price", "", "selling price (₫)")
	target := flag.String("target", "", "desired profit percent: suggest a selling price")
	save := flag.Bool("save", false, "save the calculation to history")
	note := flag.String("note", "", "note stored with -save")
	history := flag.Bool("history", false, "print saved calculations and exit")
	share := flag.String("share", "", "print a share text with this URL")
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
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stores, err := openBackend(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "backend", cfg.Storage.Backend)
		os.Exit(1)
	}
	defer stores.Close()

	calcCfg := calculator.Config{
		HistoryLimit: cfg.Calculator.HistoryLimit,
		Platforms:    cfg.Calculator.Platforms,
		AppVersion:   cfg.Calculator.AppVersion,
	}
	gateway := storage.NewGateway(stores.kv)

	if *serve {
		svc := calculator.New(calcCfg, gateway, nil)
		if err := runServer(ctx, cfg, svc, stores.caches); err != nil {
			slog.Error("server exited with error", "err", err)
			os.Exit(1)
		}
		slog.Info("profitcalc stopped cleanly")
		return
	}

	console := notify.NewConsole(true)
	svc := calculator.New(calcCfg, gateway, console)

	if v := svc.CheckVersion(ctx); v.Updated {
		console.Notice("updated to version %s (was %s)", v.Current, v.Previous)
	}

	if *history {
		console.PrintHistory(svc.History(ctx))
		return
	}

	raw := domain.RawInput{
		CostPrice:          domain.RawValue(*cost),
		PlatformFeePercent: domain.RawValue(*fee),
		ShippingFee:        domain.RawValue(*shipping),
		AdsCost:            domain.RawValue(*ads),
		SellingPrice:       domain.RawValue(*price),
	}
	opts := calcOptions{
		platform: *platform,
		target:   *target,
		save:     *save,
		note:     *note,
		share:    *share,
	}
	if err := runCalc(ctx, svc, console, raw, opts); err != nil {
		os.Exit(1)
	}
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

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
