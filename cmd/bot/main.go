package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"StalkMarket/internal/bot"
	"StalkMarket/internal/chart"
	"StalkMarket/internal/clock"
	"StalkMarket/internal/config"
	"StalkMarket/internal/notifier"
	"StalkMarket/internal/recorder"
	"StalkMarket/internal/scheduler"
	"StalkMarket/internal/store"
	"StalkMarket/internal/tracker"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] StalkMarket starting...")

	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] no .env file found")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	clk := clock.NewRealClock()

	// Init record store
	st, err := store.New(cfg.Storage.DataDir, clk)
	if err != nil {
		log.Fatalf("[FATAL] open record store: %v", err)
	}

	// Init archive: the JSON log is authoritative, SQLite is an optional mirror
	archive, err := recorder.NewFileRecorder(cfg.Storage.ArchiveFile)
	if err != nil {
		log.Fatalf("[FATAL] open archive log: %v", err)
	}
	rec := recorder.Multi{archive}
	if cfg.Storage.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Storage.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, archiving to file only: %v", err)
		} else {
			rec = append(rec, sr)
		}
	}
	defer func() {
		if err := rec.Close(); err != nil {
			log.Printf("[WARN] close archive: %v", err)
		}
	}()

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.APIURL, cfg.Telegram.BotToken, cfg.Telegram.OwnerChatID, cfg.Proxy)
	confirms := notifier.NewConfirmations(tn)

	// Init workflows
	buy := tracker.NewBuyWorkflow(st, rec, confirms, clk, tracker.BuyTimings{
		Timeout:      cfg.Buy.ConfirmTimeout,
		CancelExpiry: cfg.Buy.CancelExpiry,
		ResultExpiry: cfg.Buy.ResultExpiry,
	})
	price := tracker.NewPriceWorkflow(st)
	renderer := chart.NewQuickChartRenderer(cfg.Chart.QuickChartURL, cfg.Proxy, cfg.Chart.Width, cfg.Chart.Height)
	b := bot.New(st, buy, price, renderer, tn)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, st, rec, tn, clk, loc)
	if err := sched.Register(cfg.Schedule.RolloverCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, b.HandleMessage, confirms.HandleCallback)
	log.Println("[INFO] Telegram polling started")

	if cfg.Schedule.RolloverOnStart {
		log.Println("[INFO] ROLLOVER_ON_START enabled, executing rollover now")
		go sched.RunRolloverNow()
	}

	log.Println("[INFO] StalkMarket is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	b.Wait()
	tn.StopTimers()
	log.Println("[INFO] StalkMarket stopped")
}
