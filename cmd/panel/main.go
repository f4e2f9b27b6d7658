package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ConcentrationPanel/internal/config"
	"ConcentrationPanel/internal/fund"
	"ConcentrationPanel/internal/notifier"
	"ConcentrationPanel/internal/recorder"
	"ConcentrationPanel/internal/report"
	"ConcentrationPanel/internal/scheduler"
	"ConcentrationPanel/internal/source"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] ConcentrationPanel starting...")

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

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init fund manager
	fetcher := source.NewYahooFetcher(cfg.Proxy)
	fm, err := fund.NewManager(cfg, fetcher, report.NewWriter(cfg.Output.Dir), rec)
	if err != nil {
		log.Fatalf("[FATAL] init fund manager: %v", err)
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var n notifier.Notifier = notifier.NoopNotifier{}
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Without a schedule, run once and exit
	if cfg.Schedule.Cron == "" {
		summary, err := fm.RunAll(ctx)
		if err := n.SendWithRetry(ctx, notifier.FormatRunSummary(summary), 3); err != nil {
			log.Printf("[ERROR] send notification: %v", err)
		}
		if err != nil {
			rec.Close()
			log.Fatalf("[FATAL] run: %v", err)
		}
		log.Println("[INFO] ConcentrationPanel finished")
		return
	}

	sched := scheduler.NewScheduler(ctx, fm, n)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, running all funds now")
		go sched.RunNow()
	}

	log.Printf("[INFO] ConcentrationPanel is running on %q. Press Ctrl+C to stop.", cfg.Schedule.Cron)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] ConcentrationPanel stopped")
}
