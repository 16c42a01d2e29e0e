package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/himanshuo/buy-the-dip/internal/broker"
	"github.com/himanshuo/buy-the-dip/internal/config"
	"github.com/himanshuo/buy-the-dip/internal/model"
	"github.com/himanshuo/buy-the-dip/internal/notifier"
	"github.com/himanshuo/buy-the-dip/internal/quote"
	"github.com/himanshuo/buy-the-dip/internal/reasoning"
	"github.com/himanshuo/buy-the-dip/internal/recorder"
	"github.com/himanshuo/buy-the-dip/internal/scheduler"
	"github.com/himanshuo/buy-the-dip/internal/screener"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "path to configuration file")
	mode       = flag.String("mode", "screen", "run mode: screen, daemon, reconcile, buy")
	buySpec    = flag.String("buy", "", "buy intents for buy mode, e.g. NFLX:2,WMT:1")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] buy-the-dip starting...")

	if v := os.Getenv("CONFIG_PATH"); v != "" && !flagPassed("config") {
		*configPath = v
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	benchmarks := map[string]bool{cfg.Market.Benchmark: true}
	names := map[string]string{}
	watchlist := make([]string, 0, len(cfg.Watchlist))
	for _, t := range cfg.Watchlist {
		watchlist = append(watchlist, t.Symbol)
		names[t.Symbol] = t.DisplayName
		if t.Benchmark {
			benchmarks[t.Symbol] = true
		}
	}
	fetcher := quote.NewYahooFetcher(cfg.Proxy, benchmarks, names)
	log.Printf("[INFO] data source: %s", fetcher.Name())

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch *mode {
	case "screen", "daemon":
		runScreening(ctx, cfg, fetcher, rec, watchlist, *mode == "daemon")
	case "reconcile":
		runReconcile(cfg, fetcher, rec)
	case "buy":
		runBuy(cfg, fetcher, rec, *buySpec)
	default:
		log.Fatalf("[FATAL] unknown mode %q", *mode)
	}

	log.Println("[INFO] buy-the-dip done")
}

func runScreening(ctx context.Context, cfg *config.Config, fetcher quote.Fetcher, rec recorder.Recorder, watchlist []string, daemon bool) {
	var n notifier.Notifier
	var err error
	switch cfg.Notify.Channel {
	case "telegram":
		n, err = notifier.NewTelegramNotifier(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
		if err != nil {
			log.Fatalf("[FATAL] init telegram notifier: %v", err)
		}
	default:
		n = notifier.NewMailgunNotifier(
			cfg.Notify.Mailgun.Domain, cfg.Notify.Mailgun.SendKey,
			cfg.Notify.Mailgun.From, cfg.Notify.Mailgun.To, cfg.Proxy)
	}
	log.Printf("[INFO] notification channel: %s", n.Name())

	reasoner := reasoning.NewGeminiClient(cfg.Reasoning.BaseURL, cfg.Reasoning.APIKey, cfg.Reasoning.Model, cfg.Proxy)
	pipe := reasoning.NewPipeline(reasoner)
	scr := screener.New(fetcher)

	sched := scheduler.New(ctx, scr, pipe, n, rec, watchlist, cfg.Market.Benchmark)

	if !daemon {
		if err := sched.RunScreenPass(); err != nil {
			log.Fatalf("[FATAL] screening pass: %v", err)
		}
		return
	}

	if err := sched.Register(cfg.Schedule.ScreenCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing screening pass now")
		go func() {
			if err := sched.RunScreenPass(); err != nil {
				log.Printf("[ERROR] screening pass: %v", err)
			}
		}()
	}

	log.Println("[INFO] daemon running. Press Ctrl+C to stop.")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("[INFO] shutdown signal received, stopping...")
}

func newReconciler(cfg *config.Config, fetcher quote.Fetcher, rec recorder.Recorder) *broker.Reconciler {
	session, err := broker.NewSession(cfg.Broker.BaseURL, cfg.Broker.APIKey, cfg.Broker.APISecret, cfg.Broker.TokenFile)
	if err != nil {
		log.Fatalf("[FATAL] brokerage session: %v", err)
	}
	return broker.NewReconciler(broker.NewClient(session), fetcher, rec)
}

func runReconcile(cfg *config.Config, fetcher quote.Fetcher, rec recorder.Recorder) {
	r := newReconciler(cfg, fetcher, rec)
	if err := r.EnsureProtectiveSells(); err != nil {
		log.Fatalf("[FATAL] reconcile protective sells: %v", err)
	}
}

func runBuy(cfg *config.Config, fetcher quote.Fetcher, rec recorder.Recorder, spec string) {
	intents, err := parseBuySpec(spec)
	if err != nil {
		log.Fatalf("[FATAL] parse -buy: %v", err)
	}
	if len(intents) == 0 {
		log.Println("[WARN] no buy intents given, nothing to do")
		return
	}
	r := newReconciler(cfg, fetcher, rec)
	if err := r.PlaceBuyOrders(intents); err != nil {
		log.Fatalf("[FATAL] place buy orders: %v", err)
	}
}

// parseBuySpec parses "SYM:QTY,SYM:QTY" into buy intents.
func parseBuySpec(spec string) ([]model.OrderIntent, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	var intents []model.OrderIntent
	for _, part := range strings.Split(spec, ",") {
		fields := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed intent %q, want SYM:QTY", part)
		}
		qty, err := strconv.Atoi(fields[1])
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("bad quantity in %q", part)
		}
		intents = append(intents, model.OrderIntent{
			Symbol:   strings.ToUpper(fields[0]),
			Side:     model.SideBuy,
			Quantity: qty,
		})
	}
	return intents, nil
}

func flagPassed(name string) bool {
	passed := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}
