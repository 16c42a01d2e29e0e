package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/himanshuo/buy-the-dip/internal/notifier"
	"github.com/himanshuo/buy-the-dip/internal/reasoning"
	"github.com/himanshuo/buy-the-dip/internal/recorder"
	"github.com/himanshuo/buy-the-dip/internal/screener"

	"github.com/robfig/cron/v3"
)

// Scheduler runs screening passes, either once or on a cron in daemon mode.
type Scheduler struct {
	Cron      *cron.Cron
	Screener  *screener.Screener
	Pipeline  *reasoning.Pipeline
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Watchlist []string
	Benchmark string
	Ctx       context.Context
}

// New creates a Scheduler.
func New(ctx context.Context, scr *screener.Screener, pipe *reasoning.Pipeline, n notifier.Notifier, rec recorder.Recorder, watchlist []string, benchmark string) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Screener:  scr,
		Pipeline:  pipe,
		Notifier:  n,
		Recorder:  rec,
		Watchlist: watchlist,
		Benchmark: benchmark,
		Ctx:       ctx,
	}
}

// Register adds the screening pass to the cron schedule.
func (s *Scheduler) Register(screenCron string) error {
	if _, err := s.Cron.AddFunc(screenCron, func() {
		if err := s.RunScreenPass(); err != nil {
			log.Printf("[ERROR] screening pass: %v", err)
			if nerr := s.Notifier.Send("screening pass failed", err.Error()); nerr != nil {
				log.Printf("[ERROR] notify pass failure: %v", nerr)
			}
		}
	}); err != nil {
		return fmt.Errorf("register screen task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunScreenPass executes one full screen-then-verdict pass over the
// watch-list. A benchmark failure or rate limit is returned as a fatal pass
// error; per-ticker failures are logged and counted, never fatal.
func (s *Scheduler) RunScreenPass() error {
	start := time.Now()
	log.Printf("[INFO] screening %d tickers against %s", len(s.Watchlist), s.Benchmark)

	pass := &recorder.PassRecord{Benchmark: s.Benchmark, Screened: len(s.Watchlist)}
	defer func() {
		pass.Duration = time.Since(start)
		if err := s.Recorder.RecordPass(pass); err != nil {
			log.Printf("[ERROR] record pass: %v", err)
		}
	}()

	mkt, err := s.Screener.MarketContext(s.Benchmark)
	if err != nil {
		return err
	}
	pass.MarketChange = mkt.Change

	signals, err := s.Screener.ScreenWith(mkt, s.Watchlist)
	pass.Alerted = len(signals)
	if err != nil {
		// Rate limit: report what was already screened, then abort the pass.
		return err
	}

	for _, sig := range signals {
		verdict, err := s.Pipeline.Evaluate(s.Ctx, sig)
		if err != nil {
			// A verdict failure only loses this ticker, never the pass.
			log.Printf("[WARN] verdict for %s failed, skipping: %v", sig.Symbol, err)
			pass.Skipped++
			continue
		}
		if !verdict.Actionable() {
			log.Printf("[INFO] %s dropped: confirmed=%v long_term=%v", sig.Symbol, verdict.IsConfirmedDrop, verdict.IsLongTerm)
			continue
		}

		body := notifier.FormatAlert(sig, verdict)
		if err := s.Notifier.Send(sig.Symbol, body); err != nil {
			log.Printf("[ERROR] notify %s via %s: %v", sig.Symbol, s.Notifier.Name(), err)
			continue
		}
		pass.Notified++
		log.Printf("[INFO] alert sent for %s", sig.Symbol)
	}

	log.Printf("[INFO] pass complete: %d alerts, %d notified, %d skipped, took %v",
		pass.Alerted, pass.Notified, pass.Skipped, time.Since(start))
	return nil
}
