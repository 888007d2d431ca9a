package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"StalkMarket/internal/clock"
	"StalkMarket/internal/errs"
	"StalkMarket/internal/model"
	"StalkMarket/internal/recorder"
	"StalkMarket/internal/store"

	"github.com/robfig/cron/v3"
)

// Alerter forwards problems to whoever operates the bot.
type Alerter interface {
	NotifyOperator(ctx context.Context, text string) error
}

// Scheduler runs the weekly rollover.
type Scheduler struct {
	Cron     *cron.Cron
	Store    *store.Store
	Recorder recorder.Recorder
	Alerter  Alerter
	Clock    clock.Clock
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler. A tick that fires while the previous
// rollover is still running is skipped, not queued.
func NewScheduler(ctx context.Context, st *store.Store, rec recorder.Recorder, alerter Alerter, clk clock.Clock, loc *time.Location) *Scheduler {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Store:    st,
		Recorder: rec,
		Alerter:  alerter,
		Clock:    clk,
		Ctx:      ctx,
	}
}

// Register adds the rollover job on rolloverCron (six fields, seconds first).
func (s *Scheduler) Register(rolloverCron string) error {
	if _, err := s.Cron.AddFunc(rolloverCron, s.rolloverTask); err != nil {
		return fmt.Errorf("register rollover task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running rollover to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunRolloverNow executes the rollover immediately (for ROLLOVER_ON_START).
func (s *Scheduler) RunRolloverNow() {
	s.rolloverTask()
}

// Report summarises one rollover run.
type Report struct {
	Archived []model.UserID
	Cleared  []model.UserID
	Failed   map[model.UserID]error
}

func (s *Scheduler) rolloverTask() {
	log.Println("[INFO] running weekly rollover")
	report, err := s.Rollover()
	if err != nil {
		log.Printf("[ERROR] rollover: %v", err)
		s.tryAlert(fmt.Sprintf("❌ Weekly rollover failed: %v", err))
		return
	}
	log.Printf("[INFO] rollover done: %d archived, %d blank cleared, %d failed",
		len(report.Archived), len(report.Cleared), len(report.Failed))
	if len(report.Failed) > 0 {
		s.tryAlert(formatFailures(report.Failed))
	}
}

// Rollover archives every active record and clears it, under the store lock.
// A failure on one user is recorded in the report and the sweep goes on.
func (s *Scheduler) Rollover() (*Report, error) {
	report := &Report{Failed: make(map[model.UserID]error)}
	err := s.Store.Do(func(tx *store.Tx) error {
		users, err := tx.Users()
		if err != nil {
			return err
		}
		date := s.Clock.Now()
		for _, uid := range users {
			archived, err := s.rolloverUser(tx, uid, date)
			switch {
			case err != nil:
				log.Printf("[ERROR] rollover user %s: %v", uid, err)
				report.Failed[uid] = err
			case archived:
				report.Archived = append(report.Archived, uid)
			default:
				report.Cleared = append(report.Cleared, uid)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(err, "rollover")
	}
	return report, nil
}

// rolloverUser appends the record to the archive before removing it, so a
// failure leaves the active record in place. If removal fails after the
// append, the next run re-appends the same record id, which the recorder ignores.
func (s *Scheduler) rolloverUser(tx *store.Tx, uid model.UserID, date time.Time) (bool, error) {
	rec, err := tx.Load(uid)
	if err != nil {
		return false, err
	}
	if rec.IsBlank() {
		return false, tx.Remove(uid)
	}
	if err := s.Recorder.Append(&model.ArchiveEntry{Record: rec, UserID: uid, Date: date}); err != nil {
		return false, errs.Wrapf(err, "archive %s", uid)
	}
	if err := tx.Remove(uid); err != nil {
		return false, err
	}
	return true, nil
}

func formatFailures(failed map[model.UserID]error) string {
	uids := make([]model.UserID, 0, len(failed))
	for uid := range failed {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })

	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ Weekly rollover could not archive %d user(s):\n", len(uids))
	for _, uid := range uids {
		fmt.Fprintf(&b, "• %s: %v\n", uid, failed[uid])
	}
	return b.String()
}

func (s *Scheduler) tryAlert(text string) {
	if s.Alerter == nil {
		return
	}
	if err := s.Alerter.NotifyOperator(s.Ctx, text); err != nil {
		log.Printf("[ERROR] notify operator: %v", err)
	}
}
