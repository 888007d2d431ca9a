package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"StalkMarket/internal/clock"
	"StalkMarket/internal/model"
	"StalkMarket/internal/recorder"
	"StalkMarket/internal/store"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 18, 4, 0, 0, 0, time.UTC)

// fakeConfirmer answers every Await with ack, or blocks on gate when set.
type fakeConfirmer struct {
	mu       sync.Mutex
	ack      Ack
	gate     chan Ack
	onAwait  func()
	proposed []string
	resolved []string
	retracts int
	nextID   int64
}

func (f *fakeConfirmer) Propose(_ context.Context, chatID int64, _ model.UserID, text string) (Prompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.proposed = append(f.proposed, text)
	return Prompt{ChatID: chatID, MessageID: f.nextID}, nil
}

func (f *fakeConfirmer) Await(ctx context.Context, _ Prompt, _ model.UserID, _ time.Duration) (Ack, error) {
	if f.onAwait != nil {
		f.onAwait()
	}
	if f.gate != nil {
		select {
		case a := <-f.gate:
			return a, nil
		case <-ctx.Done():
			return AckTimeout, ctx.Err()
		}
	}
	return f.ack, nil
}

func (f *fakeConfirmer) Resolve(_ context.Context, _ Prompt, text string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, text)
	return nil
}

func (f *fakeConfirmer) Retract(context.Context, Prompt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retracts++
	return nil
}

type env struct {
	store   *store.Store
	archive *recorder.FileRecorder
	conf    *fakeConfirmer
	buy     *BuyWorkflow
	price   *PriceWorkflow
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	clk := clock.NewMockClock(testNow)
	st, err := store.New(dir, clk)
	require.NoError(t, err)
	rec, err := recorder.NewFileRecorder(dir + "/log")
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	conf := &fakeConfirmer{ack: AckConfirm}
	return &env{
		store:   st,
		archive: rec,
		conf:    conf,
		buy:     NewBuyWorkflow(st, rec, conf, clk, DefaultBuyTimings),
		price:   NewPriceWorkflow(st),
	}
}

func (e *env) load(t *testing.T, uid model.UserID) model.PriceRecord {
	t.Helper()
	var rec model.PriceRecord
	require.NoError(t, e.store.Do(func(tx *store.Tx) error {
		var err error
		rec, err = tx.Load(uid)
		return err
	}))
	return rec
}

func (e *env) archived(t *testing.T) []model.ArchiveEntry {
	t.Helper()
	entries, err := e.archive.Entries()
	require.NoError(t, err)
	return entries
}
