package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"StalkMarket/internal/clock"
	"StalkMarket/internal/errs"
	"StalkMarket/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), clock.NewMockClock(testNow))
	require.NoError(t, err)
	return s
}

func TestLoad_MissingUserIsBlank(t *testing.T) {
	s := newTestStore(t)
	err := s.Do(func(tx *Tx) error {
		rec, err := tx.Load(7)
		require.NoError(t, err)
		assert.True(t, rec.IsBlank())
		return nil
	})
	require.NoError(t, err)
}

func TestSaveLoad(t *testing.T) {
	s := newTestStore(t)
	rec := model.NewRecord(model.Buy{Price: 100, Quantity: 10})
	rec.SetPrice(model.Slot{Day: model.Thu, Period: model.PM}, 133)

	require.NoError(t, s.Do(func(tx *Tx) error { return tx.Save(42, rec) }))

	var got model.PriceRecord
	require.NoError(t, s.Do(func(tx *Tx) error {
		var err error
		got, err = tx.Load(42)
		return err
	}))
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Buy, got.Buy)
	assert.Equal(t, rec.Prices, got.Prices)
	assert.True(t, got.UpdatedAt.Equal(testNow))

	_, err := os.Stat(filepath.Join(s.Dir(), "42"))
	assert.NoError(t, err)
}

func TestSave_BlankRemovesFile(t *testing.T) {
	s := newTestStore(t)
	rec := model.NewRecord(model.Buy{Price: 90, Quantity: 1})
	require.NoError(t, s.Do(func(tx *Tx) error { return tx.Save(1, rec) }))
	require.NoError(t, s.Do(func(tx *Tx) error { return tx.Save(1, model.PriceRecord{}) }))

	_, err := os.Stat(filepath.Join(s.Dir(), "1"))
	assert.True(t, os.IsNotExist(err))
}

func TestUsers_SkipsForeignFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "log"), []byte("{}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), ".9-123"), []byte("x"), 0o644))

	rec := model.NewRecord(model.Buy{Price: 90, Quantity: 1})
	var users []model.UserID
	require.NoError(t, s.Do(func(tx *Tx) error {
		for _, uid := range []model.UserID{30, 2, 11} {
			if err := tx.Save(uid, rec); err != nil {
				return err
			}
		}
		var err error
		users, err = tx.Users()
		return err
	}))
	assert.Equal(t, []model.UserID{2, 11, 30}, users)
}

func TestLoad_LegacyFileGetsStableID(t *testing.T) {
	s := newTestStore(t)
	legacy := `{"buy": {"price": 100, "quantity": 5}, "price": {"mon": {"am": 90, "pm": null}}}`
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "5"), []byte(legacy), 0o644))

	var first, second model.PriceRecord
	require.NoError(t, s.Do(func(tx *Tx) error {
		var err error
		if first, err = tx.Load(5); err != nil {
			return err
		}
		second, err = tx.Load(5)
		return err
	}))
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, first.ID, second.ID)
}

func TestLoad_CorruptFileIsStorageError(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "3"), []byte("{not json"), 0o644))

	err := s.Do(func(tx *Tx) error {
		_, err := tx.Load(3)
		return err
	})
	assert.True(t, errs.Is(err, errs.ErrStorage))
}

func TestTx_UnusableAfterDo(t *testing.T) {
	s := newTestStore(t)
	var leaked *Tx
	require.NoError(t, s.Do(func(tx *Tx) error { leaked = tx; return nil }))

	_, err := leaked.Load(1)
	assert.ErrorIs(t, err, ErrTxClosed)
	assert.ErrorIs(t, leaked.Save(1, model.PriceRecord{}), ErrTxClosed)
}

func TestDo_SerializesReadModifyWrite(t *testing.T) {
	s := newTestStore(t)
	slot := model.Slot{Day: model.Mon, Period: model.AM}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(func(tx *Tx) error {
				rec, err := tx.Load(1)
				if err != nil {
					return err
				}
				p, _ := rec.Price(slot)
				rec.SetPrice(slot, p+1)
				return tx.Save(1, rec)
			})
		}()
	}
	wg.Wait()

	require.NoError(t, s.Do(func(tx *Tx) error {
		rec, err := tx.Load(1)
		require.NoError(t, err)
		p, _ := rec.Price(slot)
		assert.Equal(t, int64(50), p)
		return nil
	}))
}

func TestDo_ReleasesLockOnPanic(t *testing.T) {
	s := newTestStore(t)
	func() {
		defer func() { _ = recover() }()
		_ = s.Do(func(tx *Tx) error { panic("boom") })
	}()

	done := make(chan struct{})
	go func() {
		_ = s.Do(func(tx *Tx) error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock not released after panic")
	}
}
