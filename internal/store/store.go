package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"StalkMarket/internal/clock"
	"StalkMarket/internal/errs"
	"StalkMarket/internal/model"

	"github.com/google/uuid"
)

// ErrTxClosed is returned when a Tx is used after its Do callback returned.
var ErrTxClosed = errors.New("store: transaction used outside Do")

// Store keeps one JSON document per active user under dir.
// All access goes through Do, which holds a single store-wide lock.
type Store struct {
	mu    sync.Mutex
	dir   string
	clock clock.Clock
}

// New creates dir if needed and returns a Store rooted there.
func New(dir string, clk clock.Clock) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "create data dir %s", dir), errs.ErrStorage)
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Store{dir: dir, clock: clk}, nil
}

// Dir returns the directory holding the record files.
func (s *Store) Dir() string { return s.dir }

// Do runs fn with exclusive access to every record. The lock is released on
// every exit path, including panics in fn.
func (s *Store) Do(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{s: s}
	defer func() { tx.closed = true }()
	return fn(tx)
}

// Tx is the load/save contract available inside Do.
type Tx struct {
	s      *Store
	closed bool
}

func (tx *Tx) path(uid model.UserID) string {
	return filepath.Join(tx.s.dir, uid.String())
}

// Load returns the user's record, or the blank record if there is none.
func (tx *Tx) Load(uid model.UserID) (model.PriceRecord, error) {
	if tx.closed {
		return model.PriceRecord{}, ErrTxClosed
	}
	data, err := os.ReadFile(tx.path(uid))
	if err != nil {
		if os.IsNotExist(err) {
			return model.PriceRecord{}, nil
		}
		return model.PriceRecord{}, errs.Mark(errs.Wrapf(err, "read record %s", uid), errs.ErrStorage)
	}
	var rec model.PriceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.PriceRecord{}, errs.Mark(errs.Wrapf(err, "decode record %s", uid), errs.ErrStorage)
	}
	// Files written before records carried ids get a stable one derived from
	// their content, so a retried archive of the same file is recognised.
	if rec.ID == uuid.Nil && !rec.IsBlank() {
		rec.ID = uuid.NewSHA1(uuid.NameSpaceOID, append([]byte(uid.String()+":"), data...))
	}
	return rec, nil
}

// Save atomically replaces the user's record. Blank records are not kept.
func (tx *Tx) Save(uid model.UserID, rec model.PriceRecord) error {
	if tx.closed {
		return ErrTxClosed
	}
	if rec.IsBlank() {
		return tx.Remove(uid)
	}
	rec.UpdatedAt = tx.s.clock.Now()
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errs.Wrapf(err, "encode record %s", uid)
	}

	tmp, err := os.CreateTemp(tx.s.dir, "."+uid.String()+"-*")
	if err != nil {
		return errs.Mark(errs.Wrapf(err, "create temp for %s", uid), errs.ErrStorage)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errs.Mark(errs.Wrapf(err, "write record %s", uid), errs.ErrStorage)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errs.Mark(errs.Wrapf(err, "sync record %s", uid), errs.ErrStorage)
	}
	if err := tmp.Close(); err != nil {
		return errs.Mark(errs.Wrapf(err, "close record %s", uid), errs.ErrStorage)
	}
	if err := os.Rename(tmp.Name(), tx.path(uid)); err != nil {
		return errs.Mark(errs.Wrapf(err, "replace record %s", uid), errs.ErrStorage)
	}
	return nil
}

// Remove deletes the user's record. Removing a missing record is not an error.
func (tx *Tx) Remove(uid model.UserID) error {
	if tx.closed {
		return ErrTxClosed
	}
	if err := os.Remove(tx.path(uid)); err != nil && !os.IsNotExist(err) {
		return errs.Mark(errs.Wrapf(err, "remove record %s", uid), errs.ErrStorage)
	}
	return nil
}

// Users lists every user with a stored record, in ascending id order.
// Files whose names are not user ids (the archive log, temp files) are skipped.
func (tx *Tx) Users() ([]model.UserID, error) {
	if tx.closed {
		return nil, ErrTxClosed
	}
	entries, err := os.ReadDir(tx.s.dir)
	if err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "list %s", tx.s.dir), errs.ErrStorage)
	}
	var users []model.UserID
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n, err := strconv.ParseInt(e.Name(), 10, 64)
		if err != nil {
			continue
		}
		users = append(users, model.UserID(n))
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}
