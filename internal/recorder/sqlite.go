package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"StalkMarket/internal/errs"
	"StalkMarket/internal/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder mirrors the archive log into a SQLite database so past weeks
// can be queried per slot.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// slotColumns are mon_am .. sat_pm in slot order.
var slotColumns = func() []string {
	cols := make([]string, model.NumSlots)
	for i := range cols {
		s := model.SlotAt(i)
		cols[i] = s.Day.String() + "_" + s.Period.String()
	}
	return cols
}()

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	var slotDefs strings.Builder
	for _, c := range slotColumns {
		fmt.Fprintf(&slotDefs, "\t\t\t%s INTEGER,\n", c)
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS archive_entries (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id    TEXT UNIQUE,
			user_id      INTEGER NOT NULL,
			archived_on  TEXT NOT NULL,
			buy_price    INTEGER,
			buy_quantity INTEGER,
` + slotDefs.String() + `			document     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_user ON archive_entries(user_id, archived_on)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Append(entry *model.ArchiveEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := json.Marshal(entry)
	if err != nil {
		return errs.Wrap(err, "encode archive entry")
	}

	rec := entry.Record
	var recordID, buyPrice, buyQty interface{}
	if rec.ID != uuid.Nil {
		recordID = rec.ID.String()
	}
	if rec.Buy.IsSet() {
		buyPrice, buyQty = rec.Buy.Price, rec.Buy.Quantity
	}

	cols := append([]string{"record_id", "user_id", "archived_on", "buy_price", "buy_quantity"}, slotColumns...)
	cols = append(cols, "document")
	args := []interface{}{recordID, int64(entry.UserID), entry.Date.Format(model.DateLayout), buyPrice, buyQty}
	for i := 0; i < model.NumSlots; i++ {
		if p, ok := rec.Price(model.SlotAt(i)); ok {
			args = append(args, p)
		} else {
			args = append(args, nil)
		}
	}
	args = append(args, string(doc))

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	_, err = r.db.Exec(`INSERT OR IGNORE INTO archive_entries (`+strings.Join(cols, ", ")+`)
		VALUES (`+placeholders+`)`, args...)
	if err != nil {
		return errs.Mark(errs.Wrapf(err, "insert archive entry for %s", entry.UserID), errs.ErrStorage)
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
