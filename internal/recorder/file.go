package recorder

import (
	"bufio"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"StalkMarket/internal/errs"
	"StalkMarket/internal/model"

	"github.com/google/uuid"
)

// FileRecorder writes one JSON document per line to an append-only file.
type FileRecorder struct {
	mu   sync.Mutex
	path string
	f    *os.File
	seen map[uuid.UUID]struct{}
}

// NewFileRecorder opens (or creates) the log at path and indexes the record
// ids it already holds.
func NewFileRecorder(path string) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "create archive dir for %s", path), errs.ErrStorage)
	}
	r := &FileRecorder{path: path, seen: make(map[uuid.UUID]struct{})}
	entries, err := r.Entries()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Record.ID != uuid.Nil {
			r.seen[e.Record.ID] = struct{}{}
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "open archive %s", path), errs.ErrStorage)
	}
	r.f = f
	log.Printf("[INFO] archive log opened: %s (%d entries)", path, len(entries))
	return r, nil
}

func (r *FileRecorder) Append(entry *model.ArchiveEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := entry.Record.ID
	if id != uuid.Nil {
		if _, ok := r.seen[id]; ok {
			log.Printf("[INFO] archive already holds record %s for user %s, skipping", id, entry.UserID)
			return nil
		}
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return errs.Wrap(err, "encode archive entry")
	}
	line = append(line, '\n')
	if _, err := r.f.Write(line); err != nil {
		return errs.Mark(errs.Wrapf(err, "append archive %s", r.path), errs.ErrStorage)
	}
	if err := r.f.Sync(); err != nil {
		return errs.Mark(errs.Wrapf(err, "sync archive %s", r.path), errs.ErrStorage)
	}
	if id != uuid.Nil {
		r.seen[id] = struct{}{}
	}
	return nil
}

// Entries reads the whole log back. Lines that do not decode, such as a
// partial line left by a crash, are skipped with a warning.
func (r *FileRecorder) Entries() ([]model.ArchiveEntry, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Mark(errs.Wrapf(err, "open archive %s", r.path), errs.ErrStorage)
	}
	defer f.Close()

	var out []model.ArchiveEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e model.ArchiveEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			log.Printf("[WARN] archive %s line %d: %v", r.path, lineNo, err)
			continue
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "scan archive %s", r.path), errs.ErrStorage)
	}
	return out, nil
}

func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
