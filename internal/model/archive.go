package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the archive date format.
const DateLayout = "2006-01-02"

// ArchiveEntry is one line of the append-only archive log.
type ArchiveEntry struct {
	Record PriceRecord
	UserID UserID
	Date   time.Time
}

type wireArchiveEntry struct {
	wireRecord
	UserID string `json:"userid"`
	Date   string `json:"date"`
}

func (e ArchiveEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireArchiveEntry{
		wireRecord: e.Record.toWire(),
		UserID:     e.UserID.String(),
		Date:       e.Date.Format(DateLayout),
	})
}

func (e *ArchiveEntry) UnmarshalJSON(data []byte) error {
	var w wireArchiveEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if err := e.Record.fromWire(w.wireRecord); err != nil {
		return err
	}
	uid, err := ParseUserID(w.UserID)
	if err != nil {
		return err
	}
	date, err := time.Parse(DateLayout, w.Date)
	if err != nil {
		return fmt.Errorf("parse archive date: %w", err)
	}
	e.UserID = uid
	e.Date = date
	return nil
}
