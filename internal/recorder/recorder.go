package recorder

import "StalkMarket/internal/model"

// Recorder appends archived records to the permanent log.
// Appending an entry whose record id was already recorded is a no-op, so a
// retried rollover never duplicates a week.
type Recorder interface {
	Append(entry *model.ArchiveEntry) error
	Close() error
}
