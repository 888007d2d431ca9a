package recorder

import (
	"StalkMarket/internal/errs"
	"StalkMarket/internal/model"
)

// Multi appends every entry to all of its recorders.
type Multi []Recorder

func (m Multi) Append(entry *model.ArchiveEntry) error {
	var err error
	for _, r := range m {
		err = errs.Combine(err, r.Append(entry))
	}
	return err
}

func (m Multi) Close() error {
	var err error
	for _, r := range m {
		err = errs.Combine(err, r.Close())
	}
	return err
}
