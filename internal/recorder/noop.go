package recorder

import "StalkMarket/internal/model"

// NoopRecorder is a no-op implementation used when no mirror is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Append(_ *model.ArchiveEntry) error { return nil }
func (n *NoopRecorder) Close() error                       { return nil }
