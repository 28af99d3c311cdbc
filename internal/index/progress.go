package index

// Stage names one phase of a sync pass, carried in progress events.
type Stage string

const (
	// StageEnumerate is the library walk.
	StageEnumerate Stage = "enumerate"
	// StageIndex is the per-file tag extraction loop.
	StageIndex Stage = "index"
	// StageCleanup covers orphan removal and recounting.
	StageCleanup Stage = "cleanup"
	// StageFullText is the suggestion-index rebuild.
	StageFullText Stage = "fulltext"
	// StageColors covers category and tag color synchronization.
	StageColors Stage = "colors"
)

// Event is one progress report. Total is zero for stages without a
// meaningful denominator.
type Event struct {
	RunID     string
	Stage     Stage
	Processed int
	Total     int
}

// ProgressSink receives progress events during a sync. It is called
// from the syncing goroutine and must not block for long. A nil sink
// is valid.
type ProgressSink func(Event)

// SyncResult summarizes one completed sync pass.
type SyncResult struct {
	AddedFiles   int
	UpdatedFiles int
	RemovedFiles int
	TotalFiles   int
	TotalTags    int
	TotalColors  int
}
