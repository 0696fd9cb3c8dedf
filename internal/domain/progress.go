package domain

// ProgressFunc reports long-running work to the caller.
// Called repeatedly while building a catalog: (1, 24), (2, 24), ...
type ProgressFunc func(done, total int)

// StatusFunc receives user-visible status messages.
type StatusFunc func(message string)

// BuildResult summarizes a catalog build.
type BuildResult struct {
	Episodes    int // total episodes in the written index
	New         int // episodes not present in the previous index
	Transcripts int // transcripts fetched during this run
}
