package events

import "time"

// ReadStart is emitted before a document read operation runs.
type ReadStart struct {
	Collection string
	ID         any
	Locale     string
	Depth      int
	Draft      bool
}

// ReadFinish is emitted after a document read operation completes.
type ReadFinish struct {
	Collection string
	ID         any
	Locale     string
	Depth      int
	Draft      bool
	Docs       int
	Err        error
	Duration   time.Duration
}

// PopulateStart is emitted before a population queue is drained.
type PopulateStart struct {
	Tasks int
}

// PopulateFinish is emitted after a population queue drain completes.
type PopulateFinish struct {
	Tasks    int
	Err      error
	Duration time.Duration
}
