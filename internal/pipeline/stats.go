package pipeline

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	Total            int
	Current          int
	Converted        int // Videos written (or planned, in a dry run).
	Skipped          int // Single-page sources and existing outputs.
	Failed           int
	FramesWritten    int
	FramesSkipped    int
	TotalOutputBytes int64
}

// Record counts one conversion result.
func (s *RunStats) Record(r Result) {
	switch r.Outcome {
	case OutcomeWritten, OutcomePlanned:
		s.Converted++
	case OutcomeTooFewPages, OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
	s.FramesWritten += r.Frames
	s.FramesSkipped += r.Skipped
}
