package record

import "time"

// Recorder appends input results to a record, stamping each with its
// offset since the recorder's start instant.
type Recorder struct {
	start  time.Time
	record Record
}

// NewRecorder starts a recorder anchored at the current instant.
func NewRecorder() *Recorder {
	return NewRecorderAt(time.Now())
}

// NewRecorderAt starts a recorder anchored at the given instant.
func NewRecorderAt(start time.Time) *Recorder {
	return &Recorder{start: start}
}

// Push appends an input result stamped with the elapsed time since start.
func (r *Recorder) Push(result InputResult) {
	r.record.Append(time.Since(r.start), result)
}

// PushAt appends an input result stamped with an explicit offset.
func (r *Recorder) PushAt(elapsed time.Duration, result InputResult) {
	r.record.Append(elapsed, result)
}

// Elapsed returns the time since the recorder started.
func (r *Recorder) Elapsed() time.Duration {
	return time.Since(r.start)
}

// Record returns the accumulated record.
func (r *Recorder) Record() *Record {
	return &r.record
}
