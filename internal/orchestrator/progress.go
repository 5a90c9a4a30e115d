package orchestrator

import "time"

// Run states reported by Snapshot.
const (
	StateIdle       = "idle"
	StateLoading    = "loading"
	StateProcessing = "processing"
	StatePacing     = "pacing"
	StateDone       = "done"
	StateFailed     = "failed"
)

// Progress is a point-in-time view of the current or last run.
type Progress struct {
	RunID      string    `json:"run_id,omitempty"`
	State      string    `json:"state"`
	RosterSize int       `json:"roster_size"`
	Checkpoint int       `json:"checkpoint"`
	Batches    int       `json:"batches"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at,omitzero"`
}

// Snapshot returns the current progress.
func (o *Orchestrator) Snapshot() Progress {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.progress
}

func (o *Orchestrator) update(fn func(*Progress)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(&o.progress)
}
