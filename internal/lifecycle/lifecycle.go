package lifecycle

import (
	"sync"
	"sync/atomic"
	"time"
)

// Phase is the coarse state of a run, reported by the status endpoint.
type Phase string

const (
	PhaseStarting Phase = "starting"
	PhaseRunning  Phase = "running"
	PhaseFinished Phase = "finished"
)

// Progress tracks one run. Written by the pipeline goroutine, read by the status server.
type Progress struct {
	runID     string
	startedAt time.Time

	phase     atomic.Value // Phase
	total     atomic.Int64
	done      atomic.Int64
	succeeded atomic.Int64

	mu      sync.RWMutex
	current string
}

// Snapshot is a point-in-time copy of Progress.
type Snapshot struct {
	RunID     string    `json:"runId"`
	Phase     Phase     `json:"phase"`
	StartedAt time.Time `json:"startedAt"`
	Total     int64     `json:"total"`
	Done      int64     `json:"done"`
	Succeeded int64     `json:"succeeded"`
	Current   string    `json:"current,omitempty"`
}

func NewProgress(runID string) *Progress {
	p := &Progress{runID: runID, startedAt: time.Now()}
	p.phase.Store(PhaseStarting)
	return p
}

// Start moves to PhaseRunning with total cities to process.
func (p *Progress) Start(total int) {
	p.total.Store(int64(total))
	p.phase.Store(PhaseRunning)
}

// SetCurrent records the city being processed.
func (p *Progress) SetCurrent(city string) {
	p.mu.Lock()
	p.current = city
	p.mu.Unlock()
}

// RecordCity counts one finished city.
func (p *Progress) RecordCity(success bool) {
	p.done.Add(1)
	if success {
		p.succeeded.Add(1)
	}
}

// Finish moves to PhaseFinished and clears the current city.
func (p *Progress) Finish() {
	p.SetCurrent("")
	p.phase.Store(PhaseFinished)
}

func (p *Progress) Phase() Phase {
	return p.phase.Load().(Phase)
}

func (p *Progress) Snapshot() Snapshot {
	p.mu.RLock()
	current := p.current
	p.mu.RUnlock()
	return Snapshot{
		RunID:     p.runID,
		Phase:     p.Phase(),
		StartedAt: p.startedAt,
		Total:     p.total.Load(),
		Done:      p.done.Load(),
		Succeeded: p.succeeded.Load(),
		Current:   current,
	}
}
