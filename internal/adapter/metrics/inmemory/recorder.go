package inmemory

import (
	"sync"
	"time"
)

type Snapshot struct {
	Cycles       uint64            `json:"cycles"`
	CyclesByEnd  map[string]uint64 `json:"cycles_by_end_state"`
	Skipped      map[string]uint64 `json:"skipped"`
	Panics       uint64            `json:"panics"`
	TaskTotal    uint64            `json:"task_total"`
	TaskSuccess  uint64            `json:"task_success"`
	TaskFailure  uint64            `json:"task_failure"`
	SuccessByTyp map[string]uint64 `json:"success_by_type"`
	FailureByTyp map[string]uint64 `json:"failure_by_type"`
	AvgCycleMs   float64           `json:"avg_cycle_ms"`
	MaxCycleMs   float64           `json:"max_cycle_ms"`
}

// Recorder accumulates dispatch counters for the ops KPI endpoint.
type Recorder struct {
	mu        sync.Mutex
	cycles    uint64
	byEnd     map[string]uint64
	skipped   map[string]uint64
	panics    uint64
	success   uint64
	failure   uint64
	okByType  map[string]uint64
	errByType map[string]uint64
	total     time.Duration
	max       time.Duration
}

func NewRecorder() *Recorder {
	return &Recorder{
		byEnd:     map[string]uint64{},
		skipped:   map[string]uint64{},
		okByType:  map[string]uint64{},
		errByType: map[string]uint64{},
	}
}

func (r *Recorder) RecordCycle(state string, took time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cycles++
	r.byEnd[state]++
	r.total += took
	if took > r.max {
		r.max = took
	}
}

func (r *Recorder) RecordSkipped(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped[reason]++
}

func (r *Recorder) RecordTaskSuccess(taskType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.success++
	r.okByType[taskType]++
}

func (r *Recorder) RecordTaskFailure(taskType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure++
	r.errByType[taskType]++
}

func (r *Recorder) RecordPanic() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panics++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		Cycles:       r.cycles,
		CyclesByEnd:  copyCounts(r.byEnd),
		Skipped:      copyCounts(r.skipped),
		Panics:       r.panics,
		TaskSuccess:  r.success,
		TaskFailure:  r.failure,
		TaskTotal:    r.success + r.failure,
		SuccessByTyp: copyCounts(r.okByType),
		FailureByTyp: copyCounts(r.errByType),
		MaxCycleMs:   float64(r.max) / float64(time.Millisecond),
	}
	if r.cycles > 0 {
		out.AvgCycleMs = float64(r.total) / float64(r.cycles) / float64(time.Millisecond)
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
