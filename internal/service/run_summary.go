package service

import (
	"fmt"
	"sync"
	"time"
)

// RunSummary tracks the outcome counts of one pricing run. Workers and the
// writer goroutine update it concurrently; read it after the run returns.
type RunSummary struct {
	mu            sync.RWMutex
	EngineVersion string
	StartTime     time.Time
	Duration      time.Duration
	Pending       int
	Priced        int
	Duplicates    int
	Insufficient  int
	Failed        int
}

// NewRunSummary creates a summary for a run under the given engine version
func NewRunSummary(engineVersion string) *RunSummary {
	return &RunSummary{
		EngineVersion: engineVersion,
		StartTime:     time.Now(),
	}
}

// RecordPriced increments the written-record count
func (r *RunSummary) RecordPriced() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Priced++
}

// RecordDuplicate increments the duplicate-suppressed count
func (r *RunSummary) RecordDuplicate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Duplicates++
}

// RecordInsufficient increments the insufficient-data count
func (r *RunSummary) RecordInsufficient() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Insufficient++
}

// RecordFailure increments the failure count
func (r *RunSummary) RecordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed++
}

// Processed returns how many units reached a terminal outcome
func (r *RunSummary) Processed() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Priced + r.Duplicates + r.Insufficient + r.Failed
}

// String returns a formatted string representation of the summary
func (r *RunSummary) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return fmt.Sprintf(
		"RunSummary{Engine=%s, Pending=%d, Priced=%d, Duplicates=%d, Insufficient=%d, Failed=%d, Duration=%v}",
		r.EngineVersion,
		r.Pending,
		r.Priced,
		r.Duplicates,
		r.Insufficient,
		r.Failed,
		r.Duration,
	)
}
