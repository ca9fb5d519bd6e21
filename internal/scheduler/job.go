package scheduler

import (
	"context"
	"time"
)

// Job is one scheduled unit of background work
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron expression, with seconds.
	// Example: "0 */10 * * * *" (every 10 minutes)
	Schedule() string
}

// JobResult records one job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps a bounded window of recent executions per job
type JobHistory struct {
	results []JobResult
}

const historyWindow = 100

// Add appends a result, dropping the oldest past the window
func (h *JobHistory) Add(result JobResult) {
	h.results = append(h.results, result)
	if len(h.results) > historyWindow {
		h.results = h.results[len(h.results)-historyWindow:]
	}
}

// Latest returns the most recent n results, oldest first
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.results) {
		n = len(h.results)
	}
	if n == 0 {
		return nil
	}
	return h.results[len(h.results)-n:]
}

// Counts returns total and failed execution counts
func (h *JobHistory) Counts() (total, failed int) {
	total = len(h.results)
	for _, r := range h.results {
		if !r.Success {
			failed++
		}
	}
	return total, failed
}

// SuccessRate returns the fraction of successful runs in the window
func (h *JobHistory) SuccessRate() float64 {
	total, failed := h.Counts()
	if total == 0 {
		return 0
	}
	return float64(total-failed) / float64(total)
}
