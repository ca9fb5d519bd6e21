package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/podium/backend/pkg/config"
	"github.com/wonny/podium/backend/pkg/logger"
	"github.com/wonny/podium/backend/pkg/metrics"
)

// stubJob fails its first failures runs, then succeeds.
type stubJob struct {
	name     string
	schedule string
	failures int

	mu   sync.Mutex
	runs int
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs++
	if j.runs <= j.failures {
		return errors.New("feed unavailable")
	}
	return nil
}

func (j *stubJob) runCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func testScheduler() *Scheduler {
	cfg := &config.Config{
		Env:       "test",
		LogLevel:  "error",
		LogFormat: "json",
	}
	s := New(metrics.NewManager(false), logger.New(cfg))
	s.retryDelay = time.Millisecond
	return s
}

func TestAddJob(t *testing.T) {
	s := testScheduler()
	job := &stubJob{name: "settlement", schedule: "0 */10 * * * *"}

	require.NoError(t, s.AddJob(job))
	assert.Contains(t, s.Jobs(), "settlement")
}

func TestAddJobRejectsDuplicate(t *testing.T) {
	s := testScheduler()
	job := &stubJob{name: "settlement", schedule: "0 */10 * * * *"}

	require.NoError(t, s.AddJob(job))
	err := s.AddJob(job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := testScheduler()
	err := s.AddJob(&stubJob{name: "settlement", schedule: "whenever"})
	require.Error(t, err)
}

func TestRunJobUnknown(t *testing.T) {
	s := testScheduler()
	err := s.RunJob("no-such-job")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunJobRecordsSuccess(t *testing.T) {
	s := testScheduler()
	job := &stubJob{name: "schedule-sync", schedule: "0 0 6 * * *"}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	history, err := s.History("schedule-sync")
	require.NoError(t, err)
	results := history.Latest(1)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "schedule-sync", results[0].JobName)
	assert.Empty(t, results[0].Error)
}

func TestRunJobRetriesUntilSuccess(t *testing.T) {
	s := testScheduler()
	job := &stubJob{name: "settlement", schedule: "0 */10 * * * *", failures: 2}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, 3, job.runCount())
	history, err := s.History("settlement")
	require.NoError(t, err)
	results := history.Latest(1)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success, "run succeeds once the feed recovers")
}

func TestRunJobExhaustsRetries(t *testing.T) {
	s := testScheduler()
	job := &stubJob{name: "settlement", schedule: "0 */10 * * * *", failures: 100}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, s.maxRetries+1, job.runCount())
	history, err := s.History("settlement")
	require.NoError(t, err)
	results := history.Latest(1)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "feed unavailable", results[0].Error)
}

func TestRunJobAsync(t *testing.T) {
	s := testScheduler()
	job := &stubJob{name: "maintenance", schedule: "0 0 * * * *"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("maintenance"))

	assert.Eventually(t, func() bool {
		history, err := s.History("maintenance")
		if err != nil {
			return false
		}
		total, _ := history.Counts()
		return total == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStats(t *testing.T) {
	s := testScheduler()
	ok := &stubJob{name: "schedule-sync", schedule: "0 0 6 * * *"}
	bad := &stubJob{name: "settlement", schedule: "0 */10 * * * *", failures: 100}
	require.NoError(t, s.AddJob(ok))
	require.NoError(t, s.AddJob(bad))

	s.runJob(ok)
	s.runJob(ok)
	s.runJob(bad)

	stats := s.Stats()
	require.Contains(t, stats, "schedule-sync")
	require.Contains(t, stats, "settlement")

	assert.Equal(t, 2, stats["schedule-sync"].TotalRuns)
	assert.Equal(t, 0, stats["schedule-sync"].FailureCount)
	assert.Equal(t, 1.0, stats["schedule-sync"].SuccessRate)
	require.NotNil(t, stats["schedule-sync"].LastRun)

	assert.Equal(t, 1, stats["settlement"].TotalRuns)
	assert.Equal(t, 1, stats["settlement"].FailureCount)
	assert.Equal(t, 0.0, stats["settlement"].SuccessRate)
	assert.Equal(t, "0 */10 * * * *", stats["settlement"].Schedule)
}

func TestHistoryUnknownJob(t *testing.T) {
	s := testScheduler()
	_, err := s.History("no-such-job")
	require.Error(t, err)
}

func TestJobHistoryWindow(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyWindow+20; i++ {
		h.Add(JobResult{JobName: "settlement", Success: i%2 == 0})
	}

	total, _ := h.Counts()
	assert.Equal(t, historyWindow, total, "oldest results fall off")

	latest := h.Latest(2)
	require.Len(t, latest, 2)
}

func TestJobHistoryLatestOrder(t *testing.T) {
	h := &JobHistory{}
	first := time.Date(2026, 3, 8, 14, 0, 0, 0, time.UTC)
	h.Add(JobResult{JobName: "settlement", StartTime: first})
	h.Add(JobResult{JobName: "settlement", StartTime: first.Add(time.Hour)})

	latest := h.Latest(2)
	require.Len(t, latest, 2)
	assert.Equal(t, first, latest[0].StartTime, "oldest first")
	assert.True(t, latest[1].StartTime.After(latest[0].StartTime))
}

func TestJobHistorySuccessRateEmpty(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.SuccessRate())
}
