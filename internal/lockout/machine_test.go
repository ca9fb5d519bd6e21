package lockout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/config"
	"github.com/wonny/podium/backend/pkg/logger"
)

func testMachine() *Machine {
	log := logger.New(&config.Config{
		Env:       "test",
		LogLevel:  "error",
		LogFormat: "json",
	})
	return NewMachine(log)
}

var (
	fp3Time       = time.Date(2026, 5, 23, 12, 30, 0, 0, time.UTC)
	qualiTime     = time.Date(2026, 5, 23, 16, 0, 0, 0, time.UTC)
	sprintQuali   = time.Date(2026, 5, 22, 16, 30, 0, 0, time.UTC)
	raceStartTime = time.Date(2026, 5, 24, 14, 0, 0, 0, time.UTC)
)

func conventionalRace(id int64, round int) contracts.Race {
	return contracts.Race{
		ID: id, Season: 2026, Round: round,
		Name:       "Monaco Grand Prix",
		FP3:        fp3Time,
		Qualifying: qualiTime,
		RaceStart:  raceStartTime,
	}
}

func sprintRace(id int64, round int) contracts.Race {
	r := conventionalRace(id, round)
	r.Name = "Miami Grand Prix"
	r.HasSprint = true
	r.FP3 = time.Time{}
	r.SprintQualifying = sprintQuali
	return r
}

func TestMachine_StatusNaturalSchedule(t *testing.T) {
	m := testMachine()
	races := []contracts.Race{conventionalRace(1, 1)}

	tests := []struct {
		name            string
		now             time.Time
		wantLocked      bool
		wantCaptainLock bool
	}{
		{
			name:       "well before the weekend",
			now:        fp3Time.Add(-48 * time.Hour),
			wantLocked: false,
		},
		{
			name:       "one second before final practice",
			now:        fp3Time.Add(-time.Second),
			wantLocked: false,
		},
		{
			name:       "exactly at final practice locks",
			now:        fp3Time,
			wantLocked: true,
		},
		{
			name:       "between lock and race start keeps captain open",
			now:        fp3Time.Add(2 * time.Hour),
			wantLocked: true,
		},
		{
			name:            "race start locks the captain too",
			now:             raceStartTime,
			wantLocked:      true,
			wantCaptainLock: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := m.Status(tt.now, races, nil, contracts.OverrideNone)
			assert.Equal(t, tt.wantLocked, info.IsLocked)
			assert.Equal(t, tt.wantCaptainLock, info.CaptainLocked)
			assert.Equal(t, tt.wantLocked, !info.EditsAllowed())
			assert.False(t, info.SeasonComplete)
		})
	}
}

func TestMachine_StatusLockInstantSelection(t *testing.T) {
	m := testMachine()

	t.Run("conventional weekend locks at final practice", func(t *testing.T) {
		races := []contracts.Race{conventionalRace(1, 1)}
		info := m.Status(fp3Time.Add(-time.Hour), races, nil, contracts.OverrideNone)
		assert.Equal(t, fp3Time, info.LockTime)
	})

	t.Run("sprint weekend locks at sprint qualifying", func(t *testing.T) {
		races := []contracts.Race{sprintRace(1, 1)}
		info := m.Status(sprintQuali.Add(-time.Hour), races, nil, contracts.OverrideNone)
		assert.Equal(t, sprintQuali, info.LockTime)
	})

	t.Run("missing final practice falls back to qualifying", func(t *testing.T) {
		r := conventionalRace(1, 1)
		r.FP3 = time.Time{}
		info := m.Status(qualiTime.Add(-time.Hour), []contracts.Race{r}, nil, contracts.OverrideNone)
		assert.Equal(t, qualiTime, info.LockTime)
		assert.False(t, info.IsLocked)

		info = m.Status(qualiTime, []contracts.Race{r}, nil, contracts.OverrideNone)
		assert.True(t, info.IsLocked)
	})

	t.Run("missing sprint qualifying falls back to qualifying", func(t *testing.T) {
		r := sprintRace(1, 1)
		r.SprintQualifying = time.Time{}
		info := m.Status(qualiTime.Add(-time.Hour), []contracts.Race{r}, nil, contracts.OverrideNone)
		assert.Equal(t, qualiTime, info.LockTime)
	})

	t.Run("fully unscheduled race never locks naturally", func(t *testing.T) {
		r := contracts.Race{ID: 1, Round: 1, Name: "TBC"}
		info := m.Status(time.Now(), []contracts.Race{r}, nil, contracts.OverrideNone)
		assert.False(t, info.IsLocked)
		assert.False(t, info.CaptainLocked)
	})
}

func TestMachine_StatusPicksLowestUncompletedRound(t *testing.T) {
	m := testMachine()

	later := conventionalRace(3, 3)
	later.FP3 = fp3Time.Add(14 * 24 * time.Hour)
	later.RaceStart = raceStartTime.Add(14 * 24 * time.Hour)

	races := []contracts.Race{conventionalRace(1, 1), conventionalRace(2, 2), later}
	completed := map[int64]bool{1: true, 2: true}

	info := m.Status(fp3Time, races, completed, contracts.OverrideNone)
	assert.NotNil(t, info.NextRace)
	assert.Equal(t, int64(3), info.NextRace.ID)
	assert.False(t, info.IsLocked, "round three has not reached its lock instant yet")
}

func TestMachine_StatusSeasonComplete(t *testing.T) {
	m := testMachine()
	races := []contracts.Race{conventionalRace(1, 1)}
	completed := map[int64]bool{1: true}

	info := m.Status(raceStartTime.Add(24*time.Hour), races, completed, contracts.OverrideNone)
	assert.True(t, info.SeasonComplete)
	assert.True(t, info.IsLocked, "season over defaults to locked")
	assert.True(t, info.CaptainLocked)
	assert.Nil(t, info.NextRace)
}

func TestMachine_StatusOverrides(t *testing.T) {
	m := testMachine()
	races := []contracts.Race{conventionalRace(1, 1)}

	t.Run("forced lock before the natural instant", func(t *testing.T) {
		info := m.Status(fp3Time.Add(-24*time.Hour), races, nil, contracts.OverrideLocked)
		assert.True(t, info.IsLocked)
		assert.False(t, info.CaptainLocked, "forced lock leaves the captain flag natural")
	})

	t.Run("forced unlock after the natural instant", func(t *testing.T) {
		info := m.Status(raceStartTime.Add(time.Hour), races, nil, contracts.OverrideUnlocked)
		assert.False(t, info.IsLocked)
		assert.False(t, info.CaptainLocked)
		assert.True(t, info.EditsAllowed())
		assert.True(t, info.CaptainEditAllowed())
	})

	t.Run("forced unlock past season end", func(t *testing.T) {
		completed := map[int64]bool{1: true}
		info := m.Status(raceStartTime.Add(24*time.Hour), races, completed, contracts.OverrideUnlocked)
		assert.True(t, info.SeasonComplete)
		assert.False(t, info.IsLocked)
		assert.False(t, info.CaptainLocked)
	})
}
