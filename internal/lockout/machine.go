package lockout

import (
	"time"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/logger"
)

// Machine decides whether roster edits are currently allowed. It is a
// stateless decision function over the calendar: nothing is stored,
// every query recomputes from the race list and the completed set.
type Machine struct {
	logger *logger.Logger
}

// NewMachine creates a lockout machine
func NewMachine(log *logger.Logger) *Machine {
	return &Machine{
		logger: log,
	}
}

// Status computes the lockout state at the given instant. Races must
// be ordered by round ascending. The roster locks at the next race's
// lock instant; captain selection stays open until the race itself
// starts. An administrative override replaces the natural computation:
// forcing locked locks the roster but leaves the captain flag natural,
// forcing unlocked opens everything, season over included.
func (m *Machine) Status(now time.Time, races []contracts.Race, completed map[int64]bool, override contracts.LockoutOverride) contracts.LockoutInfo {
	next := contracts.NextRace(races, completed)
	if next == nil {
		info := contracts.LockoutInfo{
			IsLocked:       true,
			CaptainLocked:  true,
			SeasonComplete: true,
			Override:       override,
		}
		if override == contracts.OverrideUnlocked {
			info.IsLocked = false
			info.CaptainLocked = false
		}
		m.logger.WithFields(map[string]interface{}{
			"season_complete": true,
			"is_locked":       info.IsLocked,
			"override":        string(override),
		}).Debug("Computed lockout status")
		return info
	}

	lockTime := lockInstant(next)
	raceStart := next.RaceStart

	// An unscheduled session cannot lock anything.
	isLocked := !lockTime.IsZero() && !now.Before(lockTime)
	captainLocked := !raceStart.IsZero() && !now.Before(raceStart)

	switch override {
	case contracts.OverrideLocked:
		isLocked = true
	case contracts.OverrideUnlocked:
		isLocked = false
		captainLocked = false
	}

	info := contracts.LockoutInfo{
		IsLocked:      isLocked,
		CaptainLocked: captainLocked,
		LockTime:      lockTime,
		RaceStartTime: raceStart,
		NextRace:      next,
		Override:      override,
	}

	m.logger.WithFields(map[string]interface{}{
		"race_id":        next.ID,
		"round":          next.Round,
		"lock_time":      lockTime,
		"is_locked":      isLocked,
		"captain_locked": captainLocked,
		"override":       string(override),
	}).Debug("Computed lockout status")

	return info
}

// lockInstant returns the session time the roster locks at: sprint
// qualifying on a sprint weekend, final practice otherwise, qualifying
// when the primary session has no schedule.
func lockInstant(race *contracts.Race) time.Time {
	primary := race.FP3
	if race.HasSprint {
		primary = race.SprintQualifying
	}
	if primary.IsZero() {
		return race.Qualifying
	}
	return primary
}
