package contracts

import "time"

// LockoutOverride is the administrative override applied to the
// natural lockout schedule. Forcing unlocked opens everything,
// including captain selection and the off-season.
type LockoutOverride string

const (
	OverrideNone     LockoutOverride = ""
	OverrideLocked   LockoutOverride = "locked"
	OverrideUnlocked LockoutOverride = "unlocked"
)

// LockoutInfo is the derived roster-edit gate for the next race.
// Computed fresh on every query, never stored.
type LockoutInfo struct {
	IsLocked       bool            `json:"is_locked"`
	CaptainLocked  bool            `json:"captain_locked"`
	LockTime       time.Time       `json:"lock_time,omitempty"`
	RaceStartTime  time.Time       `json:"race_start_time,omitempty"`
	NextRace       *Race           `json:"next_race,omitempty"`
	SeasonComplete bool            `json:"season_complete"`
	Override       LockoutOverride `json:"override,omitempty"`
}

// EditsAllowed is the gate the roster service checks before any
// non-captain roster mutation
func (l *LockoutInfo) EditsAllowed() bool {
	return !l.IsLocked
}

// CaptainEditAllowed reports whether captain selection is still open
func (l *LockoutInfo) CaptainEditAllowed() bool {
	return !l.CaptainLocked
}
