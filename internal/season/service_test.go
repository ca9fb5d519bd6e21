package season

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/internal/lockout"
	"github.com/wonny/podium/backend/pkg/config"
	"github.com/wonny/podium/backend/pkg/logger"
	"github.com/wonny/podium/backend/pkg/redis"
)

type mockCalendar struct {
	races      []contracts.Race
	override   contracts.LockoutOverride
	lastSeason int
}

func (m *mockCalendar) GetSeason(ctx context.Context, season int) ([]contracts.Race, error) {
	m.lastSeason = season
	return m.races, nil
}

func (m *mockCalendar) GetByID(ctx context.Context, raceID int64) (*contracts.Race, error) {
	for i := range m.races {
		if m.races[i].ID == raceID {
			return &m.races[i], nil
		}
	}
	return nil, nil
}

func (m *mockCalendar) GetByRound(ctx context.Context, season, round int) (*contracts.Race, error) {
	for i := range m.races {
		if m.races[i].Round == round {
			return &m.races[i], nil
		}
	}
	return nil, nil
}

func (m *mockCalendar) SaveRace(ctx context.Context, race *contracts.Race) error {
	return nil
}

func (m *mockCalendar) CompletedIDs(ctx context.Context, season int) (map[int64]bool, error) {
	done := make(map[int64]bool)
	for _, race := range m.races {
		if race.Status == contracts.RaceCompleted {
			done[race.ID] = true
		}
	}
	return done, nil
}

func (m *mockCalendar) SetStatus(ctx context.Context, raceID int64, status contracts.RaceStatus) error {
	for i := range m.races {
		if m.races[i].ID == raceID {
			m.races[i].Status = status
		}
	}
	return nil
}

func (m *mockCalendar) GetOverride(ctx context.Context, season int) (contracts.LockoutOverride, error) {
	return m.override, nil
}

func (m *mockCalendar) SetOverride(ctx context.Context, season int, override contracts.LockoutOverride) error {
	m.override = override
	return nil
}

func testSeasonService(repo *mockCalendar) *Service {
	cfg := &config.Config{
		Env:       "test",
		LogLevel:  "error",
		LogFormat: "json",
		Redis:     config.RedisConfig{Enabled: false},
	}
	log := logger.New(cfg)
	client, _ := redis.New(cfg)
	return NewService(repo, lockout.NewMachine(log), redis.NewCache(client, "test"), 2026, log)
}

// raceAt builds a conventional race weekend around the given start:
// final practice three hours before qualifying, qualifying a day
// before the race.
func raceAt(id int64, round int, start time.Time) contracts.Race {
	return contracts.Race{
		ID:         id,
		Season:     2026,
		Round:      round,
		Name:       "Test Grand Prix",
		FP3:        start.Add(-27 * time.Hour),
		Qualifying: start.Add(-24 * time.Hour),
		RaceStart:  start,
		Status:     contracts.RaceUpcoming,
	}
}

func TestService_StatusOpenBeforeFinalPractice(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockCalendar{races: []contracts.Race{raceAt(1, 1, now.Add(48*time.Hour))}}
	svc := testSeasonService(repo)

	info, err := svc.Status(context.Background(), 0)
	require.NoError(t, err)

	assert.False(t, info.IsLocked)
	assert.False(t, info.CaptainLocked)
	assert.False(t, info.SeasonComplete)
	require.NotNil(t, info.NextRace)
	assert.Equal(t, 1, info.NextRace.Round)
	// Default season substituted for the zero argument
	assert.Equal(t, 2026, repo.lastSeason)
}

func TestService_StatusLockedDuringRaceWeekend(t *testing.T) {
	now := time.Now().UTC()
	// FP3 ran two hours ago, lights out tomorrow: roster locked,
	// captain still editable.
	repo := &mockCalendar{races: []contracts.Race{raceAt(1, 1, now.Add(25*time.Hour))}}
	svc := testSeasonService(repo)

	info, err := svc.Status(context.Background(), 0)
	require.NoError(t, err)

	assert.True(t, info.IsLocked)
	assert.False(t, info.CaptainLocked)
	assert.Equal(t, info.NextRace.FP3, info.LockTime)
}

func TestService_StatusCaptainLockedAfterLightsOut(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockCalendar{races: []contracts.Race{raceAt(1, 1, now.Add(-time.Hour))}}
	svc := testSeasonService(repo)

	info, err := svc.Status(context.Background(), 0)
	require.NoError(t, err)

	assert.True(t, info.IsLocked)
	assert.True(t, info.CaptainLocked)
}

func TestService_StatusSprintWeekendLocksAtSprintQualifying(t *testing.T) {
	now := time.Now().UTC()
	race := raceAt(1, 1, now.Add(40*time.Hour))
	race.HasSprint = true
	race.SprintQualifying = now.Add(-time.Hour)
	repo := &mockCalendar{races: []contracts.Race{race}}
	svc := testSeasonService(repo)

	info, err := svc.Status(context.Background(), 0)
	require.NoError(t, err)

	assert.True(t, info.IsLocked, "sprint qualifying already started")
	assert.False(t, info.CaptainLocked)
	assert.Equal(t, race.SprintQualifying, info.LockTime)
}

func TestService_StatusSeasonComplete(t *testing.T) {
	now := time.Now().UTC()
	race := raceAt(1, 1, now.Add(-30*24*time.Hour))
	race.Status = contracts.RaceCompleted
	repo := &mockCalendar{races: []contracts.Race{race}}
	svc := testSeasonService(repo)

	info, err := svc.Status(context.Background(), 0)
	require.NoError(t, err)

	assert.True(t, info.SeasonComplete)
	assert.True(t, info.IsLocked)
	assert.True(t, info.CaptainLocked)
	assert.Nil(t, info.NextRace)
}

func TestService_OverrideUnlockedOpensLockedWeekend(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockCalendar{
		races:    []contracts.Race{raceAt(1, 1, now.Add(-time.Hour))},
		override: contracts.OverrideUnlocked,
	}
	svc := testSeasonService(repo)

	info, err := svc.Status(context.Background(), 0)
	require.NoError(t, err)

	assert.False(t, info.IsLocked)
	assert.False(t, info.CaptainLocked)
	assert.Equal(t, contracts.OverrideUnlocked, info.Override)
}

func TestService_SetOverride(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockCalendar{races: []contracts.Race{raceAt(1, 1, now.Add(48*time.Hour))}}
	svc := testSeasonService(repo)

	err := svc.SetOverride(context.Background(), 0, contracts.OverrideLocked)
	require.NoError(t, err)

	info, err := svc.Gate(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, info.IsLocked, "forced lock wins over the open window")
	assert.False(t, info.CaptainLocked, "forced lock leaves the captain flag natural")
}

func TestService_SetOverrideRejectsUnknownValue(t *testing.T) {
	repo := &mockCalendar{}
	svc := testSeasonService(repo)

	err := svc.SetOverride(context.Background(), 0, contracts.LockoutOverride("frozen"))
	require.Error(t, err)
	assert.Equal(t, contracts.OverrideNone, repo.override)
}

func TestService_NextRaceSkipsCompleted(t *testing.T) {
	now := time.Now().UTC()
	first := raceAt(1, 1, now.Add(-7*24*time.Hour))
	first.Status = contracts.RaceCompleted
	second := raceAt(2, 2, now.Add(7*24*time.Hour))
	repo := &mockCalendar{races: []contracts.Race{first, second}}
	svc := testSeasonService(repo)

	race, err := svc.NextRace(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, race)
	assert.Equal(t, 2, race.Round)

	repo.races[1].Status = contracts.RaceCompleted
	race, err = svc.NextRace(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, race)
}
