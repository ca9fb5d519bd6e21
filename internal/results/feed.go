package results

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/config"
	"github.com/wonny/podium/backend/pkg/httputil"
	"github.com/wonny/podium/backend/pkg/logger"
)

// FeedClient pulls the published schedule and classifications from the
// JSON results feed. The feed rate-limits aggressively, so every call
// waits on a local limiter before going out.
type FeedClient struct {
	httpClient *httputil.Client
	limiter    *rate.Limiter
	baseURL    string
	logger     *logger.Logger
}

// NewFeedClient creates a results feed client
func NewFeedClient(cfg *config.Config, log *logger.Logger) *FeedClient {
	perSec := cfg.ResultsFeed.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}

	return &FeedClient{
		httpClient: httputil.New(cfg, log).WithRetry(3, 2*time.Second),
		limiter:    rate.NewLimiter(rate.Limit(perSec), perSec),
		baseURL:    strings.TrimRight(cfg.ResultsFeed.BaseURL, "/"),
		logger:     log,
	}
}

// FetchSchedule returns the full season calendar as published by the feed.
// Session times the feed has not announced yet come back as zero times.
func (c *FeedClient) FetchSchedule(ctx context.Context, season int) ([]contracts.Race, error) {
	url := fmt.Sprintf("%s/%d.json?limit=100", c.baseURL, season)

	var payload feedResponse
	if err := c.get(ctx, url, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch %d schedule: %w", season, err)
	}

	races := make([]contracts.Race, 0, len(payload.MRData.RaceTable.Races))
	for _, fr := range payload.MRData.RaceTable.Races {
		race, err := mapFeedRace(fr)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"season": season,
				"round":  fr.Round,
				"error":  err.Error(),
			}).Warn("Skipping malformed race entry")
			continue
		}
		races = append(races, race)
	}

	c.logger.WithFields(map[string]interface{}{
		"season": season,
		"races":  len(races),
	}).Debug("Fetched season schedule")

	return races, nil
}

// FetchRaceResults returns the grand prix classification for one round.
// An empty slice means the feed has not published the result yet.
func (c *FeedClient) FetchRaceResults(ctx context.Context, season, round int) ([]contracts.RaceResult, error) {
	url := fmt.Sprintf("%s/%d/%d/results.json?limit=100", c.baseURL, season, round)

	var payload feedResponse
	if err := c.get(ctx, url, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch race %d/%d results: %w", season, round, err)
	}

	if len(payload.MRData.RaceTable.Races) == 0 {
		return nil, nil
	}

	raw := payload.MRData.RaceTable.Races[0].Results
	totalLaps := winnerLaps(raw)
	publishedAt := time.Now().UTC()

	results := make([]contracts.RaceResult, 0, len(raw))
	for _, fr := range raw {
		status, dnfLap := classifyStatus(fr.Status, atoi(fr.Laps))

		res := contracts.RaceResult{
			DriverID:     feedDriverID(fr.Driver),
			GridPosition: atoi(fr.Grid),
			FastestLap:   fr.FastestLap != nil && fr.FastestLap.Rank == "1",
			Status:       status,
			DNFLap:       dnfLap,
			TotalLaps:    totalLaps,
			PublishedAt:  publishedAt,
		}
		if status == contracts.StatusFinished {
			res.Position = atoi(fr.Position)
		}
		if res.Position > 0 && res.GridPosition > 0 {
			res.PositionsGained = res.GridPosition - res.Position
		}
		results = append(results, res)
	}

	c.logger.WithFields(map[string]interface{}{
		"season":  season,
		"round":   round,
		"results": len(results),
	}).Debug("Fetched race classification")

	return results, nil
}

// FetchSprintResults returns the sprint classification for one round.
// An empty slice means the sprint has not been run or published.
func (c *FeedClient) FetchSprintResults(ctx context.Context, season, round int) ([]contracts.SprintResult, error) {
	url := fmt.Sprintf("%s/%d/%d/sprint.json?limit=100", c.baseURL, season, round)

	var payload feedResponse
	if err := c.get(ctx, url, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch sprint %d/%d results: %w", season, round, err)
	}

	if len(payload.MRData.RaceTable.Races) == 0 {
		return nil, nil
	}

	raw := payload.MRData.RaceTable.Races[0].SprintResults
	publishedAt := time.Now().UTC()

	results := make([]contracts.SprintResult, 0, len(raw))
	for _, fr := range raw {
		status, _ := classifyStatus(fr.Status, atoi(fr.Laps))

		res := contracts.SprintResult{
			DriverID:     feedDriverID(fr.Driver),
			GridPosition: atoi(fr.Grid),
			FastestLap:   fr.FastestLap != nil && fr.FastestLap.Rank == "1",
			Status:       status,
			PublishedAt:  publishedAt,
		}
		if status == contracts.StatusFinished {
			res.Position = atoi(fr.Position)
		}
		if res.Position > 0 && res.GridPosition > 0 {
			res.PositionsGained = res.GridPosition - res.Position
		}
		results = append(results, res)
	}

	c.logger.WithFields(map[string]interface{}{
		"season":  season,
		"round":   round,
		"results": len(results),
	}).Debug("Fetched sprint classification")

	return results, nil
}

// get performs a rate-limited GET and decodes the JSON body
func (c *FeedClient) get(ctx context.Context, url string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	return c.httpClient.GetJSON(ctx, url, out)
}

// classifyStatus maps the feed's free-text status onto the result
// taxonomy. Lapped finishers ("+1 Lap") still count as classified.
func classifyStatus(status string, lapsCompleted int) (contracts.ResultStatus, int) {
	switch {
	case status == "Finished" || strings.HasPrefix(status, "+"):
		return contracts.StatusFinished, 0
	case status == "Disqualified":
		return contracts.StatusDisqualified, 0
	default:
		return contracts.StatusDNF, lapsCompleted
	}
}

// feedDriverID prefers the broadcast three-letter code over the feed's
// internal slug so results line up with the market's asset IDs
func feedDriverID(d feedDriver) string {
	if d.Code != "" {
		return d.Code
	}
	return strings.ToUpper(d.DriverID)
}

// winnerLaps returns the race distance, which is the winner's lap count
func winnerLaps(results []feedResult) int {
	for _, r := range results {
		if r.Position == "1" {
			return atoi(r.Laps)
		}
	}
	return 0
}

func mapFeedRace(fr feedRace) (contracts.Race, error) {
	round := atoi(fr.Round)
	if round <= 0 {
		return contracts.Race{}, fmt.Errorf("invalid round %q", fr.Round)
	}

	raceStart := parseSessionTime(fr.Date, fr.Time)
	if raceStart.IsZero() {
		return contracts.Race{}, fmt.Errorf("race start time missing for round %d", round)
	}

	race := contracts.Race{
		Season:    atoi(fr.Season),
		Round:     round,
		Name:      fr.RaceName,
		Circuit:   fr.Circuit.CircuitName,
		HasSprint: fr.Sprint != nil,
		RaceStart: raceStart,
		Status:    contracts.RaceUpcoming,
	}

	race.FP1 = sessionTime(fr.FirstPractice)
	race.FP2 = sessionTime(fr.SecondPractice)
	race.FP3 = sessionTime(fr.ThirdPractice)
	race.Qualifying = sessionTime(fr.Qualifying)
	race.SprintQualifying = sessionTime(fr.SprintQualifying)
	race.Sprint = sessionTime(fr.Sprint)

	return race, nil
}

func sessionTime(s *feedSession) time.Time {
	if s == nil {
		return time.Time{}
	}
	return parseSessionTime(s.Date, s.Time)
}

// parseSessionTime combines the feed's split date and time fields.
// A missing time of day defaults to midnight UTC, matching how the
// feed publishes provisional calendars.
func parseSessionTime(date, clock string) time.Time {
	if date == "" {
		return time.Time{}
	}
	if clock == "" {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			return time.Time{}
		}
		return t.UTC()
	}
	t, err := time.Parse(time.RFC3339, date+"T"+clock)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// Feed response types. Field names follow the upstream JSON schema.

type feedResponse struct {
	MRData struct {
		RaceTable struct {
			Season string     `json:"season"`
			Races  []feedRace `json:"Races"`
		} `json:"RaceTable"`
	} `json:"MRData"`
}

type feedRace struct {
	Season           string       `json:"season"`
	Round            string       `json:"round"`
	RaceName         string       `json:"raceName"`
	Circuit          feedCircuit  `json:"Circuit"`
	Date             string       `json:"date"`
	Time             string       `json:"time"`
	FirstPractice    *feedSession `json:"FirstPractice"`
	SecondPractice   *feedSession `json:"SecondPractice"`
	ThirdPractice    *feedSession `json:"ThirdPractice"`
	Qualifying       *feedSession `json:"Qualifying"`
	SprintQualifying *feedSession `json:"SprintQualifying"`
	Sprint           *feedSession `json:"Sprint"`
	Results          []feedResult `json:"Results"`
	SprintResults    []feedResult `json:"SprintResults"`
}

type feedCircuit struct {
	CircuitName string `json:"circuitName"`
}

type feedSession struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type feedResult struct {
	Position   string          `json:"position"`
	Grid       string          `json:"grid"`
	Laps       string          `json:"laps"`
	Status     string          `json:"status"`
	Driver     feedDriver      `json:"Driver"`
	FastestLap *feedFastestLap `json:"FastestLap"`
}

type feedDriver struct {
	DriverID string `json:"driverId"`
	Code     string `json:"code"`
}

type feedFastestLap struct {
	Rank string `json:"rank"`
}
