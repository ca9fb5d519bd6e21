package results

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/config"
	"github.com/wonny/podium/backend/pkg/httputil"
	"github.com/wonny/podium/backend/pkg/logger"
)

// HTMLClient scrapes the published classification page. It is the
// fallback source when the JSON feed is behind: positions and
// retirements come through, but grid positions and the fastest lap
// are not on the page, so results parsed here carry no gained or
// fastest-lap data.
type HTMLClient struct {
	httpClient *httputil.Client
	baseURL    string
	logger     *logger.Logger
}

// NewHTMLClient creates a classification page scraper
func NewHTMLClient(cfg *config.Config, log *logger.Logger) *HTMLClient {
	return &HTMLClient{
		httpClient: httputil.New(cfg, log).WithRetry(3, 2*time.Second),
		baseURL:    strings.TrimRight(cfg.ResultsFeed.HTMLBaseURL, "/"),
		logger:     log,
	}
}

// FetchRaceResults scrapes the race classification for one round
func (c *HTMLClient) FetchRaceResults(ctx context.Context, season, round int) ([]contracts.RaceResult, error) {
	url := fmt.Sprintf("%s/%d/races/%d/race-result", c.baseURL, season, round)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	results, err := c.parseClassification(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse classification %d/%d: %w", season, round, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"season":  season,
		"round":   round,
		"results": len(results),
	}).Debug("Scraped race classification")

	return results, nil
}

// parseClassification extracts the classification rows from the page.
// Column layout: POS | NO | DRIVER | CAR | LAPS | TIME/RETIRED | PTS.
// The driver cell ends with the broadcast three-letter abbreviation.
func (c *HTMLClient) parseClassification(html string) ([]contracts.RaceResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	table := doc.Find("table.resultsarchive-table")
	if table.Length() == 0 {
		return nil, fmt.Errorf("classification table not found")
	}

	abbrevRe := regexp.MustCompile(`([A-Z]{3})$`)

	parseNum := func(s string) int {
		s = strings.TrimSpace(s)
		if s == "" || s == "-" || s == "NC" || s == "DQ" {
			return 0
		}
		n, _ := strconv.Atoi(s)
		return n
	}

	publishedAt := time.Now().UTC()
	winnerLaps := 0
	var results []contracts.RaceResult

	table.First().Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		driverText := strings.Join(strings.Fields(cells.Eq(2).Text()), " ")
		m := abbrevRe.FindStringSubmatch(driverText)
		if m == nil {
			return
		}

		laps := parseNum(cells.Eq(4).Text())
		status, dnfLap := classifyTimeColumn(strings.TrimSpace(cells.Eq(5).Text()), laps)

		res := contracts.RaceResult{
			DriverID:    m[1],
			Status:      status,
			DNFLap:      dnfLap,
			PublishedAt: publishedAt,
		}
		if status == contracts.StatusFinished {
			res.Position = parseNum(cells.Eq(0).Text())
		}
		if res.Position == 1 {
			winnerLaps = laps
		}
		results = append(results, res)
	})

	if len(results) == 0 {
		return nil, fmt.Errorf("no classification rows found")
	}

	for i := range results {
		results[i].TotalLaps = winnerLaps
	}

	return results, nil
}

// classifyTimeColumn maps the TIME/RETIRED cell onto the result
// taxonomy. Race times and "+N lap(s)" gaps are classified finishes.
func classifyTimeColumn(text string, laps int) (contracts.ResultStatus, int) {
	switch strings.ToUpper(text) {
	case "DNF", "DNS", "NC":
		return contracts.StatusDNF, laps
	case "DSQ", "DQ":
		return contracts.StatusDisqualified, 0
	default:
		return contracts.StatusFinished, 0
	}
}
