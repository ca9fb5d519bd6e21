package results

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/config"
	"github.com/wonny/podium/backend/pkg/logger"
)

func testHTMLClient(baseURL string) *HTMLClient {
	cfg := &config.Config{
		Env:       "test",
		LogLevel:  "error",
		LogFormat: "json",
		ResultsFeed: config.ResultsFeedConfig{
			HTMLBaseURL: baseURL,
		},
	}
	return NewHTMLClient(cfg, logger.New(cfg))
}

const classificationFixture = `<!DOCTYPE html>
<html><body>
<table class="resultsarchive-table">
	<thead>
		<tr><th>Pos</th><th>No</th><th>Driver</th><th>Car</th><th>Laps</th><th>Time/Retired</th><th>PTS</th></tr>
	</thead>
	<tbody>
		<tr>
			<td>1</td><td>1</td>
			<td><span>Max</span> <span>Verstappen</span> <span class="abbr">VER</span></td>
			<td>Red Bull Racing Honda RBPT</td><td>57</td><td>1:31:44.742</td><td>25</td>
		</tr>
		<tr>
			<td>2</td><td>4</td>
			<td><span>Lando</span> <span>Norris</span> <span class="abbr">NOR</span></td>
			<td>McLaren Mercedes</td><td>57</td><td>+2.337s</td><td>18</td>
		</tr>
		<tr>
			<td>16</td><td>31</td>
			<td><span>Esteban</span> <span>Ocon</span> <span class="abbr">OCO</span></td>
			<td>Haas Ferrari</td><td>56</td><td>+1 lap</td><td>0</td>
		</tr>
		<tr>
			<td>NC</td><td>44</td>
			<td><span>Lewis</span> <span>Hamilton</span> <span class="abbr">HAM</span></td>
			<td>Ferrari</td><td>12</td><td>DNF</td><td>0</td>
		</tr>
		<tr>
			<td>DQ</td><td>14</td>
			<td><span>Fernando</span> <span>Alonso</span> <span class="abbr">ALO</span></td>
			<td>Aston Martin Aramco Mercedes</td><td>57</td><td>DSQ</td><td>0</td>
		</tr>
	</tbody>
</table>
</body></html>`

func TestHTMLClient_ParseClassification(t *testing.T) {
	client := testHTMLClient("")

	results, err := client.parseClassification(classificationFixture)
	require.NoError(t, err)
	require.Len(t, results, 5)

	winner := results[0]
	assert.Equal(t, "VER", winner.DriverID)
	assert.Equal(t, 1, winner.Position)
	assert.Equal(t, contracts.StatusFinished, winner.Status)
	assert.Equal(t, 57, winner.TotalLaps)
	assert.Equal(t, 0, winner.GridPosition, "grid is not on the classification page")
	assert.False(t, winner.FastestLap, "fastest lap is not on the classification page")

	assert.Equal(t, "NOR", results[1].DriverID)
	assert.Equal(t, 2, results[1].Position)

	lapped := results[2]
	assert.Equal(t, "OCO", lapped.DriverID)
	assert.Equal(t, contracts.StatusFinished, lapped.Status, "lapped cars are still classified")
	assert.Equal(t, 16, lapped.Position)
	assert.Equal(t, 57, lapped.TotalLaps, "race distance is the winner's lap count")

	retired := results[3]
	assert.Equal(t, "HAM", retired.DriverID)
	assert.Equal(t, contracts.StatusDNF, retired.Status)
	assert.Equal(t, 0, retired.Position)
	assert.Equal(t, 12, retired.DNFLap)

	excluded := results[4]
	assert.Equal(t, "ALO", excluded.DriverID)
	assert.Equal(t, contracts.StatusDisqualified, excluded.Status)
	assert.Equal(t, 0, excluded.Position)
	assert.Equal(t, 0, excluded.DNFLap)
}

func TestHTMLClient_ParseClassificationNoTable(t *testing.T) {
	client := testHTMLClient("")

	_, err := client.parseClassification(`<html><body><p>race weekend</p></body></html>`)
	assert.Error(t, err)
}

func TestHTMLClient_ParseClassificationEmptyTable(t *testing.T) {
	client := testHTMLClient("")

	_, err := client.parseClassification(`<table class="resultsarchive-table"><tbody></tbody></table>`)
	assert.Error(t, err)
}

func TestHTMLClient_FetchRaceResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2026/races/5/race-result", r.URL.Path)
		w.Write([]byte(classificationFixture))
	}))
	defer server.Close()

	client := testHTMLClient(server.URL)
	results, err := client.FetchRaceResults(context.Background(), 2026, 5)
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestClassifyTimeColumn(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		laps       int
		wantStatus contracts.ResultStatus
		wantDNFLap int
	}{
		{name: "race time", text: "1:31:44.742", laps: 57, wantStatus: contracts.StatusFinished},
		{name: "gap to winner", text: "+12.535s", laps: 57, wantStatus: contracts.StatusFinished},
		{name: "lapped", text: "+1 lap", laps: 56, wantStatus: contracts.StatusFinished},
		{name: "retired", text: "DNF", laps: 31, wantStatus: contracts.StatusDNF, wantDNFLap: 31},
		{name: "did not start", text: "DNS", laps: 0, wantStatus: contracts.StatusDNF},
		{name: "not classified", text: "NC", laps: 40, wantStatus: contracts.StatusDNF, wantDNFLap: 40},
		{name: "disqualified", text: "DSQ", laps: 57, wantStatus: contracts.StatusDisqualified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, dnfLap := classifyTimeColumn(tt.text, tt.laps)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantDNFLap, dnfLap)
		})
	}
}
