package contracts

import (
	"time"

	"github.com/google/uuid"
)

// AssetKind distinguishes the two tradeable asset classes
type AssetKind string

const (
	KindDriver      AssetKind = "driver"
	KindConstructor AssetKind = "constructor"
)

// Roster slot limits. The roster service enforces these on writes;
// the scoring engine tolerates any count within them.
const (
	MaxDrivers      = 5
	MaxConstructors = 1
)

// RosterAsset is a driver or constructor held by a fantasy team
type RosterAsset struct {
	AssetID         string    `json:"asset_id"`
	Kind            AssetKind `json:"kind"`
	PurchasePrice   float64   `json:"purchase_price"`
	CurrentPrice    float64   `json:"current_price"`
	RacesHeld       int       `json:"races_held"`        // consecutive weekends continuously owned
	PurchasedAtRace int       `json:"purchased_at_race"` // round the asset first scores at; 0 = pre-season
}

// Team is a participant's fantasy entry for one season
type Team struct {
	ID                 uuid.UUID     `json:"id"`
	Name               string        `json:"name"`
	OwnerName          string        `json:"owner_name"`
	Budget             float64       `json:"budget"`
	CaptainID          string        `json:"captain_id,omitempty"` // driver asset whose race+sprint points double
	RacesSinceTransfer int           `json:"races_since_transfer"`
	JoinedAtRace       int           `json:"joined_at_race"` // 0 = joined at season start
	LockedPoints       int           `json:"locked_points"`  // banked points from departed assets
	TotalPoints        int           `json:"total_points"`
	Assets             []RosterAsset `json:"assets"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// Drivers returns the held driver assets
func (t *Team) Drivers() []RosterAsset {
	out := make([]RosterAsset, 0, MaxDrivers)
	for _, a := range t.Assets {
		if a.Kind == KindDriver {
			out = append(out, a)
		}
	}
	return out
}

// Constructor returns the held constructor asset, if any
func (t *Team) Constructor() (*RosterAsset, bool) {
	for i := range t.Assets {
		if t.Assets[i].Kind == KindConstructor {
			return &t.Assets[i], true
		}
	}
	return nil, false
}

// Asset finds a held asset by ID
func (t *Team) Asset(assetID string) (*RosterAsset, bool) {
	for i := range t.Assets {
		if t.Assets[i].AssetID == assetID {
			return &t.Assets[i], true
		}
	}
	return nil, false
}

// SpentBudget returns the sum of purchase prices across the roster
func (t *Team) SpentBudget() float64 {
	total := 0.0
	for _, a := range t.Assets {
		total += a.PurchasePrice
	}
	return total
}

// IsCaptain reports whether the given driver is the designated captain
func (t *Team) IsCaptain(driverID string) bool {
	return t.CaptainID != "" && t.CaptainID == driverID
}

// Driver is a real-world driver tradeable on the fantasy market
type Driver struct {
	ID                   string    `json:"id"` // short code, e.g. "VER"
	Name                 string    `json:"name"`
	ConstructorID        string    `json:"constructor_id"`
	Price                float64   `json:"price"`
	PreviousSeasonPoints int       `json:"previous_season_points"`
	SeasonPoints         int       `json:"season_points"` // cumulative fantasy points this season
	UpdatedAt            time.Time `json:"updated_at"`
}

// Constructor is a real-world constructor tradeable on the fantasy market
type Constructor struct {
	ID                   string    `json:"id"` // short code, e.g. "RBR"
	Name                 string    `json:"name"`
	DriverIDs            []string  `json:"driver_ids"`
	Price                float64   `json:"price"`
	PreviousSeasonPoints int       `json:"previous_season_points"`
	SeasonPoints         int       `json:"season_points"`
	UpdatedAt            time.Time `json:"updated_at"`
}
