package contracts

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestTeam_Drivers(t *testing.T) {
	team := &Team{
		ID: uuid.New(),
		Assets: []RosterAsset{
			{AssetID: "VER", Kind: KindDriver},
			{AssetID: "NOR", Kind: KindDriver},
			{AssetID: "RBR", Kind: KindConstructor},
		},
	}

	drivers := team.Drivers()
	if len(drivers) != 2 {
		t.Errorf("Drivers() returned %d assets, want 2", len(drivers))
	}
	for _, d := range drivers {
		if d.Kind != KindDriver {
			t.Errorf("Drivers() returned kind %s", d.Kind)
		}
	}
}

func TestTeam_Constructor(t *testing.T) {
	team := &Team{
		ID: uuid.New(),
		Assets: []RosterAsset{
			{AssetID: "VER", Kind: KindDriver},
			{AssetID: "RBR", Kind: KindConstructor},
		},
	}

	ctor, ok := team.Constructor()
	if !ok {
		t.Fatal("Expected constructor asset")
	}
	if ctor.AssetID != "RBR" {
		t.Errorf("Constructor() = %s, want RBR", ctor.AssetID)
	}

	// No constructor held
	empty := &Team{ID: uuid.New()}
	if _, ok := empty.Constructor(); ok {
		t.Error("Expected no constructor on empty roster")
	}
}

func TestTeam_Asset(t *testing.T) {
	team := &Team{
		Assets: []RosterAsset{
			{AssetID: "VER", Kind: KindDriver, RacesHeld: 5},
		},
	}

	asset, ok := team.Asset("VER")
	if !ok {
		t.Fatal("Expected to find VER")
	}
	if asset.RacesHeld != 5 {
		t.Errorf("RacesHeld = %d, want 5", asset.RacesHeld)
	}

	if _, ok := team.Asset("HAM"); ok {
		t.Error("Expected not to find HAM")
	}
}

func TestTeam_SpentBudget(t *testing.T) {
	team := &Team{
		Assets: []RosterAsset{
			{AssetID: "VER", PurchasePrice: 250},
			{AssetID: "NOR", PurchasePrice: 180},
			{AssetID: "RBR", PurchasePrice: 220},
		},
	}

	if spent := team.SpentBudget(); spent != 650 {
		t.Errorf("SpentBudget() = %v, want 650", spent)
	}
}

func TestTeam_IsCaptain(t *testing.T) {
	team := &Team{CaptainID: "VER"}

	if !team.IsCaptain("VER") {
		t.Error("Expected VER to be captain")
	}
	if team.IsCaptain("NOR") {
		t.Error("Expected NOR not to be captain")
	}

	// No captain designated
	none := &Team{}
	if none.IsCaptain("") {
		t.Error("Empty captain must never match")
	}
}

func TestRaceResult_Helpers(t *testing.T) {
	finished := &RaceResult{Position: 2, Status: StatusFinished}
	if !finished.Finished() || finished.Retired() || finished.Disqualified() {
		t.Error("finished result misclassified")
	}
	if !finished.OnPodium() {
		t.Error("P2 should be a podium")
	}

	dnf := &RaceResult{Position: 0, Status: StatusDNF, DNFLap: 12}
	if dnf.Finished() || !dnf.Retired() {
		t.Error("dnf result misclassified")
	}
	if dnf.OnPodium() {
		t.Error("DNF is never a podium")
	}

	p4 := &RaceResult{Position: 4, Status: StatusFinished}
	if p4.OnPodium() {
		t.Error("P4 is not a podium")
	}
}

func TestNextRace(t *testing.T) {
	races := []Race{
		{ID: 1, Round: 1},
		{ID: 2, Round: 2},
		{ID: 3, Round: 3},
	}

	next := NextRace(races, map[int64]bool{1: true})
	if next == nil || next.Round != 2 {
		t.Fatalf("NextRace = %+v, want round 2", next)
	}

	// Season over
	all := map[int64]bool{1: true, 2: true, 3: true}
	if NextRace(races, all) != nil {
		t.Error("Expected nil when every race is completed")
	}

	// Nothing completed
	first := NextRace(races, map[int64]bool{})
	if first == nil || first.Round != 1 {
		t.Fatalf("NextRace = %+v, want round 1", first)
	}
}

func TestSum(t *testing.T) {
	lines := []ScoreLine{
		{Label: "race", Points: 25},
		{Label: "sprint", Points: 8},
		{Label: "dnf_penalty", Points: -15},
	}

	if got := Sum(lines); got != 18 {
		t.Errorf("Sum() = %d, want 18", got)
	}

	if got := Sum(nil); got != 0 {
		t.Errorf("Sum(nil) = %d, want 0", got)
	}
}

func TestTeam_JSON(t *testing.T) {
	original := &Team{
		ID:           uuid.New(),
		Name:         "Apex Racing",
		OwnerName:    "wonny",
		Budget:       1000,
		CaptainID:    "VER",
		JoinedAtRace: 3,
		Assets: []RosterAsset{
			{AssetID: "VER", Kind: KindDriver, PurchasePrice: 250, CurrentPrice: 286, RacesHeld: 5},
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded Team
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if decoded.ID != original.ID {
		t.Errorf("ID mismatch: got %s, want %s", decoded.ID, original.ID)
	}
	if decoded.CaptainID != "VER" {
		t.Errorf("CaptainID mismatch: got %s", decoded.CaptainID)
	}
	if len(decoded.Assets) != 1 || decoded.Assets[0].CurrentPrice != 286 {
		t.Errorf("Assets mismatch: %+v", decoded.Assets)
	}
}
