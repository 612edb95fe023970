package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/balance-strategy/internal/executor"
)

// #region fixture-tests

// runFixture loads a fixture, builds a table for its population and checks
// every scenario against its expected step count.
func runFixture(t *testing.T, name string) {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	scenarios, err := f.ToScenarios()
	if err != nil {
		t.Fatalf("ToScenarios: %v", err)
	}

	results := Replay(buildTable(t, f.Population), scenarios, nil)
	if len(results) != len(f.Scenarios) {
		t.Fatalf("expected %d results, got %d", len(f.Scenarios), len(results))
	}
	for i, r := range results {
		if r.Action != ActionMatch {
			t.Errorf("scenario %d (%s): expected match, got %s (reason: %s, steps %d)",
				i, r.Name, r.Action, r.Reason, r.Steps)
		}
	}
}

func TestFixture_ThreeCoins(t *testing.T) {
	runFixture(t, "three_coins.json")
}

func TestFixture_FourCoins(t *testing.T) {
	runFixture(t, "four_coins.json")
}

func TestLoadFixture_NotFound(t *testing.T) {
	_, err := LoadFixture("testdata/nonexistent.json")
	if err == nil {
		t.Fatal("expected error for missing fixture file")
	}
}

func TestLoadFixture_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFixture(path)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestToScenarios_Rejects(t *testing.T) {
	cases := map[string]FixtureScenario{
		"unknown weight": {Name: "x", DefectIndex: 0, Weight: "PURPLE"},
		"normal weight":  {Name: "x", DefectIndex: 0, Weight: "NORMAL"},
		"index too high": {Name: "x", DefectIndex: 3, Weight: "LIGHT"},
		"negative index": {Name: "x", DefectIndex: -1, Weight: "HEAVY"},
	}
	for name, sc := range cases {
		f := Fixture{Population: 3, Scenarios: []FixtureScenario{sc}}
		if _, err := f.ToScenarios(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

// #endregion fixture-tests

func TestFixtureFromReport_RoundTrip(t *testing.T) {
	table := buildTable(t, 4)
	report, err := executor.New(table, nil).Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "four.json")
	if err := WriteFixture(path, FixtureFromReport(report, "exported")); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}

	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Scenarios) != 8 {
		t.Fatalf("expected 8 scenarios, got %d", len(f.Scenarios))
	}
	if f.Scenarios[0].Name != "coin0-light" {
		t.Errorf("unexpected first scenario %q", f.Scenarios[0].Name)
	}

	scenarios, err := f.ToScenarios()
	if err != nil {
		t.Fatalf("ToScenarios: %v", err)
	}
	for _, r := range Replay(table, scenarios, nil) {
		if r.Action != ActionMatch {
			t.Errorf("%s: expected match, got %s", r.Name, r.Action)
		}
	}
}
