package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielpatrickdp/balance-strategy/internal/coin"
	"github.com/danielpatrickdp/balance-strategy/internal/executor"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string            `json:"description"`
	Population  int               `json:"population"`
	Scenarios   []FixtureScenario `json:"scenarios"`
}

// FixtureScenario is one scripted defect with the expected number of weighings.
type FixtureScenario struct {
	Name          string `json:"name"`
	DefectIndex   int    `json:"defect_index"`
	Weight        string `json:"weight"`
	ExpectedSteps int    `json:"expected_steps"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToScenarios converts the fixture to domain scenarios.
func (f *Fixture) ToScenarios() ([]Scenario, error) {
	out := make([]Scenario, len(f.Scenarios))
	for i, fs := range f.Scenarios {
		w, err := coin.ParseWeight(fs.Weight)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", fs.Name, err)
		}
		if w == coin.Normal {
			return nil, fmt.Errorf("scenario %s: defect must be LIGHT or HEAVY", fs.Name)
		}
		if fs.DefectIndex < 0 || fs.DefectIndex >= f.Population {
			return nil, fmt.Errorf("scenario %s: defect index %d outside population %d", fs.Name, fs.DefectIndex, f.Population)
		}
		out[i] = Scenario{
			Name:          fs.Name,
			DefectIndex:   fs.DefectIndex,
			Weight:        w,
			ExpectedSteps: fs.ExpectedSteps,
		}
	}
	return out, nil
}

// #endregion fixture-loader

// #region fixture-export

// FixtureFromReport captures every verified outcome as a scenario, so a later
// table can be checked against this one's step counts.
func FixtureFromReport(report executor.Report, description string) *Fixture {
	f := &Fixture{Description: description, Population: report.Population}
	for _, o := range report.Outcomes {
		f.Scenarios = append(f.Scenarios, FixtureScenario{
			Name:          fmt.Sprintf("coin%d-%s", o.Index, strings.ToLower(o.Weight.String())),
			DefectIndex:   o.Index,
			Weight:        o.Weight.String(),
			ExpectedSteps: o.Steps,
		})
	}
	return f
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create fixture dir: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion fixture-export
