// Package harness runs world-level scenarios described in YAML and compares
// their tick traces against golden files. Scenarios are conformance tests
// for the runtime: they exercise the scheduler, the driver, and the
// checkpoint codec together through the same public operations any caller
// would use.
//
// # Scenario Format
//
//	name: countdown
//	description: "counter reaches zero before the budget does"
//	budget: 10
//	entities:
//	  - components:
//	      Counter: { remaining: 3 }
//	systems:
//	  - name: countdown
//	    priority: 1
//	  - name: heartbeat
//	    priority: 0
//
// Component values are decoded through the registry handed to the Runner,
// and system names resolve through its SystemSet.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one world-level conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Budget caps the run's tick count. Zero means unbounded, so a
	// scenario with budget 0 must terminate through one of its systems.
	Budget int `yaml:"budget"`

	// StartTick offsets the tick counter, mirroring a resumed run.
	StartTick int `yaml:"start_tick,omitempty"`

	// Entities seeds the world before the run.
	Entities []ScenarioEntity `yaml:"entities,omitempty"`

	// Systems lists the registered systems and their priorities.
	Systems []ScenarioSystem `yaml:"systems"`
}

// ScenarioEntity seeds one entity with components keyed by registered name.
type ScenarioEntity struct {
	Components map[string]map[string]any `yaml:"components"`
}

// ScenarioSystem names a system from the runner's SystemSet and fixes its
// priority.
type ScenarioSystem struct {
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// Validate checks structural requirements common to all scenarios.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("missing name")
	}
	if len(s.Systems) == 0 {
		return fmt.Errorf("no systems listed")
	}
	if s.Budget < 0 {
		return fmt.Errorf("negative budget %d", s.Budget)
	}
	for i, sys := range s.Systems {
		if sys.Name == "" {
			return fmt.Errorf("system %d: missing name", i)
		}
	}
	return nil
}
