package harness

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sambuddhac/powersim/internal/model"
)

// Scenario defines a conformance test scenario: a problem configuration
// plus the execution plan and tick behavior it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Problems declares the problem set, coarsest first.
	Problems []ProblemDecl `yaml:"problems"`

	// Chronologies declares source->target feedforward chronologies.
	Chronologies []ChronologyDecl `yaml:"chronologies,omitempty"`

	// Feedforwards declares feedforward directives.
	Feedforwards []FeedforwardDecl `yaml:"feedforwards,omitempty"`

	// Steps is the number of simulation steps to drive. Zero means plan only.
	Steps int `yaml:"steps,omitempty"`

	// Expect holds the expected plan and run shape.
	// Exactly one of Expect and ExpectError must be set.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// ExpectError names the configuration error code the build must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// ProblemDecl declares one problem and its interval-table entry.
type ProblemDecl struct {
	Name       string `yaml:"name"`
	Horizon    int    `yaml:"horizon"`
	Interval   string `yaml:"interval"`
	Chronology string `yaml:"chronology,omitempty"` // defaults to consecutive
}

// ChronologyDecl declares an inter-problem chronology.
type ChronologyDecl struct {
	Source     string `yaml:"source"`
	Target     string `yaml:"target"`
	Chronology string `yaml:"chronology"`
}

// FeedforwardDecl declares a feedforward directive.
type FeedforwardDecl struct {
	Target    string `yaml:"target"`
	Category  string `yaml:"category"`
	Component string `yaml:"component"`
	Kind      string `yaml:"kind"`
}

// ExpectClause specifies the expected plan and, when Steps > 0, run shape.
// Zero-valued fields are not checked.
type ExpectClause struct {
	OrderLength    int            `yaml:"order_length,omitempty"`
	StepResolution string         `yaml:"step_resolution,omitempty"`
	Executions     map[string]int `yaml:"executions,omitempty"`
	OrderPrefix    []int          `yaml:"order_prefix,omitempty"`
	OrderSuffix    []int          `yaml:"order_suffix,omitempty"`
	TotalTicks     int            `yaml:"total_ticks,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected to catch typos like "expectation:".
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Problems) == 0 {
		return fmt.Errorf("problems list is required and must be non-empty")
	}

	if (s.Expect == nil) == (s.ExpectError == "") {
		return fmt.Errorf("exactly one of expect and expect_error is required")
	}

	for i, p := range s.Problems {
		if p.Name == "" {
			return fmt.Errorf("problems[%d]: name is required", i)
		}
		if p.Horizon < 1 {
			return fmt.Errorf("problems[%d]: horizon must be at least 1", i)
		}
		if _, err := time.ParseDuration(p.Interval); err != nil {
			return fmt.Errorf("problems[%d]: invalid interval %q", i, p.Interval)
		}
		if p.Chronology != "" {
			if _, err := parseChronologySpec(p.Chronology); err != nil {
				return fmt.Errorf("problems[%d]: %w", i, err)
			}
		}
	}

	for i, c := range s.Chronologies {
		if c.Source == "" || c.Target == "" {
			return fmt.Errorf("chronologies[%d]: source and target are required", i)
		}
		if _, err := parseChronologySpec(c.Chronology); err != nil {
			return fmt.Errorf("chronologies[%d]: %w", i, err)
		}
	}

	for i, ff := range s.Feedforwards {
		if ff.Target == "" || ff.Category == "" || ff.Component == "" {
			return fmt.Errorf("feedforwards[%d]: target, category, and component are required", i)
		}
		if !model.FeedforwardKind(ff.Kind).Valid() {
			return fmt.Errorf("feedforwards[%d]: unknown kind %q", i, ff.Kind)
		}
	}

	return nil
}

// parseChronologySpec parses the compact scenario chronology notation:
// "consecutive", "synchronize:24", "receding_horizon", or "full_horizon".
func parseChronologySpec(spec string) (model.Chronology, error) {
	if spec == "" {
		return model.Consecutive(), nil
	}

	kind, arg, hasArg := strings.Cut(spec, ":")
	switch model.ChronologyKind(kind) {
	case model.ChronologyConsecutive:
		return model.Consecutive(), nil
	case model.ChronologySynchronize:
		if !hasArg {
			return model.Chronology{}, fmt.Errorf("synchronize requires a period count, e.g. %q", "synchronize:24")
		}
		periods, err := strconv.Atoi(arg)
		if err != nil {
			return model.Chronology{}, fmt.Errorf("invalid synchronize periods %q", arg)
		}
		return model.Synchronize(periods), nil
	case model.ChronologyRecedingHorizon:
		return model.RecedingHorizon(), nil
	case model.ChronologyFullHorizon:
		return model.FullHorizon(), nil
	default:
		return model.Chronology{}, fmt.Errorf("unknown chronology %q", spec)
	}
}
