package compiler

import (
	"fmt"
	"regexp"
	"time"

	"github.com/sambuddhac/powersim/internal/model"
)

// Validation error codes (E100-E199)
const (
	// Portfolio errors (E101-E109)
	ErrPortfolioNoProblems = "E101" // at least one problem required
	ErrDuplicateProblem    = "E102" // duplicate problem name
	ErrInvalidProblemName  = "E103" // name fails the identifier pattern
	ErrNonPositiveHorizon  = "E104" // horizon must be >= 1
	ErrInvalidInterval     = "E105" // interval not a positive whole second
	ErrInvalidChronology   = "E106" // chronology fails its own validation
	ErrIntervalNotCoarsest = "E107" // intervals must be declared coarsest first

	// Cross-reference errors (E110-E119)
	ErrUnknownFeedforwardTarget = "E110" // feedforward targets undeclared problem
	ErrUnknownChronologyProblem = "E111" // chronology pair names undeclared problem
	ErrUnknownCacheProblem      = "E112" // cache names undeclared problem
	ErrInvalidInitialCondition  = "E113" // initial_condition_chronology not intra/inter
	ErrInvalidFeedforwardKind   = "E114" // unknown feedforward kind
	ErrInvalidCacheKind         = "E115" // unknown cache kind
)

// ValidationError represents a portfolio validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// problemNamePattern: a letter followed by letters, digits, underscores, or
// hyphens. Names are NFC-normalized before this check.
var problemNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Validate checks a compiled Portfolio against schema rules.
// Returns all errors found (does not fail-fast). A clean result here does not
// guarantee a buildable sequence: ratio exactness and chronology coverage are
// checked by the sequence builder, which owns those semantics.
func Validate(p *Portfolio) []ValidationError {
	var errs []ValidationError

	// E101: at least one problem
	if len(p.Problems) == 0 {
		errs = append(errs, ValidationError{
			Field:   "problems",
			Message: "at least one problem is required",
			Code:    ErrPortfolioNoProblems,
		})
	}

	declared := make(map[string]bool, len(p.Problems))
	var prevInterval time.Duration

	for i, decl := range p.Problems {
		field := fmt.Sprintf("problems[%d]", i)

		// E103: identifier pattern
		if !problemNamePattern.MatchString(decl.Name) {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("invalid problem name %q", decl.Name),
				Code:    ErrInvalidProblemName,
			})
		}

		// E102: duplicate problem name
		if declared[decl.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate problem name: %q", decl.Name),
				Code:    ErrDuplicateProblem,
			})
		}
		declared[decl.Name] = true

		// E104: horizon must cover at least one period
		if decl.Horizon < 1 {
			errs = append(errs, ValidationError{
				Field:   field + ".horizon",
				Message: fmt.Sprintf("horizon must be at least 1, got %d", decl.Horizon),
				Code:    ErrNonPositiveHorizon,
			})
		}

		// E105: positive whole-second interval
		if decl.Interval <= 0 || decl.Interval%time.Second != 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".interval",
				Message: fmt.Sprintf("interval must be a positive whole number of seconds, got %s", decl.Interval),
				Code:    ErrInvalidInterval,
			})
		}

		// E107: declaration order is coarsest first
		if i > 0 && decl.Interval > prevInterval {
			errs = append(errs, ValidationError{
				Field:   field + ".interval",
				Message: fmt.Sprintf("interval %s is coarser than the preceding %s; declare problems coarsest first", decl.Interval, prevInterval),
				Code:    ErrIntervalNotCoarsest,
			})
		}
		prevInterval = decl.Interval

		// E106: chronology self-consistency
		if err := decl.Chronology.Validate(); err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".chronology",
				Message: err.Error(),
				Code:    ErrInvalidChronology,
			})
		}
	}

	// E113: initial condition chronology
	if !p.InitialConditionChronology.Valid() {
		errs = append(errs, ValidationError{
			Field:   "initial_condition_chronology",
			Message: fmt.Sprintf("must be %q or %q, got %q", model.IntraProblemChronology, model.InterProblemChronology, p.InitialConditionChronology),
			Code:    ErrInvalidInitialCondition,
		})
	}

	for key, ff := range p.Feedforwards {
		// E110: target must be declared
		if !declared[key.TargetProblem] {
			errs = append(errs, ValidationError{
				Field:   "feedforwards." + key.String(),
				Message: fmt.Sprintf("feedforward targets undeclared problem %q", key.TargetProblem),
				Code:    ErrUnknownFeedforwardTarget,
			})
		}

		// E114: kind must be known
		if !ff.Kind.Valid() {
			errs = append(errs, ValidationError{
				Field:   "feedforwards." + key.String(),
				Message: fmt.Sprintf("unknown feedforward kind %q", ff.Kind),
				Code:    ErrInvalidFeedforwardKind,
			})
		}
	}

	for pair, chron := range p.Chronologies {
		field := fmt.Sprintf("chronologies.%s->%s", pair.Source, pair.Target)

		// E111: both endpoints must be declared
		if !declared[pair.Source] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("chronology source %q is not a declared problem", pair.Source),
				Code:    ErrUnknownChronologyProblem,
			})
		}
		if !declared[pair.Target] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("chronology target %q is not a declared problem", pair.Target),
				Code:    ErrUnknownChronologyProblem,
			})
		}

		// E106: chronology self-consistency
		if err := chron.Validate(); err != nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: err.Error(),
				Code:    ErrInvalidChronology,
			})
		}
	}

	for i, cache := range p.Caches {
		field := fmt.Sprintf("caches[%d]", i)

		// E115: kind must be known
		if !cache.Kind.Valid() {
			errs = append(errs, ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("unknown cache kind %q", cache.Kind),
				Code:    ErrInvalidCacheKind,
			})
		}

		// E112: every cached problem must be declared
		for _, name := range cache.Problems {
			if !declared[name] {
				errs = append(errs, ValidationError{
					Field:   field + ".problems",
					Message: fmt.Sprintf("cache names undeclared problem %q", name),
					Code:    ErrUnknownCacheProblem,
				})
			}
		}
	}

	return errs
}
