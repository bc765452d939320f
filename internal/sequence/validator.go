package sequence

import (
	"log/slog"

	"github.com/sambuddhac/powersim/internal/model"
)

// validateChronologies cross-checks feedforward declarations against the
// feedforward-chronology map and resolves the effective initial-condition
// chronology. Fails fast before any solve occurs; advisory conditions are
// logged, never fatal. Inputs are never mutated.
func validateChronologies(
	feedforwards map[model.FeedforwardKey]model.Feedforward,
	chronologies map[model.ChronologyPair]model.Chronology,
	problemCount int,
	initial model.InitialConditionChronology,
) (model.InitialConditionChronology, error) {
	for pair, chron := range chronologies {
		if err := chron.Validate(); err != nil {
			return initial, newConfigError(ErrCodeBadChronology, pair.Target,
				"feedforward chronology %s->%s: %v", pair.Source, pair.Target, err)
		}
	}

	for key, ff := range feedforwards {
		if err := ff.Validate(); err != nil {
			return initial, newConfigError(ErrCodeBadChronology, key.TargetProblem,
				"feedforward %s: %v", key, err)
		}
		if !hasChronologyForTarget(chronologies, key.TargetProblem) {
			return initial, newConfigError(ErrCodeMissingChronology, key.TargetProblem,
				"feedforward %s has no chronology entry for its target", key)
		}
	}

	if len(chronologies) == 0 {
		slog.Warn("no feedforward chronologies declared; assuming no cross-problem information passing")
	}

	if problemCount == 1 && initial == model.InterProblemChronology {
		slog.Warn("single-problem sequence cannot use inter-problem initial conditions; downgrading to intra-problem")
		initial = model.IntraProblemChronology
	}

	return initial, nil
}

// hasChronologyForTarget reports whether any chronology pair ends in the
// given target problem.
func hasChronologyForTarget(chronologies map[model.ChronologyPair]model.Chronology, target string) bool {
	for pair := range chronologies {
		if pair.Target == target {
			return true
		}
	}
	return false
}

// validateCaches rejects cache declarations whose kind restricts them to a
// single problem but whose scope names several, and any malformed key.
func validateCaches(caches []model.CacheKey) error {
	for _, key := range caches {
		if err := key.Validate(); err != nil {
			problem := ""
			if len(key.Problems) > 0 {
				problem = key.Problems[0]
			}
			return newConfigError(ErrCodeCacheScope, problem, "cache declaration %s: %v", key, err)
		}
	}
	return nil
}

// validateReferencedProblems checks that every problem named by a
// feedforward, chronology, or cache declaration appears in the interval
// table.
func validateReferencedProblems(
	table *IntervalTable,
	feedforwards map[model.FeedforwardKey]model.Feedforward,
	chronologies map[model.ChronologyPair]model.Chronology,
	caches []model.CacheKey,
) error {
	for key := range feedforwards {
		if _, ok := table.Lookup(key.TargetProblem); !ok {
			return newConfigError(ErrCodeMissingInterval, key.TargetProblem,
				"feedforward target has no interval table entry")
		}
	}
	for pair := range chronologies {
		if _, ok := table.Lookup(pair.Source); !ok {
			return newConfigError(ErrCodeMissingInterval, pair.Source,
				"chronology source has no interval table entry")
		}
		if _, ok := table.Lookup(pair.Target); !ok {
			return newConfigError(ErrCodeMissingInterval, pair.Target,
				"chronology target has no interval table entry")
		}
	}
	for _, key := range caches {
		for _, p := range key.Problems {
			if _, ok := table.Lookup(p); !ok {
				return newConfigError(ErrCodeMissingInterval, p,
					"cache scope names a problem with no interval table entry")
			}
		}
	}
	return nil
}
