package compiler

import (
	"fmt"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/sambuddhac/powersim/internal/model"
)

// ProblemDecl is one problem declaration from a portfolio: the problem
// itself plus its interval-table entry. Declaration order is preserved,
// coarsest problem first.
type ProblemDecl struct {
	Name       string
	Horizon    int
	Interval   time.Duration
	Chronology model.Chronology
}

// Portfolio is the compiled form of a portfolio directory: everything needed
// to build a simulation sequence.
type Portfolio struct {
	Name                       string
	Problems                   []ProblemDecl
	Feedforwards               map[model.FeedforwardKey]model.Feedforward
	Chronologies               map[model.ChronologyPair]model.Chronology
	Caches                     []model.CacheKey
	InitialConditionChronology model.InitialConditionChronology
}

// CompilePortfolio parses a CUE value into a Portfolio.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the portfolio struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`portfolio: { ... }`)
//	p, err := CompilePortfolio(v.LookupPath(cue.ParsePath("portfolio")))
//
// Compilation is purely structural; cross-reference and range checks live in
// Validate so that all problems are reported at once.
func CompilePortfolio(v cue.Value) (*Portfolio, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &Portfolio{
		Feedforwards:               make(map[model.FeedforwardKey]model.Feedforward),
		Chronologies:               make(map[model.ChronologyPair]model.Chronology),
		InitialConditionChronology: model.InterProblemChronology,
	}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p.Name = model.NormalizeName(name)
	}

	icVal := v.LookupPath(cue.ParsePath("initial_condition_chronology"))
	if icVal.Exists() {
		ic, err := icVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p.InitialConditionChronology = model.InitialConditionChronology(ic)
	}

	problemsVal := v.LookupPath(cue.ParsePath("problems"))
	if !problemsVal.Exists() {
		return nil, &CompileError{
			Field:   "problems",
			Message: "problems list is required",
			Pos:     v.Pos(),
		}
	}
	if err := p.parseProblems(problemsVal); err != nil {
		return nil, err
	}

	ffVal := v.LookupPath(cue.ParsePath("feedforwards"))
	if ffVal.Exists() {
		if err := p.parseFeedforwards(ffVal); err != nil {
			return nil, err
		}
	}

	chronVal := v.LookupPath(cue.ParsePath("chronologies"))
	if chronVal.Exists() {
		if err := p.parseChronologies(chronVal); err != nil {
			return nil, err
		}
	}

	cachesVal := v.LookupPath(cue.ParsePath("caches"))
	if cachesVal.Exists() {
		if err := p.parseCaches(cachesVal); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Portfolio) parseProblems(v cue.Value) error {
	iter, err := v.List()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		pv := iter.Value()
		var decl ProblemDecl

		name, err := requiredString(pv, "name")
		if err != nil {
			return err
		}
		decl.Name = model.NormalizeName(name)

		horizon, err := requiredInt(pv, "horizon")
		if err != nil {
			return err
		}
		decl.Horizon = int(horizon)

		intervalStr, err := requiredString(pv, "interval")
		if err != nil {
			return err
		}
		decl.Interval, err = time.ParseDuration(intervalStr)
		if err != nil {
			return &CompileError{
				Field:   "problems.interval",
				Message: fmt.Sprintf("cannot parse interval %q: %v", intervalStr, err),
				Pos:     pv.Pos(),
			}
		}

		decl.Chronology, err = parseChronology(pv.LookupPath(cue.ParsePath("chronology")))
		if err != nil {
			return err
		}

		p.Problems = append(p.Problems, decl)
	}

	return nil
}

func (p *Portfolio) parseFeedforwards(v cue.Value) error {
	iter, err := v.List()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		fv := iter.Value()

		target, err := requiredString(fv, "target")
		if err != nil {
			return err
		}
		category, err := requiredString(fv, "category")
		if err != nil {
			return err
		}
		component, err := requiredString(fv, "component")
		if err != nil {
			return err
		}
		kind, err := requiredString(fv, "kind")
		if err != nil {
			return err
		}

		ff := model.Feedforward{Kind: model.FeedforwardKind(kind)}

		affectedVal := fv.LookupPath(cue.ParsePath("affected_values"))
		if affectedVal.Exists() {
			avIter, err := affectedVal.List()
			if err != nil {
				return formatCUEError(err)
			}
			for avIter.Next() {
				av, err := avIter.Value().String()
				if err != nil {
					return formatCUEError(err)
				}
				ff.AffectedValues = append(ff.AffectedValues, av)
			}
		}

		p.Feedforwards[model.NewFeedforwardKey(target, category, component)] = ff
	}

	return nil
}

func (p *Portfolio) parseChronologies(v cue.Value) error {
	iter, err := v.List()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		cv := iter.Value()

		source, err := requiredString(cv, "source")
		if err != nil {
			return err
		}
		target, err := requiredString(cv, "target")
		if err != nil {
			return err
		}

		chron, err := parseChronology(cv)
		if err != nil {
			return err
		}

		p.Chronologies[model.NewChronologyPair(source, target)] = chron
	}

	return nil
}

func (p *Portfolio) parseCaches(v cue.Value) error {
	iter, err := v.List()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		cv := iter.Value()

		kind, err := requiredString(cv, "kind")
		if err != nil {
			return err
		}

		var problems []string
		problemsVal := cv.LookupPath(cue.ParsePath("problems"))
		if problemsVal.Exists() {
			pIter, err := problemsVal.List()
			if err != nil {
				return formatCUEError(err)
			}
			for pIter.Next() {
				name, err := pIter.Value().String()
				if err != nil {
					return formatCUEError(err)
				}
				problems = append(problems, name)
			}
		}

		p.Caches = append(p.Caches, model.NewCacheKey(model.CacheKind(kind), problems...))
	}

	return nil
}

// parseChronology reads a chronology declaration: a struct with a kind field
// and, for synchronize, a periods field. A missing value means consecutive.
func parseChronology(v cue.Value) (model.Chronology, error) {
	if !v.Exists() {
		return model.Consecutive(), nil
	}

	kind, err := requiredString(v, "kind")
	if err != nil {
		return model.Chronology{}, err
	}

	switch model.ChronologyKind(kind) {
	case model.ChronologyConsecutive:
		return model.Consecutive(), nil
	case model.ChronologySynchronize:
		periods, err := requiredInt(v, "periods")
		if err != nil {
			return model.Chronology{}, err
		}
		return model.Synchronize(int(periods)), nil
	case model.ChronologyRecedingHorizon:
		return model.RecedingHorizon(), nil
	case model.ChronologyFullHorizon:
		return model.FullHorizon(), nil
	default:
		return model.Chronology{}, &CompileError{
			Field:   "chronology.kind",
			Message: fmt.Sprintf("unknown chronology kind %q", kind),
			Pos:     v.Pos(),
		}
	}
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func requiredInt(v cue.Value, field string) (int64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return n, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
