package sequence

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sambuddhac/powersim/internal/model"
)

// UUIDSource mints sequence identities. Implemented by UUIDv7Source
// (production) and testutil.FixedUUIDSource (tests).
type UUIDSource interface {
	Generate() string
}

// UUIDv7Source mints time-sortable UUIDv7 identities, which makes sequence
// IDs in logs and the execution store sortable by creation time.
type UUIDv7Source struct{}

// Generate returns a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Source) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SimulationSequence is the immutable scheduling contract for one
// simulation: the interval table, feedforward and cache declarations, the
// resolved execution order, and per-problem execution counts, identified by
// a UUID minted at construction.
//
// The only mutable field after construction is the current execution index,
// which the driver advances tick by tick. It is guarded so a monitoring
// interface may inspect it while a run is in progress.
type SimulationSequence struct {
	id             string
	table          *IntervalTable
	plan           *ExecutionPlan
	feedforwards   map[model.FeedforwardKey]model.Feedforward
	chronologies   map[model.ChronologyPair]model.Chronology
	caches         []model.CacheKey
	initChronology model.InitialConditionChronology
	executions     map[string]int // problem name -> executions per step
	specHash       string

	mu           sync.RWMutex
	currentIndex int
}

// Option configures sequence construction.
type Option func(*options)

type options struct {
	feedforwards   map[model.FeedforwardKey]model.Feedforward
	chronologies   map[model.ChronologyPair]model.Chronology
	caches         []model.CacheKey
	initChronology model.InitialConditionChronology
	uuidSource     UUIDSource
}

// WithFeedforwards declares the feedforward directives.
func WithFeedforwards(ffs map[model.FeedforwardKey]model.Feedforward) Option {
	return func(o *options) { o.feedforwards = ffs }
}

// WithFeedforwardChronologies declares the inter-problem chronologies keyed
// by ordered (source, target) pairs.
func WithFeedforwardChronologies(chrons map[model.ChronologyPair]model.Chronology) Option {
	return func(o *options) { o.chronologies = chrons }
}

// WithCaches declares the cache keys.
func WithCaches(caches ...model.CacheKey) Option {
	return func(o *options) { o.caches = caches }
}

// WithInitialConditionChronology overrides the default inter-problem
// initial-condition chronology.
func WithInitialConditionChronology(ic model.InitialConditionChronology) Option {
	return func(o *options) { o.initChronology = ic }
}

// WithUUIDSource overrides the identity source. Tests use a fixed source so
// golden traces are deterministic.
func WithUUIDSource(src UUIDSource) Option {
	return func(o *options) { o.uuidSource = src }
}

// NewSimulationSequence builds the scheduling contract for the given
// problems and interval declarations.
//
// Every problem must have exactly one interval entry and every interval
// entry must name a supplied problem; the error carries the missing name.
// Construction validates chronologies and cache scopes, resolves the
// execution order, and stamps the minted UUID onto every problem. On error
// no sequence is returned and no problem is stamped.
func NewSimulationSequence(problems []model.Problem, intervals []IntervalEntry, opts ...Option) (*SimulationSequence, error) {
	o := &options{
		initChronology: model.InterProblemChronology,
		uuidSource:     UUIDv7Source{},
	}
	for _, opt := range opts {
		opt(o)
	}

	table, err := NewIntervalTable(intervals)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]model.Problem, len(problems))
	for _, p := range problems {
		byName[model.NormalizeName(p.Name())] = p
	}
	for _, name := range table.Names() {
		if _, ok := byName[name]; !ok {
			return nil, newConfigError(ErrCodeMissingInterval, name,
				"interval table names a problem that was not supplied")
		}
	}
	for name := range byName {
		if _, ok := table.Lookup(name); !ok {
			return nil, newConfigError(ErrCodeMissingInterval, name,
				"problem has no interval table entry")
		}
	}
	if len(byName) != len(problems) {
		return nil, newConfigError(ErrCodeDuplicateProblem, "", "duplicate problem names supplied")
	}

	if err := validateReferencedProblems(table, o.feedforwards, o.chronologies, o.caches); err != nil {
		return nil, err
	}
	initChron, err := validateChronologies(o.feedforwards, o.chronologies, table.Len(), o.initChronology)
	if err != nil {
		return nil, err
	}
	if err := validateCaches(o.caches); err != nil {
		return nil, err
	}

	plan, err := ResolveExecutionOrder(table)
	if err != nil {
		return nil, err
	}

	executions := make(map[string]int, table.Len())
	for idx, count := range plan.TallyExecutions() {
		executions[table.Entry(idx-1).Problem] = count
	}

	specHash, err := fingerprint(table, plan, o.feedforwards, o.chronologies, o.caches, initChron)
	if err != nil {
		return nil, err
	}

	seq := &SimulationSequence{
		id:             o.uuidSource.Generate(),
		table:          table,
		plan:           plan,
		feedforwards:   copyFeedforwards(o.feedforwards),
		chronologies:   copyChronologies(o.chronologies),
		caches:         append([]model.CacheKey(nil), o.caches...),
		initChronology: initChron,
		executions:     executions,
		specHash:       specHash,
	}

	for _, p := range problems {
		p.SetSequenceUUID(seq.id)
	}

	slog.Info("simulation sequence built",
		"uuid", seq.id,
		"problems", table.Len(),
		"order_length", len(plan.Order),
		"step_resolution", table.StepResolution().String(),
	)

	return seq, nil
}

// UUID returns the sequence identity minted at construction.
func (s *SimulationSequence) UUID() string { return s.id }

// SpecHash returns the content fingerprint of the configuration. Identical
// inputs produce identical hashes regardless of the minted UUID.
func (s *SimulationSequence) SpecHash() string { return s.specHash }

// StepResolution returns the coarsest interval.
func (s *SimulationSequence) StepResolution() time.Duration { return s.table.StepResolution() }

// Interval returns the execution interval for a problem name.
func (s *SimulationSequence) Interval(name string) (time.Duration, bool) {
	e, ok := s.table.Lookup(name)
	if !ok {
		return 0, false
	}
	return e.Interval, true
}

// Chronology returns the intra-problem chronology for a problem name.
func (s *SimulationSequence) Chronology(name string) (model.Chronology, bool) {
	e, ok := s.table.Lookup(name)
	if !ok {
		return model.Chronology{}, false
	}
	return e.Chronology, true
}

// ProblemNames returns the problem names in declaration order.
func (s *SimulationSequence) ProblemNames() []string { return s.table.Names() }

// ProblemName returns the name for a 1-based execution-order index.
func (s *SimulationSequence) ProblemName(index int) string {
	return s.table.Entry(index - 1).Problem
}

// ExecutionOrder returns a copy of the flat execution order (1-based
// problem indices). Copied so callers cannot break the construction-time
// invariant.
func (s *SimulationSequence) ExecutionOrder() []int {
	return append([]int(nil), s.plan.Order...)
}

// ExecutionsByProblem returns the per-step execution count for every
// problem.
func (s *SimulationSequence) ExecutionsByProblem() map[string]int {
	out := make(map[string]int, len(s.executions))
	for k, v := range s.executions {
		out[k] = v
	}
	return out
}

// InitialConditionChronology returns the effective initial-condition
// chronology after any single-problem downgrade.
func (s *SimulationSequence) InitialConditionChronology() model.InitialConditionChronology {
	return s.initChronology
}

// Feedforwards returns the directives targeting the given problem.
func (s *SimulationSequence) Feedforwards(target string) map[model.FeedforwardKey]model.Feedforward {
	target = model.NormalizeName(target)
	out := make(map[model.FeedforwardKey]model.Feedforward)
	for k, v := range s.feedforwards {
		if k.TargetProblem == target {
			out[k] = v
		}
	}
	return out
}

// FeedforwardChronology returns the inter-problem chronology for an ordered
// (source, target) pair.
func (s *SimulationSequence) FeedforwardChronology(source, target string) (model.Chronology, bool) {
	c, ok := s.chronologies[model.NewChronologyPair(source, target)]
	return c, ok
}

// ChronologySources returns the source problems with a chronology entry
// targeting the given problem, in interval-table order.
func (s *SimulationSequence) ChronologySources(target string) []string {
	target = model.NormalizeName(target)
	var sources []string
	for _, name := range s.table.Names() {
		if _, ok := s.chronologies[model.ChronologyPair{Source: name, Target: target}]; ok {
			sources = append(sources, name)
		}
	}
	return sources
}

// Caches returns the declared cache keys.
func (s *SimulationSequence) Caches() []model.CacheKey {
	return append([]model.CacheKey(nil), s.caches...)
}

// CurrentExecutionIndex returns the last completed position in the global
// tick sequence. Safe for concurrent inspection while a driver advances it.
func (s *SimulationSequence) CurrentExecutionIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentIndex
}

// AdvanceExecutionIndex records the completion of one tick. Called by the
// driver only after the tick fully succeeds, so an aborted run leaves the
// index at the last completed tick and a resumed run neither re-runs nor
// skips work.
func (s *SimulationSequence) AdvanceExecutionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentIndex++
	return s.currentIndex
}

// ValidateForSteps runs the build-time consistency checks that need the
// total step count: synchronization windows must fit within - and evenly
// divide - the downstream problem's total executions, and a multi-problem
// sequence must not contain mutually disconnected problems.
func (s *SimulationSequence) ValidateForSteps(steps int) error {
	if steps <= 0 {
		return newConfigError(ErrCodeSyncWindow, "", "step count must be positive, got %d", steps)
	}

	for pair, chron := range s.chronologies {
		if chron.Kind != model.ChronologySynchronize {
			continue
		}
		total := steps * s.executions[pair.Target]
		if chron.Periods > total {
			return newConfigError(ErrCodeSyncWindow, pair.Target,
				"synchronize window of %d periods exceeds %d total executions over %d steps",
				chron.Periods, total, steps)
		}
		if total%chron.Periods != 0 {
			return newConfigError(ErrCodeSyncWindow, pair.Target,
				"synchronize window of %d periods does not evenly divide %d total executions",
				chron.Periods, total)
		}
	}

	if s.table.Len() > 1 {
		if name := s.firstDisconnectedProblem(); name != "" {
			return newConfigError(ErrCodeDisconnected, name,
				"problem is not linked to the rest of the sequence by any feedforward chronology")
		}
	}

	return nil
}

// firstDisconnectedProblem returns the first problem (declaration order)
// outside the connected component of the coarsest problem, or "" when the
// chronology graph links every problem. Edges are undirected chronology
// pairs.
func (s *SimulationSequence) firstDisconnectedProblem() string {
	names := s.table.Names()
	reached := map[string]bool{names[0]: true}

	// The graph is tiny; iterate to a fixed point instead of keeping an
	// adjacency structure.
	for changed := true; changed; {
		changed = false
		for pair := range s.chronologies {
			if reached[pair.Source] != reached[pair.Target] {
				reached[pair.Source] = true
				reached[pair.Target] = true
				changed = true
			}
		}
	}

	for _, name := range names {
		if !reached[name] {
			return name
		}
	}
	return ""
}

// fingerprint builds the canonical configuration hash.
func fingerprint(
	table *IntervalTable,
	plan *ExecutionPlan,
	ffs map[model.FeedforwardKey]model.Feedforward,
	chrons map[model.ChronologyPair]model.Chronology,
	caches []model.CacheKey,
	initChron model.InitialConditionChronology,
) (string, error) {
	intervals := make([]any, table.Len())
	for i := 0; i < table.Len(); i++ {
		e := table.Entry(i)
		intervals[i] = map[string]any{
			"problem":    e.Problem,
			"seconds":    int64(e.Interval / time.Second),
			"chronology": e.Chronology.String(),
		}
	}

	ffList := make(map[string]any, len(ffs))
	for k, v := range ffs {
		ffList[k.String()] = string(v.Kind)
	}
	chronList := make(map[string]any, len(chrons))
	for k, v := range chrons {
		chronList[k.Source+"->"+k.Target] = v.String()
	}
	cacheList := make([]any, len(caches))
	for i, c := range caches {
		cacheList[i] = c.ID()
	}

	order := make([]any, len(plan.Order))
	for i, idx := range plan.Order {
		order[i] = int64(idx)
	}

	return model.SequenceHash(map[string]any{
		"intervals":          intervals,
		"feedforwards":       ffList,
		"chronologies":       chronList,
		"caches":             cacheList,
		"initial_conditions": string(initChron),
		"order":              order,
	})
}

func copyFeedforwards(in map[model.FeedforwardKey]model.Feedforward) map[model.FeedforwardKey]model.Feedforward {
	out := make(map[model.FeedforwardKey]model.Feedforward, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyChronologies(in map[model.ChronologyPair]model.Chronology) map[model.ChronologyPair]model.Chronology {
	out := make(map[model.ChronologyPair]model.Chronology, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
