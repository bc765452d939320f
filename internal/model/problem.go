package model

import "time"

// Problem is one schedulable optimization unit. The sequencer reads the
// horizon and problem name, resolves the wall-clock initial time before each
// run, and stamps the owning sequence UUID at construction. Everything else
// about a problem (variables, constraints, objective) belongs to the caller.
//
// Implementations are owned by the caller; the sequencer never takes
// ownership of problem lifetime.
type Problem interface {
	// Name returns the unique identifier for this problem.
	Name() string

	// Horizon returns the number of look-ahead periods the problem models
	// internally on each solve.
	Horizon() int

	// InitialTime returns the wall-clock start of the problem's next run.
	InitialTime() time.Time

	// SetInitialTime resolves the wall-clock start for the next run.
	// Called by the driver before every solve.
	SetInitialTime(t time.Time)

	// SequenceUUID returns the UUID of the owning sequence, or "" if the
	// problem has not been attached to a sequence yet.
	SequenceUUID() string

	// SetSequenceUUID stamps the owning sequence identity onto the problem
	// for cross-referencing by the driver and the execution log.
	SetSequenceUUID(id string)
}

// OperationsProblem is a minimal concrete Problem. It carries exactly the
// state the sequencer needs and nothing of the underlying optimization
// model. Callers with richer problem types implement Problem directly.
type OperationsProblem struct {
	name         string
	horizon      int
	initialTime  time.Time
	sequenceUUID string
}

// NewOperationsProblem creates a problem with the given name and horizon.
// The name is NFC normalized so that lookups and hashes are stable across
// Unicode representations of the same identifier.
func NewOperationsProblem(name string, horizon int) *OperationsProblem {
	return &OperationsProblem{name: NormalizeName(name), horizon: horizon}
}

// Name implements Problem.
func (p *OperationsProblem) Name() string { return p.name }

// Horizon implements Problem.
func (p *OperationsProblem) Horizon() int { return p.horizon }

// InitialTime implements Problem.
func (p *OperationsProblem) InitialTime() time.Time { return p.initialTime }

// SetInitialTime implements Problem.
func (p *OperationsProblem) SetInitialTime(t time.Time) { p.initialTime = t }

// SequenceUUID implements Problem.
func (p *OperationsProblem) SequenceUUID() string { return p.sequenceUUID }

// SetSequenceUUID implements Problem.
func (p *OperationsProblem) SetSequenceUUID(id string) { p.sequenceUUID = id }
