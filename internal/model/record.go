package model

import (
	"fmt"
	"time"
)

// ExecutionStatus records the outcome of one driver tick.
type ExecutionStatus string

const (
	// StatusOK: the solve completed and its results were recorded.
	StatusOK ExecutionStatus = "ok"

	// StatusFailed: the solve failed; the run aborts after this record.
	StatusFailed ExecutionStatus = "failed"
)

// ExecutionRecord is one row of the execution log: which problem fired at
// which global tick, the resolved initial time, and the outcome.
//
// Ordering uses the logical seq stamp; InitialTime is simulation wall-clock
// data, never an ordering key.
type ExecutionRecord struct {
	ID           string          `json:"id"` // content-addressed, see ExecutionID
	SequenceUUID string          `json:"sequence_uuid"`
	GlobalTick   int64           `json:"global_tick"`
	Step         int             `json:"step"`
	Problem      string          `json:"problem"`
	InitialTime  time.Time       `json:"initial_time"`
	Status       ExecutionStatus `json:"status"`
	Seq          int64           `json:"seq"`
}

// NewExecutionRecord stamps identity onto a tick outcome.
func NewExecutionRecord(sequenceUUID string, globalTick int64, step int, problem string, initialTime time.Time, status ExecutionStatus, seq int64) (ExecutionRecord, error) {
	id, err := ExecutionID(sequenceUUID, globalTick, problem, seq)
	if err != nil {
		return ExecutionRecord{}, fmt.Errorf("new execution record: %w", err)
	}
	return ExecutionRecord{
		ID:           id,
		SequenceUUID: sequenceUUID,
		GlobalTick:   globalTick,
		Step:         step,
		Problem:      NormalizeName(problem),
		InitialTime:  initialTime,
		Status:       status,
		Seq:          seq,
	}, nil
}
