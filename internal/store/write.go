package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sambuddhac/powersim/internal/model"
)

// SequenceRecord is one row of the sequences table: the identity and
// fingerprint of a built sequence, plus enough metadata to interpret its
// execution log without re-parsing the portfolio.
type SequenceRecord struct {
	UUID             string
	SpecHash         string
	SequencerVersion string
	SchemaVersion    string
	StepResolution   time.Duration
	Problems         []string // table order, coarsest first
	CreatedSeq       int64
}

// WriteSequence inserts a sequence record into the store.
// Uses ON CONFLICT(uuid) DO NOTHING for idempotency - duplicate UUIDs are
// silently ignored. Other constraint violations still return errors.
//
// The problem list is serialized to canonical JSON so that byte-for-byte
// comparison of rows is meaningful.
func (s *Store) WriteSequence(ctx context.Context, rec SequenceRecord) error {
	problemsJSON, err := model.MarshalCanonical(rec.Problems)
	if err != nil {
		return fmt.Errorf("write sequence: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sequences
		(uuid, spec_hash, sequencer_version, schema_version, step_resolution_s, problems, created_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO NOTHING
	`,
		rec.UUID,
		rec.SpecHash,
		rec.SequencerVersion,
		rec.SchemaVersion,
		int64(rec.StepResolution/time.Second),
		string(problemsJSON),
		rec.CreatedSeq,
	)
	if err != nil {
		return fmt.Errorf("write sequence: %w", err)
	}

	return nil
}

// RecordExecution inserts one tick outcome into the execution log.
// Uses ON CONFLICT DO NOTHING for idempotency - a replayed tick with the same
// content-addressed ID (or the same sequence/tick slot) is silently ignored.
//
// Note: the sequence referenced by SequenceUUID must exist (foreign key
// constraint). Satisfies the driver's Recorder interface.
func (s *Store) RecordExecution(ctx context.Context, rec model.ExecutionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions
		(id, sequence_uuid, global_tick, step, problem, initial_time, status, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.ID,
		rec.SequenceUUID,
		rec.GlobalTick,
		rec.Step,
		rec.Problem,
		rec.InitialTime.UTC().Format(time.RFC3339),
		string(rec.Status),
		rec.Seq,
	)
	if err != nil {
		return fmt.Errorf("record execution: %w", err)
	}

	return nil
}
