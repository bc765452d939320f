package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sambuddhac/powersim/internal/model"
)

// ReadSequence retrieves a single sequence record by UUID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSequence(ctx context.Context, uuid string) (SequenceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT uuid, spec_hash, sequencer_version, schema_version, step_resolution_s, problems, created_seq
		FROM sequences
		WHERE uuid = ?
	`, uuid)

	return scanSequence(row)
}

// ListSequences returns all stored sequences with deterministic ordering:
// ORDER BY created_seq ASC, uuid COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if the store holds no sequences.
func (s *Store) ListSequences(ctx context.Context) ([]SequenceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uuid, spec_hash, sequencer_version, schema_version, step_resolution_s, problems, created_seq
		FROM sequences
		ORDER BY created_seq ASC, uuid COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sequences: %w", err)
	}
	defer rows.Close()

	var records []SequenceRecord
	for rows.Next() {
		rec, err := scanSequence(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sequences: %w", err)
	}

	if records == nil {
		records = []SequenceRecord{}
	}

	return records, nil
}

// ReadExecutions returns the execution log for a sequence with deterministic
// ordering: ORDER BY seq ASC, id COLLATE BINARY ASC. The logical seq stamp,
// never initial_time, is the ordering key.
//
// Returns an empty slice (not nil) if no records exist for the sequence.
func (s *Store) ReadExecutions(ctx context.Context, sequenceUUID string) ([]model.ExecutionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sequence_uuid, global_tick, step, problem, initial_time, status, seq
		FROM executions
		WHERE sequence_uuid = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sequenceUUID)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	var records []model.ExecutionRecord
	for rows.Next() {
		rec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}

	if records == nil {
		records = []model.ExecutionRecord{}
	}

	return records, nil
}

// ExecutionTally returns the number of recorded ticks per problem for a
// sequence. Problems that never ran do not appear in the map.
func (s *Store) ExecutionTally(ctx context.Context, sequenceUUID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT problem, COUNT(*)
		FROM executions
		WHERE sequence_uuid = ?
		GROUP BY problem
	`, sequenceUUID)
	if err != nil {
		return nil, fmt.Errorf("tally executions: %w", err)
	}
	defer rows.Close()

	tally := make(map[string]int)
	for rows.Next() {
		var problem string
		var count int
		if err := rows.Scan(&problem, &count); err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		tally[problem] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tally: %w", err)
	}

	return tally, nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSequence(row rowScanner) (SequenceRecord, error) {
	var rec SequenceRecord
	var stepSeconds int64
	var problemsJSON string

	err := row.Scan(
		&rec.UUID,
		&rec.SpecHash,
		&rec.SequencerVersion,
		&rec.SchemaVersion,
		&stepSeconds,
		&problemsJSON,
		&rec.CreatedSeq,
	)
	if err == sql.ErrNoRows {
		return SequenceRecord{}, err
	}
	if err != nil {
		return SequenceRecord{}, fmt.Errorf("scan sequence: %w", err)
	}

	rec.StepResolution = time.Duration(stepSeconds) * time.Second
	if err := json.Unmarshal([]byte(problemsJSON), &rec.Problems); err != nil {
		return SequenceRecord{}, fmt.Errorf("scan sequence: unmarshal problems: %w", err)
	}

	return rec, nil
}

func scanExecution(row rowScanner) (model.ExecutionRecord, error) {
	var rec model.ExecutionRecord
	var initialTime, status string

	err := row.Scan(
		&rec.ID,
		&rec.SequenceUUID,
		&rec.GlobalTick,
		&rec.Step,
		&rec.Problem,
		&initialTime,
		&status,
		&rec.Seq,
	)
	if err == sql.ErrNoRows {
		return model.ExecutionRecord{}, err
	}
	if err != nil {
		return model.ExecutionRecord{}, fmt.Errorf("scan execution: %w", err)
	}

	rec.InitialTime, err = time.Parse(time.RFC3339, initialTime)
	if err != nil {
		return model.ExecutionRecord{}, fmt.Errorf("scan execution: parse initial_time: %w", err)
	}
	rec.Status = model.ExecutionStatus(status)

	return rec, nil
}
