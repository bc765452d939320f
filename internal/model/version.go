package model

// Version constants for the sequencer and its log schema.
const (
	// SchemaVersion is the execution-log schema version.
	SchemaVersion = "1"

	// SequencerVersion is the powersim sequencer version.
	SequencerVersion = "0.1.0"
)
