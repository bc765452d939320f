package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix allows
// a future algorithm migration without colliding with old hashes.
const (
	DomainSequence  = "powersim/sequence/v1"
	DomainExecution = "powersim/execution/v1"
)

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data). The null separator prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SequenceHash fingerprints a sequence configuration. Two sequences built
// from identical inputs hash identically regardless of the randomly minted
// UUID, which makes the hash usable for idempotence checks and for linking
// execution-log rows back to a configuration.
func SequenceHash(config map[string]any) (string, error) {
	canonical, err := MarshalCanonical(config)
	if err != nil {
		return "", fmt.Errorf("SequenceHash: marshal config: %w", err)
	}
	return hashWithDomain(DomainSequence, canonical), nil
}

// ExecutionID computes the content-addressed identity of one driver tick.
// Stable across replays given the same sequence, tick, and problem.
func ExecutionID(sequenceUUID string, globalTick int64, problem string, seq int64) (string, error) {
	obj := map[string]any{
		"sequence_uuid": sequenceUUID,
		"global_tick":   globalTick,
		"problem":       NormalizeName(problem),
		"seq":           seq,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ExecutionID: marshal: %w", err)
	}
	return hashWithDomain(DomainExecution, canonical), nil
}
