// Package harness runs declarative conformance scenarios against the
// sequencer.
//
// A scenario YAML file declares a problem configuration and the execution
// plan it must produce, or the configuration error it must fail with.
// Run builds the sequence (and drives it when steps > 0), Verify checks the
// expectation clause, and RunWithGolden additionally pins the plan to a
// golden snapshot under testdata/golden.
//
// Scenario runs are fully deterministic: a static sequence identity derived
// from the scenario name and a fixed simulation start time.
package harness
