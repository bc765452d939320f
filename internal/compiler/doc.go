// Package compiler turns CUE portfolio declarations into simulation
// sequence inputs.
//
// A portfolio declares the problem set (name, horizon, interval, intra-problem
// chronology) in coarsest-first order, plus feedforwards, inter-problem
// chronologies, and caches. Compilation (CompilePortfolio) is structural and
// fail-fast with source positions; validation (Validate) is semantic and
// collects every error with an E1xx code. Sequence-level semantics such as
// ratio exactness stay in the sequence builder.
package compiler
