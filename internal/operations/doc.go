// Package operations orchestrates one batch run of the pipeline as a
// sequence of steps.
//
// Core Components:
//
// Manager: runs the registered steps one at a time in dependency order. A
// step failure ends the run unless the step tolerates it, in which case the
// failure is logged and later steps still run. Panics inside a step are
// recovered into fatal errors.
//
// Step: a single unit of work. Steps exchange datasets through the
// OperationState context (raw frame, derived frame, transform report).
//
// Registry: holds the steps and sorts them by their dependencies.
//
// OperationTracer: opens a span per run and per step and records step
// metrics through the infrastructure package.
//
// The pipeline steps are, in order: verify_connection, bootstrap_raw_table,
// seed_raw_table, read_raw, transform, load_derived and publish.
package operations
