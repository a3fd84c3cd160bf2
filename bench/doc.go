// Package bench drives the automated benchmarking workflow around the
// external cycle-accurate simulator.
//
// # Reading Guide
//
// Start with these three files to understand the pipeline:
//   - params.go: ParameterSet, the validated architecture/workflow knobs
//   - orchestrator.go: the Configure → Build → Compile → Simulate → Extract
//     state machine
//   - runner.go: subprocess execution with captured/streamed output and
//     process-group cleanup on timeout
//
// # Architecture
//
// The package translates a small set of architectural knobs into derived
// configuration documents (patcher.go), invokes the external build,
// compile, and run tools as opaque subprocesses, and reduces the resulting
// instruction trace to delta metrics. Trace parsing and reduction live in
// the leaf sub-package bench/trace, which has no dependency back on the
// workflow layer.
//
// The simulator, the compiler toolchain, and the build system are external
// collaborators: their success is defined solely by process exit status,
// and nothing here retries them: silently retrying a non-deterministic
// simulator would corrupt performance measurements.
package bench
