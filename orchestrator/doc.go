// Package orchestrator coordinates one transcription run: upload, multi-round
// assembly, checkpointing and the terminal writes.
//
// Run state changes only through Transition, a pure table over (State,
// EventType). Events with no entry for the current state leave the run
// unchanged, which keeps late or duplicate events from concurrent callbacks
// harmless. The Orchestrator owns the single current Run and serializes
// every event through one mutex.
//
// Cancellation is cooperative. Cancel raises the run's context, the upload
// and the assembler unwind at their next suspension point, and the partial
// transcript is written synchronously before the run reaches cancelled.
package orchestrator
