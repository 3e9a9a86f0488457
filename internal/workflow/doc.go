// Package workflow owns the per-job step state of the order wizard.
//
// A Controller walks a job through the four linear steps (upload, rooms,
// editing, review & lock) and exposes its State to the other components as a
// read-only lock view. Forward movement is one step at a time, backward jumps
// are free while the job is open, and once MarkLocked has been called every
// transition becomes a silent no-op.
//
// The controller holds view state only; it never talks to the backend. The
// lock gate is the single caller of MarkLocked and RedirectToStep.
package workflow
