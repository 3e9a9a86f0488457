// Package session wires the workflow components for one job.
//
// Open reads the job, seeds directive defaults and the stored tour, refetches
// assets and stacks, and only then applies a persisted lock so a locked job
// still shows its final state. The Manager caches one Session per job for the
// daemon.
package session
