// Package grouping partitions a job's flat asset set into production stacks.
//
// Group is a pure function: it never mutates its input, depends on nothing but
// the asset fields, and returns the same partition for the same asset set no
// matter how the input slice is ordered. Motion clips and 360° panoramas
// always form stacks of one. Still images are ordered by capture time and
// clustered while consecutive frames share dimensions and fall inside the
// bracket window; clusters of three or five become brackets, and clusters of
// any other size are cut into as many brackets of the largest fitting width
// as possible with the remainder folded into singles.
//
// Stack identifiers are UUIDv5 values derived from the member asset IDs, so a
// stack that survives a refetch unchanged keeps its identifier (and any
// annotation stored against it).
package grouping
