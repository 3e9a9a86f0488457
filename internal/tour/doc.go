// Package tour models the panorama navigation graph of a virtual tour.
//
// A Graph holds 360° panorama nodes, undirected connections between them, a
// designated start node, and an optional floorplan asset. Connections are
// always symmetric and never self-referencing; the start reference always
// resolves to a node in the graph. Snapshot produces the serializable Tour
// value that is committed with a job's editing directives.
package tour
