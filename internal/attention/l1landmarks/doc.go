// Package l1landmarks owns Layer 1 of the attention data model: the raw 2D
// landmark coordinates produced by an external face detector, and the
// mapping from a detector's index scheme to the named point groups the
// geometry layer consumes.
//
// Key types: Point, Set, Group, Source, Topology.
//
// Dependency rule: L1 depends on nothing above the standard library.
package l1landmarks
