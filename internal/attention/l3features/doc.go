// Package l3features owns Layer 3 of the attention data model: the
// immutable per-frame feature record and the checks applied at the input
// sequence boundary.
//
// Dependency rule: L3 may depend on L1 and L2 only.
package l3features
