package workflow

import "errors"

// ErrNotDAG is returned when the parsed stage graph is not a DAG, or
// when a parent/child edge is asymmetric — a config-parse failure per
// spec.md §7.
var ErrNotDAG = errors.New("workflow: stage graph is not a valid DAG")

// ErrAsymmetricEdge is returned when a stage lists a parent/child that
// does not list it back.
var ErrAsymmetricEdge = errors.New("workflow: parent/child relation is not symmetric")
