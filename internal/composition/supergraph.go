package composition

import (
	"github.com/hanpama/supergraph/internal/schema"
)

// SupergraphState is the lifecycle of a composed schema: Merged after the
// merge engine produced it, Satisfiable once the satisfiability validator
// approved it (or the caller opted out of verification).
type SupergraphState interface{ supergraphState() }

type Merged struct{}
type Satisfiable struct{}

func (Merged) supergraphState()      {}
func (Satisfiable) supergraphState() {}

// Supergraph is the single composed schema spanning all subgraphs, together
// with the routing metadata the merge engine recorded and the non-fatal
// hints it emitted. It owns its schema document; nothing aliases subgraph
// documents.
type Supergraph[S SupergraphState] struct {
	Schema  *schema.Schema
	Routing *RoutingTable
	Hints   []Hint
}

// AssumeSatisfiable re-tags a merged supergraph without verification. The
// Satisfiable tag then expresses trust in the caller, not a proof.
func AssumeSatisfiable(sg *Supergraph[Merged]) *Supergraph[Satisfiable] {
	return &Supergraph[Satisfiable]{Schema: sg.Schema, Routing: sg.Routing, Hints: sg.Hints}
}

// Hint is an advisory diagnostic describing a non-fatal composition
// decision.
type Hint struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	HintInconsistentDescription = "INCONSISTENT_DESCRIPTION"
	HintInconsistentNonNull     = "INCONSISTENT_NON_NULL"
)
