package composition

import (
	"sort"

	"github.com/hanpama/supergraph/internal/schema"
	"github.com/hanpama/supergraph/internal/subgraph"
)

// ValidateSatisfiability proves that every field of the merged schema that a
// query can reach from a root operation type has at least one resolution
// path through the federation graph. Nodes of the graph are (type, subgraph)
// pairs; edges are intra-subgraph field traversals and key-based entity
// jumps. @requires dependencies must additionally be acyclic.
//
// On success the supergraph is re-tagged Satisfiable with no further
// mutation; otherwise the full list of per-field diagnostics is returned.
func ValidateSatisfiability(sg *Supergraph[Merged]) (*Supergraph[Satisfiable], Errors) {
	v := &satisfiability{
		schema:    sg.Schema,
		routing:   sg.Routing,
		reachable: map[graphNode]bool{},
	}
	v.checkRequiresCycles()
	v.buildReachability()
	v.checkFields()

	if len(v.errors) > 0 {
		return nil, v.errors
	}
	return &Supergraph[Satisfiable]{Schema: sg.Schema, Routing: sg.Routing, Hints: sg.Hints}, nil
}

// graphNode is a position in the federation graph: a query executor standing
// on a type inside one subgraph.
type graphNode struct {
	typeName string
	subgraph string
}

type satisfiability struct {
	schema    *schema.Schema
	routing   *RoutingTable
	reachable map[graphNode]bool
	errors    Errors
}

// checkRequiresCycles rejects @requires chains that depend on themselves.
// Edges run from a field to every top-level field its @requires selects on
// the same type, across all subgraphs declaring one.
func (v *satisfiability) checkRequiresCycles() {
	typeNames := make([]string, 0, len(v.routing.Types))
	for name := range v.routing.Types {
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	for _, typeName := range typeNames {
		tr := v.routing.Types[typeName]
		deps := map[string][]string{}
		fieldNames := make([]string, 0, len(tr.Fields))
		for fname := range tr.Fields {
			fieldNames = append(fieldNames, fname)
		}
		sort.Strings(fieldNames)

		for _, fname := range fieldNames {
			fr := tr.Fields[fname]
			for _, raw := range orderedValues(fr.RequiresIn) {
				fs, err := subgraph.ParseFieldSet(raw)
				if err != nil {
					continue // rejected during subgraph validation
				}
				for _, dep := range fs.TopLevelFields() {
					deps[fname] = appendUnique(deps[fname], dep)
				}
			}
		}
		if len(deps) == 0 {
			continue
		}

		// 0=unvisited, 1=visiting, 2=done
		visited := map[string]int{}
		var stack []string
		var cycle []string
		var dfs func(f string)
		dfs = func(f string) {
			if cycle != nil {
				return
			}
			switch visited[f] {
			case 1:
				cycle = append(append([]string{}, stack...), f)
				return
			case 2:
				return
			}
			visited[f] = 1
			stack = append(stack, f)
			for _, dep := range deps[f] {
				dfs(dep)
				if cycle != nil {
					return
				}
			}
			stack = stack[:len(stack)-1]
			visited[f] = 2
		}
		for _, fname := range fieldNames {
			dfs(fname)
			if cycle != nil {
				v.errors = append(v.errors, errRequiresCycle(typeName, cycle))
				break
			}
		}
	}
}

// buildReachability runs a breadth-first search from every subgraph's root
// type over field-traversal and key-jump edges.
func (v *satisfiability) buildReachability() {
	var queue []graphNode
	visit := func(n graphNode) {
		if !v.reachable[n] {
			v.reachable[n] = true
			queue = append(queue, n)
		}
	}

	for _, root := range []string{v.schema.QueryType, v.schema.MutationType, v.schema.SubscriptionType} {
		if root == "" {
			continue
		}
		if tr := v.routing.Types[root]; tr != nil {
			for _, s := range tr.Subgraphs {
				visit(graphNode{typeName: root, subgraph: s})
			}
		}
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		tr := v.routing.Types[n.typeName]
		if tr == nil {
			continue
		}

		// Intra-subgraph traversal: any field this subgraph resolves leads
		// to the field's type inside the same subgraph.
		t := v.schema.Types[n.typeName]
		if t != nil {
			for _, f := range t.Fields {
				fr := tr.Fields[f.Name]
				if fr == nil || !fr.Resolves(n.subgraph) {
					continue
				}
				v.visitTarget(f.Type.GetNamedType(), n.subgraph, visit)
			}
		}

		// Entity jump: another subgraph declaring a @key on this type is
		// reachable when the key's fields are available here.
		for _, key := range tr.Keys {
			if key.Subgraph == n.subgraph {
				continue
			}
			if v.keyAvailable(n.subgraph, tr, key) {
				visit(graphNode{typeName: n.typeName, subgraph: key.Subgraph})
			}
		}
	}
}

// visitTarget records that the executor can stand on the named type in the
// given subgraph, expanding abstract types into their members.
func (v *satisfiability) visitTarget(typeName, sub string, visit func(graphNode)) {
	target := v.schema.Types[typeName]
	if target == nil {
		return
	}
	switch target.Kind {
	case schema.TypeKindObject, schema.TypeKindInterface:
		if tr := v.routing.Types[typeName]; tr != nil && tr.DeclaredIn(sub) {
			visit(graphNode{typeName: typeName, subgraph: sub})
		}
		if target.Kind == schema.TypeKindInterface {
			for _, impl := range target.PossibleTypes {
				if tr := v.routing.Types[impl]; tr != nil && tr.DeclaredIn(sub) {
					visit(graphNode{typeName: impl, subgraph: sub})
				}
			}
		}
	case schema.TypeKindUnion:
		for _, member := range target.PossibleTypes {
			if tr := v.routing.Types[member]; tr != nil && tr.DeclaredIn(sub) {
				visit(graphNode{typeName: member, subgraph: sub})
			}
		}
	}
}

// keyAvailable reports whether the subgraph has every top-level field of the
// key declared, external declarations included, so a query executor standing
// there can assemble the entity representation.
func (v *satisfiability) keyAvailable(sub string, tr *TypeRouting, key KeyRouting) bool {
	fs, err := subgraph.ParseFieldSet(key.FieldSet)
	if err != nil {
		return false
	}
	fields := fs.TopLevelFields()
	if len(fields) == 0 {
		return false
	}
	for _, fname := range fields {
		fr := tr.Fields[fname]
		if fr == nil || !fr.Declares(sub) {
			return false
		}
	}
	return true
}

// checkFields verifies each field of every reachable type individually:
// some subgraph must both be reachable on that type and able to resolve the
// field.
func (v *satisfiability) checkFields() {
	typeNames := make([]string, 0, len(v.schema.Types))
	for name := range v.schema.Types {
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	for _, typeName := range typeNames {
		t := v.schema.Types[typeName]
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			continue
		}
		tr := v.routing.Types[typeName]
		if tr == nil {
			continue // builtins and synthesized machinery
		}
		var reachableIn []string
		for _, s := range tr.Subgraphs {
			if v.reachable[graphNode{typeName: typeName, subgraph: s}] {
				reachableIn = append(reachableIn, s)
			}
		}
		if len(reachableIn) == 0 {
			// No query shape reaches this type at all; its fields are moot.
			continue
		}

		for _, f := range t.Fields {
			fr := tr.Fields[f.Name]
			if fr == nil {
				continue
			}
			satisfied := false
			for _, s := range reachableIn {
				if fr.Resolves(s) {
					satisfied = true
					break
				}
			}
			if !satisfied {
				v.errors = append(v.errors, errUnsatisfiableField(typeName, f.Name, tr.Subgraphs))
			}
		}
	}
}

func orderedValues(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(m))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
