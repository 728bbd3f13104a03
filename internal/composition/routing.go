package composition

import "sort"

// RoutingTable is the federation metadata the merge engine records while it
// strips federation directives from the public schema. The (out-of-scope)
// query planner and API projector consume it; the satisfiability validator
// treats it as its graph input. The shape is part of the package contract
// and must stay stable.
type RoutingTable struct {
	// Subgraphs maps subgraph name to routing URL.
	Subgraphs map[string]string       `json:"subgraphs"`
	Types     map[string]*TypeRouting `json:"types"`
}

// TypeRouting records which subgraphs declare a type and, for entities, the
// @key field sets each subgraph exposes.
type TypeRouting struct {
	Name string `json:"name"`
	// Subgraphs declaring the type, sorted by name.
	Subgraphs    []string                 `json:"subgraphs"`
	Keys         []KeyRouting             `json:"keys,omitempty"`
	Fields       map[string]*FieldRouting `json:"fields,omitempty"`
	Inaccessible bool                     `json:"inaccessible,omitempty"`
}

// KeyRouting is one @key declaration: the declaring subgraph plus the raw
// field set, usable as an entity-jump edge.
type KeyRouting struct {
	Subgraph string `json:"subgraph"`
	FieldSet string `json:"fieldSet"`
}

// FieldRouting records, per field, which subgraphs declare and which can
// actually resolve it, plus the federation constraints attached to it.
type FieldRouting struct {
	Name string `json:"name"`
	// DeclaredIn lists every subgraph mentioning the field, external
	// declarations included.
	DeclaredIn []string `json:"declaredIn"`
	// ResolvableIn lists subgraphs that can serve the field: declared,
	// not @external there, and not displaced by an @override.
	ResolvableIn []string `json:"resolvableIn"`
	// ExternalIn lists subgraphs declaring the field only for reference.
	ExternalIn []string `json:"externalIn,omitempty"`
	// RequiresIn maps subgraph name to the @requires field set it declares.
	RequiresIn map[string]string `json:"requiresIn,omitempty"`
	// ProvidesIn maps subgraph name to the @provides field set it declares.
	ProvidesIn map[string]string `json:"providesIn,omitempty"`
	// OverriddenFrom names the subgraph an @override displaced, if any.
	OverriddenFrom string `json:"overriddenFrom,omitempty"`
	Inaccessible   bool   `json:"inaccessible,omitempty"`
}

func newRoutingTable() *RoutingTable {
	return &RoutingTable{
		Subgraphs: make(map[string]string),
		Types:     make(map[string]*TypeRouting),
	}
}

func (rt *RoutingTable) typeRouting(name string) *TypeRouting {
	tr := rt.Types[name]
	if tr == nil {
		tr = &TypeRouting{Name: name, Fields: make(map[string]*FieldRouting)}
		rt.Types[name] = tr
	}
	return tr
}

func (tr *TypeRouting) fieldRouting(name string) *FieldRouting {
	fr := tr.Fields[name]
	if fr == nil {
		fr = &FieldRouting{Name: name}
		tr.Fields[name] = fr
	}
	return fr
}

// IsEntity reports whether at least one subgraph declares a @key for the
// type.
func (tr *TypeRouting) IsEntity() bool { return len(tr.Keys) > 0 }

// DeclaredIn reports whether the given subgraph declares the type.
func (tr *TypeRouting) DeclaredIn(subgraph string) bool {
	for _, s := range tr.Subgraphs {
		if s == subgraph {
			return true
		}
	}
	return false
}

// Declares reports whether the subgraph mentions the field at all.
func (fr *FieldRouting) Declares(subgraph string) bool {
	for _, s := range fr.DeclaredIn {
		if s == subgraph {
			return true
		}
	}
	return false
}

// Resolves reports whether the subgraph can serve the field.
func (fr *FieldRouting) Resolves(subgraph string) bool {
	for _, s := range fr.ResolvableIn {
		if s == subgraph {
			return true
		}
	}
	return false
}

func (fr *FieldRouting) removeResolvable(subgraph string) {
	out := fr.ResolvableIn[:0]
	for _, s := range fr.ResolvableIn {
		if s != subgraph {
			out = append(out, s)
		}
	}
	fr.ResolvableIn = out
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func (rt *RoutingTable) sortAll() {
	for _, tr := range rt.Types {
		sort.Strings(tr.Subgraphs)
		sort.Slice(tr.Keys, func(i, j int) bool {
			if tr.Keys[i].Subgraph != tr.Keys[j].Subgraph {
				return tr.Keys[i].Subgraph < tr.Keys[j].Subgraph
			}
			return tr.Keys[i].FieldSet < tr.Keys[j].FieldSet
		})
		for _, fr := range tr.Fields {
			sort.Strings(fr.DeclaredIn)
			sort.Strings(fr.ResolvableIn)
			sort.Strings(fr.ExternalIn)
		}
	}
}
