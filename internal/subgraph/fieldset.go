package subgraph

import (
	language "github.com/hanpama/supergraph/internal/language"
)

// FieldSet is the parsed form of a @key/@requires/@provides fields argument.
type FieldSet struct {
	Raw        string
	Selections language.SelectionSet
}

// ParseFieldSet parses a raw fields argument value.
func ParseFieldSet(raw string) (FieldSet, error) {
	sels, err := language.ParseFieldSet(raw)
	if err != nil {
		return FieldSet{}, err
	}
	return FieldSet{Raw: raw, Selections: sels}, nil
}

// TopLevelFields returns the names selected at the top level of the set, in
// declaration order.
func (fs FieldSet) TopLevelFields() []string {
	var names []string
	for _, sel := range fs.Selections {
		if f, ok := sel.(*language.Field); ok {
			names = append(names, f.Name)
		}
	}
	return names
}
