// Package subgraph models one partial schema contributed by a service and
// the lifecycle it moves through before composition: Initial (parsed SDL),
// Expanded (federation definitions resolved), Upgraded (legacy syntax
// normalized) and Validated (federation checks passed).
//
// The lifecycle state is a phantom type parameter. Each transition is a
// package function that accepts only the preceding state and returns the
// next one, so a subgraph that has not passed validation cannot reach the
// merge engine.
package subgraph

import (
	"fmt"

	language "github.com/hanpama/supergraph/internal/language"
)

// State is the set of lifecycle stages a subgraph can be in.
type State interface{ state() }

type Initial struct{}
type Expanded struct{}
type Upgraded struct{}
type Validated struct{}

func (Initial) state()   {}
func (Expanded) state()  {}
func (Upgraded) state()  {}
func (Validated) state() {}

// Subgraph is one partial schema with its routing endpoint.
type Subgraph[S State] struct {
	Name       string
	RoutingURL string
	Schema     *language.SchemaDocument

	// federation spec version declared via @link, "1.0" when absent
	version string
}

// Parse builds an Initial subgraph from SDL text.
func Parse(name, routingURL, sdl string) (Subgraph[Initial], error) {
	doc, err := language.ParseSchema(name, sdl)
	if err != nil {
		return Subgraph[Initial]{}, fmt.Errorf("subgraph %q: %w", name, err)
	}
	return Subgraph[Initial]{Name: name, RoutingURL: routingURL, Schema: doc}, nil
}
