package composition

import (
	"fmt"
	"strings"
)

// ErrorKind tags a CompositionError with the stage class that produced it.
type ErrorKind string

const (
	// ErrorKindInternal covers engine failures and contract violations.
	ErrorKindInternal ErrorKind = "INTERNAL_ERROR"
	// ErrorKindTypeDefinitionInvalid covers merge-time and post-merge
	// structural problems attributable to a declaration.
	ErrorKindTypeDefinitionInvalid ErrorKind = "TYPE_DEFINITION_INVALID"
	// ErrorKindSubgraph wraps failures forwarded from per-subgraph stages
	// (parse, expand, upgrade, validate).
	ErrorKindSubgraph ErrorKind = "SUBGRAPH_ERROR"
	// ErrorKindSatisfiability covers fields with no resolution path.
	ErrorKindSatisfiability ErrorKind = "SATISFIABILITY_ERROR"
)

// CompositionError is one problem found during a composition run. Values are
// immutable and cheap to copy.
type CompositionError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e CompositionError) Error() string { return e.Message }

// Errors is the ordered list a failed composition returns.
type Errors []CompositionError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = "- " + err.Message
	}
	return "composition failed:\n" + strings.Join(msgs, "\n")
}

// Error constructors. Keep messages stable: callers match on substrings.

func internalErrorf(format string, args ...any) CompositionError {
	return CompositionError{Kind: ErrorKindInternal, Message: fmt.Sprintf(format, args...)}
}

func errEmptySubgraphs() CompositionError {
	return internalErrorf("Cannot compose with empty subgraphs list")
}

func errDuplicateSubgraphName(name string) CompositionError {
	return internalErrorf("Duplicate subgraph name: %s", name)
}

func errSubgraphStage(err error) CompositionError {
	return CompositionError{Kind: ErrorKindSubgraph, Message: err.Error()}
}

func errMissingQueryType() CompositionError {
	return CompositionError{
		Kind:    ErrorKindTypeDefinitionInvalid,
		Message: "Supergraph must have a query type",
	}
}

func errEmptyEntityUnion() CompositionError {
	return CompositionError{
		Kind:    ErrorKindTypeDefinitionInvalid,
		Message: "_Entity union exists but has no members",
	}
}

func errTypeKindConflict(typeName string, kindA, kindB, subgraphA, subgraphB string) CompositionError {
	return CompositionError{
		Kind: ErrorKindTypeDefinitionInvalid,
		Message: fmt.Sprintf("Type %q is a %s in subgraph %q but a %s in subgraph %q",
			typeName, kindA, subgraphA, kindB, subgraphB),
	}
}

func errFieldTypeConflict(typeName, fieldName, typeA, typeB, subgraphA, subgraphB string) CompositionError {
	return CompositionError{
		Kind: ErrorKindTypeDefinitionInvalid,
		Message: fmt.Sprintf("Field %s.%s has incompatible types across subgraphs: %s (subgraph %q) vs %s (subgraph %q)",
			typeName, fieldName, typeA, subgraphA, typeB, subgraphB),
	}
}

func errRootTypeConflict(operation string, names []string) CompositionError {
	return CompositionError{
		Kind: ErrorKindTypeDefinitionInvalid,
		Message: fmt.Sprintf("Subgraphs disagree on the %s root type name: %s",
			operation, strings.Join(names, ", ")),
	}
}

func errUnsatisfiableField(typeName, fieldName string, candidates []string) CompositionError {
	return CompositionError{
		Kind: ErrorKindSatisfiability,
		Message: fmt.Sprintf("Cannot satisfy field %s.%s: no subgraph can resolve it on any reachable path (subgraphs examined: %s)",
			typeName, fieldName, strings.Join(candidates, ", ")),
	}
}

func errRequiresCycle(typeName string, cycle []string) CompositionError {
	return CompositionError{
		Kind: ErrorKindSatisfiability,
		Message: fmt.Sprintf("Cyclic @requires dependency on type %q: %s",
			typeName, strings.Join(cycle, " -> ")),
	}
}
