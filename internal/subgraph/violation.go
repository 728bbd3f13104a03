package subgraph

import (
	"fmt"

	language "github.com/hanpama/supergraph/internal/language"
)

type Violation struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.File != "" {
			line += fmt.Sprintf(" %s:%d:%d", v.File, v.Line, v.Column)
		}
		msg += line + "\n"
	}
	return msg
}

// Core primitive used by all template helpers.
func violationWithPosition(message string, pos *language.Position) *Violation {
	v := &Violation{Message: message}
	if pos != nil {
		v.Line = pos.Line
		v.Column = pos.Column
		if pos.Src != nil {
			v.File = pos.Src.Name
		}
	}
	return v
}

// Reusable violation constructors. Keep messages stable: composition errors
// forward them verbatim.

func violationInvalidFieldSet(directive, typeName, fields string, err error, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Invalid @%s field set %q on type %q: %v", directive, fields, typeName, err),
		pos,
	)
}

func violationMissingFieldsArgument(directive, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("@%s on type %q requires a fields argument", directive, typeName),
		pos,
	)
}

func violationFieldSetUnknownField(directive, typeName, fieldName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("@%s field set on type %q selects unknown field %q", directive, typeName, fieldName),
		pos,
	)
}

func violationFieldSetOnLeaf(directive, typeName, fieldName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("@%s field set on type %q selects subfields of leaf field %q", directive, typeName, fieldName),
		pos,
	)
}

func violationDuplicateDefinition(typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Type %q is defined more than once in this subgraph", typeName),
		pos,
	)
}

func violationDirectivePlacement(directive, typeName string, kind language.DefinitionKind, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("@%s is not allowed on %s type %q", directive, kind, typeName),
		pos,
	)
}

func violationOverrideSelf(typeName, fieldName, subgraphName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Field %s.%s cannot @override its own subgraph %q", typeName, fieldName, subgraphName),
		pos,
	)
}
