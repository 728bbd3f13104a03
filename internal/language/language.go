package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseFieldSet parses the value of a @key/@requires/@provides "fields"
// argument. The argument is a bare selection set without braces, e.g.
// "sku" or "id organization { id }".
func ParseFieldSet(source string) (SelectionSet, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: "{" + source + "}"})
	if err != nil {
		return nil, err
	}
	return doc.Operations[0].SelectionSet, nil
}
