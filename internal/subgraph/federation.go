package subgraph

import (
	language "github.com/hanpama/supergraph/internal/language"
)

// Canonical federation directive names. After expansion every federation
// directive use in a subgraph document carries one of these names,
// regardless of how the subgraph imported or aliased it.
const (
	DirectiveKey          = "key"
	DirectiveExternal     = "external"
	DirectiveRequires     = "requires"
	DirectiveProvides     = "provides"
	DirectiveShareable    = "shareable"
	DirectiveOverride     = "override"
	DirectiveInaccessible = "inaccessible"
	DirectiveTag          = "tag"
	DirectiveLink         = "link"
)

const fieldSetScalar = "FieldSet"

// IsFederationDirective reports whether name is consumed by composition and
// must not surface in the merged public schema.
func IsFederationDirective(name string) bool {
	switch name {
	case DirectiveKey, DirectiveExternal, DirectiveRequires, DirectiveProvides,
		DirectiveShareable, DirectiveOverride, DirectiveInaccessible,
		DirectiveTag, DirectiveLink:
		return true
	}
	return false
}

// IsFederationType reports whether name is a federation machinery type that
// expansion may have injected into a subgraph document.
func IsFederationType(name string) bool {
	return name == fieldSetScalar || name == "link__Import" || name == "link__Purpose"
}

// importableNames maps every name a subgraph may import through @link to its
// canonical form.
var importableNames = map[string]string{
	"@key":          DirectiveKey,
	"@external":     DirectiveExternal,
	"@requires":     DirectiveRequires,
	"@provides":     DirectiveProvides,
	"@shareable":    DirectiveShareable,
	"@override":     DirectiveOverride,
	"@inaccessible": DirectiveInaccessible,
	"@tag":          DirectiveTag,
	"FieldSet":      fieldSetScalar,
}

func fieldSetArg() *language.ArgumentDefinition {
	return &language.ArgumentDefinition{
		Name: "fields",
		Type: language.NonNullNamedType(fieldSetScalar, nil),
	}
}

// federationDirectiveDefs builds the canonical definitions injected into a
// subgraph document during expansion.
func federationDirectiveDefs() []*language.DirectiveDefinition {
	return []*language.DirectiveDefinition{
		{
			Name:         DirectiveKey,
			IsRepeatable: true,
			Arguments: language.ArgumentDefinitionList{
				fieldSetArg(),
				{Name: "resolvable", Type: language.NamedType("Boolean", nil)},
			},
			Locations: []language.DirectiveLocation{language.LocationObject, language.LocationInterface},
		},
		{
			Name:      DirectiveExternal,
			Locations: []language.DirectiveLocation{language.LocationObject, language.LocationFieldDefinition},
		},
		{
			Name:      DirectiveRequires,
			Arguments: language.ArgumentDefinitionList{fieldSetArg()},
			Locations: []language.DirectiveLocation{language.LocationFieldDefinition},
		},
		{
			Name:      DirectiveProvides,
			Arguments: language.ArgumentDefinitionList{fieldSetArg()},
			Locations: []language.DirectiveLocation{language.LocationFieldDefinition},
		},
		{
			Name:         DirectiveShareable,
			IsRepeatable: true,
			Locations:    []language.DirectiveLocation{language.LocationObject, language.LocationFieldDefinition},
		},
		{
			Name: DirectiveOverride,
			Arguments: language.ArgumentDefinitionList{
				{Name: "from", Type: language.NonNullNamedType("String", nil)},
			},
			Locations: []language.DirectiveLocation{language.LocationFieldDefinition},
		},
		{
			Name: DirectiveInaccessible,
			Locations: []language.DirectiveLocation{
				language.LocationObject, language.LocationInterface, language.LocationFieldDefinition,
				language.LocationUnion, language.LocationEnum, language.LocationEnumValue,
				language.LocationScalar, language.LocationInputObject, language.LocationInputFieldDefinition,
				language.LocationArgumentDefinition,
			},
		},
		{
			Name:         DirectiveTag,
			IsRepeatable: true,
			Arguments: language.ArgumentDefinitionList{
				{Name: "name", Type: language.NonNullNamedType("String", nil)},
			},
			Locations: []language.DirectiveLocation{
				language.LocationObject, language.LocationInterface, language.LocationFieldDefinition,
				language.LocationUnion, language.LocationEnum, language.LocationEnumValue,
				language.LocationScalar, language.LocationInputObject, language.LocationInputFieldDefinition,
				language.LocationArgumentDefinition,
			},
		},
		{
			Name:         DirectiveLink,
			IsRepeatable: true,
			Arguments: language.ArgumentDefinitionList{
				{Name: "url", Type: language.NonNullNamedType("String", nil)},
				{Name: "as", Type: language.NamedType("String", nil)},
				{Name: "import", Type: language.ListType(language.NamedType("link__Import", nil), nil)},
			},
			Locations: []language.DirectiveLocation{language.LocationSchema},
		},
	}
}
