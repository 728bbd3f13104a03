package subgraph

import (
	"fmt"
	"strings"

	language "github.com/hanpama/supergraph/internal/language"
)

const federationSpecURL = "specs.apollo.dev/federation/"

// ExpandLinks resolves the subgraph's @link imports into canonical federation
// definitions. Aliased or namespaced directive uses are renamed in place to
// their canonical names and any missing federation definitions are added to
// the document, so later stages never deal with import-local spellings.
func ExpandLinks(s Subgraph[Initial]) (Subgraph[Expanded], error) {
	version, aliases, err := resolveLinks(s)
	if err != nil {
		return Subgraph[Expanded]{}, err
	}

	if len(aliases) > 0 {
		renameDirectives(s.Schema, aliases)
	}
	injectFederationDefs(s.Schema)

	return Subgraph[Expanded]{
		Name:       s.Name,
		RoutingURL: s.RoutingURL,
		Schema:     s.Schema,
		version:    version,
	}, nil
}

// resolveLinks scans schema definitions for federation @link directives and
// returns the declared spec version plus a local-name to canonical-name map.
// A document without a federation link is treated as federation 1.0, where
// the canonical names are implicitly in scope.
func resolveLinks(s Subgraph[Initial]) (string, map[string]string, error) {
	aliases := map[string]string{}
	version := "1.0"
	linked := false

	var links []*language.Directive
	for _, def := range s.Schema.Schema {
		links = append(links, def.Directives.ForNames(DirectiveLink)...)
	}
	for _, def := range s.Schema.SchemaExtension {
		links = append(links, def.Directives.ForNames(DirectiveLink)...)
	}

	for _, link := range links {
		urlArg := link.Arguments.ForName("url")
		if urlArg == nil {
			return "", nil, fmt.Errorf("subgraph %q: @link requires a url argument", s.Name)
		}
		url := urlArg.Value.Raw
		if !strings.Contains(url, federationSpecURL) {
			continue
		}
		linked = true
		if i := strings.LastIndex(url, "/v"); i >= 0 {
			version = url[i+2:]
		}

		importArg := link.Arguments.ForName("import")
		if importArg == nil {
			continue
		}
		for _, child := range importArg.Value.Children {
			imported, local, err := importedName(child.Value)
			if err != nil {
				return "", nil, fmt.Errorf("subgraph %q: %w", s.Name, err)
			}
			canonical, ok := importableNames[imported]
			if !ok {
				return "", nil, fmt.Errorf("subgraph %q: unknown federation import %q", s.Name, imported)
			}
			if local != canonical {
				aliases[local] = canonical
			}
		}
	}

	if linked {
		// Unimported federation directives stay reachable through the
		// federation__ namespace.
		for imported, canonical := range importableNames {
			if strings.HasPrefix(imported, "@") {
				aliases["federation__"+canonical] = canonical
			}
		}
	}
	return version, aliases, nil
}

// importedName extracts the imported spec name and its local spelling from a
// single @link import entry, which is either a plain string ("@key") or an
// object ({name: "@key", as: "@primaryKey"}).
func importedName(v *language.Value) (imported, local string, err error) {
	switch v.Kind {
	case language.StringValue:
		return v.Raw, strings.TrimPrefix(v.Raw, "@"), nil
	case language.ObjectValue:
		var name, as string
		for _, child := range v.Children {
			switch child.Name {
			case "name":
				name = child.Value.Raw
			case "as":
				as = child.Value.Raw
			}
		}
		if name == "" {
			return "", "", fmt.Errorf("@link import object requires a name")
		}
		if as == "" {
			as = name
		}
		return name, strings.TrimPrefix(as, "@"), nil
	default:
		return "", "", fmt.Errorf("@link import entries must be strings or objects")
	}
}

// renameDirectives rewrites aliased directive uses to canonical names across
// the whole document.
func renameDirectives(doc *language.SchemaDocument, aliases map[string]string) {
	renameList := func(list language.DirectiveList) {
		for _, d := range list {
			if canonical, ok := aliases[d.Name]; ok {
				d.Name = canonical
			}
		}
	}
	renameDefs := func(defs language.DefinitionList) {
		for _, def := range defs {
			renameList(def.Directives)
			for _, f := range def.Fields {
				renameList(f.Directives)
				for _, arg := range f.Arguments {
					renameList(arg.Directives)
				}
			}
			for _, v := range def.EnumValues {
				renameList(v.Directives)
			}
		}
	}
	renameDefs(doc.Definitions)
	renameDefs(doc.Extensions)
}

// injectFederationDefs adds canonical federation directive definitions and
// the FieldSet scalar where the document does not declare them.
func injectFederationDefs(doc *language.SchemaDocument) {
	for _, def := range federationDirectiveDefs() {
		if doc.Directives.ForName(def.Name) == nil {
			doc.Directives = append(doc.Directives, def)
		}
	}
	if doc.Definitions.ForName(fieldSetScalar) == nil {
		doc.Definitions = append(doc.Definitions, &language.Definition{
			Kind: language.Scalar,
			Name: fieldSetScalar,
		})
	}
}
