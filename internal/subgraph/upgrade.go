package subgraph

import (
	"fmt"

	language "github.com/hanpama/supergraph/internal/language"
)

// Upgrade normalizes a batch of expanded subgraphs to current federation
// form. The whole batch is taken at once so version decisions can consider
// every subgraph together: a federation 1.0 document composed next to 2.x
// documents is rewritten rather than rejected.
//
// Normalization folds type extensions into their base definitions (creating
// the base when a federation 1.0 subgraph only extends an entity owned
// elsewhere) and folds schema extensions into the schema definition. Errors
// are reported per subgraph; a failed subgraph does not stop the rest of the
// batch.
func Upgrade(batch []Subgraph[Expanded]) ([]Subgraph[Upgraded], []error) {
	var errs []error
	upgraded := make([]Subgraph[Upgraded], 0, len(batch))
	for _, s := range batch {
		if err := normalizeExtensions(s.Name, s.Schema); err != nil {
			errs = append(errs, err)
			continue
		}
		upgraded = append(upgraded, Subgraph[Upgraded]{
			Name:       s.Name,
			RoutingURL: s.RoutingURL,
			Schema:     s.Schema,
			version:    s.version,
		})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return upgraded, nil
}

func normalizeExtensions(name string, doc *language.SchemaDocument) error {
	for _, ext := range doc.Extensions {
		base := doc.Definitions.ForName(ext.Name)
		if base == nil {
			// Federation 1.0 style: the extension is the subgraph's whole
			// declaration of the type.
			promoted := *ext
			doc.Definitions = append(doc.Definitions, &promoted)
			continue
		}
		if base.Kind != ext.Kind {
			return fmt.Errorf("subgraph %q: extension of %q is a %s but the base type is a %s",
				name, ext.Name, ext.Kind, base.Kind)
		}
		for _, f := range ext.Fields {
			if base.Fields.ForName(f.Name) != nil {
				return fmt.Errorf("subgraph %q: extension of %q redeclares field %q",
					name, ext.Name, f.Name)
			}
			base.Fields = append(base.Fields, f)
		}
		for _, v := range ext.EnumValues {
			if base.EnumValues.ForName(v.Name) == nil {
				base.EnumValues = append(base.EnumValues, v)
			}
		}
		for _, member := range ext.Types {
			if !containsString(base.Types, member) {
				base.Types = append(base.Types, member)
			}
		}
		for _, iface := range ext.Interfaces {
			if !containsString(base.Interfaces, iface) {
				base.Interfaces = append(base.Interfaces, iface)
			}
		}
		base.Directives = append(base.Directives, ext.Directives...)
	}
	doc.Extensions = nil

	for _, ext := range doc.SchemaExtension {
		doc.Schema = append(doc.Schema, ext)
	}
	doc.SchemaExtension = nil
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
