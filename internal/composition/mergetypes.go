package composition

import (
	"fmt"
	"sort"
	"strconv"

	language "github.com/hanpama/supergraph/internal/language"
	"github.com/hanpama/supergraph/internal/schema"
	"github.com/hanpama/supergraph/internal/subgraph"
)

// mergeEnumType takes the union of values declared in any subgraph: no value
// is dropped because one subgraph omitted it.
func (m *merger) mergeEnumType(name string, decls []decl) {
	t := &schema.Type{Name: name, Kind: schema.TypeKindEnum}
	tr := m.routing.typeRouting(name)
	typeDesc := descMerger{}

	values := map[string]*schema.EnumValue{}
	valueDescs := map[string]*descMerger{}
	for _, d := range decls {
		tr.Subgraphs = appendUnique(tr.Subgraphs, d.subgraph)
		typeDesc.offer(d.def.Description)
		for _, v := range d.def.EnumValues {
			ev := values[v.Name]
			if ev == nil {
				ev = &schema.EnumValue{Name: v.Name}
				if dep := v.Directives.ForName("deprecated"); dep != nil {
					ev.IsDeprecated = true
					ev.DeprecationReason = deprecationReason(dep)
				}
				values[v.Name] = ev
				valueDescs[v.Name] = &descMerger{}
			}
			valueDescs[v.Name].offer(v.Description)
		}
	}

	t.Description = typeDesc.finish(m, fmt.Sprintf("enum %q", name))
	valueNames := make([]string, 0, len(values))
	for vname := range values {
		valueNames = append(valueNames, vname)
	}
	sort.Strings(valueNames)
	for _, vname := range valueNames {
		ev := values[vname]
		ev.Description = valueDescs[vname].finish(m, fmt.Sprintf("enum value %q", name+"."+vname))
		t.EnumValues = append(t.EnumValues, ev)
	}
	m.schema.AddType(t)
}

// mergeUnionType takes the deduplicated union of member sets.
func (m *merger) mergeUnionType(name string, decls []decl) {
	t := &schema.Type{Name: name, Kind: schema.TypeKindUnion}
	tr := m.routing.typeRouting(name)
	typeDesc := descMerger{}

	for _, d := range decls {
		tr.Subgraphs = appendUnique(tr.Subgraphs, d.subgraph)
		typeDesc.offer(d.def.Description)
		for _, member := range d.def.Types {
			t.PossibleTypes = appendUnique(t.PossibleTypes, member)
		}
	}
	t.Description = typeDesc.finish(m, fmt.Sprintf("union %q", name))
	sort.Strings(t.PossibleTypes)
	m.schema.AddType(t)
}

func (m *merger) mergeScalarType(name string, decls []decl) {
	t := &schema.Type{Name: name, Kind: schema.TypeKindScalar}
	tr := m.routing.typeRouting(name)
	typeDesc := descMerger{}

	for _, d := range decls {
		tr.Subgraphs = appendUnique(tr.Subgraphs, d.subgraph)
		typeDesc.offer(d.def.Description)
		if dir := d.def.Directives.ForName("specifiedBy"); dir != nil && t.SpecifiedByURL == "" {
			if arg := dir.Arguments.ForName("url"); arg != nil {
				t.SpecifiedByURL = arg.Value.Raw
			}
		}
	}
	t.Description = typeDesc.finish(m, fmt.Sprintf("scalar %q", name))
	m.schema.AddType(t)
}

// mergeInputType merges input objects with the same union-of-fields rule as
// composite types; shared fields must agree on their base type shape.
func (m *merger) mergeInputType(name string, decls []decl) {
	t := &schema.Type{Name: name, Kind: schema.TypeKindInputObject}
	tr := m.routing.typeRouting(name)
	typeDesc := descMerger{}

	type inputAcc struct {
		value         *schema.InputValue
		desc          descMerger
		firstSubgraph string
		firstType     string
	}
	fields := map[string]*inputAcc{}

	for _, d := range decls {
		tr.Subgraphs = appendUnique(tr.Subgraphs, d.subgraph)
		typeDesc.offer(d.def.Description)
		for _, f := range d.def.Fields {
			acc := fields[f.Name]
			if acc == nil {
				acc = &inputAcc{
					value: &schema.InputValue{
						Name:         f.Name,
						Type:         typeRefFromAST(f.Type),
						DefaultValue: convertValue(f.DefaultValue),
					},
					firstSubgraph: d.subgraph,
					firstType:     f.Type.String(),
				}
				fields[f.Name] = acc
			} else {
				merged, ok := mergeTypeRefs(acc.value.Type, typeRefFromAST(f.Type))
				if !ok {
					m.addError(errFieldTypeConflict(name, f.Name,
						acc.firstType, f.Type.String(),
						acc.firstSubgraph, d.subgraph))
				} else {
					acc.value.Type = merged
				}
			}
			acc.desc.offer(f.Description)
		}
	}

	t.Description = typeDesc.finish(m, fmt.Sprintf("input %q", name))
	fieldNames := make([]string, 0, len(fields))
	for fname := range fields {
		fieldNames = append(fieldNames, fname)
	}
	sort.Strings(fieldNames)
	for _, fname := range fieldNames {
		acc := fields[fname]
		acc.value.Description = acc.desc.finish(m, fmt.Sprintf("input field %q", name+"."+fname))
		t.InputFields = append(t.InputFields, acc.value)
	}
	m.schema.AddType(t)
}

// mergeDirectiveDefinitions carries user-defined directives into the merged
// schema. Federation directives are consumed by composition and never
// surface here.
func (m *merger) mergeDirectiveDefinitions() {
	type directiveAcc struct {
		directive *schema.Directive
		desc      descMerger
	}
	grouped := map[string]*directiveAcc{}

	for _, s := range m.subgraphs {
		for _, def := range s.Schema.Directives {
			if subgraph.IsFederationDirective(def.Name) || isBuiltinDirective(def.Name) {
				continue
			}
			acc := grouped[def.Name]
			if acc == nil {
				locations := make([]string, 0, len(def.Locations))
				for _, loc := range def.Locations {
					locations = append(locations, string(loc))
				}
				acc = &directiveAcc{
					directive: &schema.Directive{
						Name:         def.Name,
						Locations:    locations,
						Arguments:    convertArguments(def.Arguments),
						IsRepeatable: def.IsRepeatable,
					},
				}
				grouped[def.Name] = acc
			}
			acc.desc.offer(def.Description)
		}
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		acc := grouped[name]
		acc.directive.Description = acc.desc.finish(m, fmt.Sprintf("directive %q", "@"+name))
		m.schema.AddDirective(acc.directive)
	}
}

func isBuiltinDirective(name string) bool {
	switch name {
	case "include", "skip", "deprecated", "specifiedBy":
		return true
	}
	return false
}

// ----- AST conversion helpers -----

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	var ref *schema.TypeRef
	if t.NamedType != "" {
		ref = schema.NamedType(t.NamedType)
	} else {
		ref = schema.ListType(typeRefFromAST(t.Elem))
	}
	if t.NonNull {
		ref = schema.NonNullType(ref)
	}
	return ref
}

// mergeTypeRefs reconciles two declarations of the same field. The base
// shape (named types and list nesting) must match exactly; non-null-ness is
// widened to the most permissive declaration, level by level.
func mergeTypeRefs(a, b *schema.TypeRef) (*schema.TypeRef, bool) {
	coreA, coreB := a.Nullable(), b.Nullable()
	if coreA == nil || coreB == nil || coreA.Kind != coreB.Kind {
		return nil, false
	}

	var core *schema.TypeRef
	switch coreA.Kind {
	case schema.TypeRefKindNamed:
		if coreA.Named != coreB.Named {
			return nil, false
		}
		core = schema.NamedType(coreA.Named)
	case schema.TypeRefKindList:
		inner, ok := mergeTypeRefs(coreA.OfType, coreB.OfType)
		if !ok {
			return nil, false
		}
		core = schema.ListType(inner)
	default:
		return nil, false
	}

	if a.IsNonNull() && b.IsNonNull() {
		return schema.NonNullType(core), true
	}
	return core, true
}

func convertArguments(args language.ArgumentDefinitionList) []*schema.InputValue {
	var out []*schema.InputValue
	for _, arg := range args {
		out = append(out, &schema.InputValue{
			Name:         arg.Name,
			Description:  arg.Description,
			Type:         typeRefFromAST(arg.Type),
			DefaultValue: convertValue(arg.DefaultValue),
		})
	}
	return out
}

// convertValue lowers a parsed literal into the schema model's value space.
func convertValue(v *language.Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case language.IntValue:
		if n, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return n
		}
		return v.Raw
	case language.FloatValue:
		if f, err := strconv.ParseFloat(v.Raw, 64); err == nil {
			return f
		}
		return v.Raw
	case language.StringValue, language.BlockValue:
		return v.Raw
	case language.BooleanValue:
		return v.Raw == "true"
	case language.NullValue:
		return nil
	case language.EnumValue:
		return schema.EnumLiteral(v.Raw)
	case language.ListValue:
		var items []any
		for _, child := range v.Children {
			items = append(items, convertValue(child.Value))
		}
		return items
	case language.ObjectValue:
		obj := map[string]any{}
		for _, child := range v.Children {
			obj[child.Name] = convertValue(child.Value)
		}
		return obj
	}
	return v.Raw
}

func applyDeprecation(f *schema.Field, directives language.DirectiveList) {
	dep := directives.ForName("deprecated")
	if dep == nil {
		return
	}
	f.IsDeprecated = true
	f.DeprecationReason = deprecationReason(dep)
}

func deprecationReason(dep *language.Directive) string {
	if arg := dep.Arguments.ForName("reason"); arg != nil {
		return arg.Value.Raw
	}
	return ""
}
