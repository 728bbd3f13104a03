package composition

import (
	"fmt"
	"sort"

	language "github.com/hanpama/supergraph/internal/language"
	"github.com/hanpama/supergraph/internal/schema"
	"github.com/hanpama/supergraph/internal/subgraph"
)

// MergeResult is the merge engine's raw output before the orchestrator
// unwraps it: a supergraph when merging succeeded, the full error list
// otherwise, and the hints gathered either way.
type MergeResult struct {
	Supergraph *Supergraph[Merged]
	Errors     Errors
	Hints      []Hint
}

// MergeSubgraphs unifies the validated subgraphs into one supergraph schema
// plus routing metadata. Output ordering never depends on map iteration
// order: subgraphs are visited in name order and every merged collection is
// sorted, so composing the same input twice yields a byte-identical schema
// document.
func MergeSubgraphs(subgraphs []subgraph.Subgraph[subgraph.Validated]) MergeResult {
	m := newMerger(subgraphs)
	m.merge()

	result := MergeResult{Errors: m.errors, Hints: m.hints}
	if len(m.errors) == 0 {
		result.Supergraph = &Supergraph[Merged]{
			Schema:  m.schema,
			Routing: m.routing,
			Hints:   m.hints,
		}
	}
	return result
}

type merger struct {
	// subgraphs in canonical (name-sorted) order; all order-sensitive
	// decisions such as description selection use this order
	subgraphs []subgraph.Subgraph[subgraph.Validated]
	schema    *schema.Schema
	routing   *RoutingTable
	errors    Errors
	hints     []Hint
}

// decl is one subgraph's declaration of a named type.
type decl struct {
	subgraph string
	def      *language.Definition
}

func newMerger(subgraphs []subgraph.Subgraph[subgraph.Validated]) *merger {
	ordered := make([]subgraph.Subgraph[subgraph.Validated], len(subgraphs))
	copy(ordered, subgraphs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	s := schema.NewSchema("")
	schema.AddBuiltins(s)
	return &merger{
		subgraphs: ordered,
		schema:    s,
		routing:   newRoutingTable(),
	}
}

func (m *merger) addError(errs ...CompositionError) {
	m.errors = append(m.errors, errs...)
}

func (m *merger) addHint(code, format string, args ...any) {
	m.hints = append(m.hints, Hint{Code: code, Message: fmt.Sprintf(format, args...)})
}

func (m *merger) merge() {
	for _, s := range m.subgraphs {
		m.routing.Subgraphs[s.Name] = s.RoutingURL
	}

	m.mergeRootTypes()
	m.mergeSchemaDescription()

	// Group declarations by name across all subgraphs.
	grouped := map[string][]decl{}
	for _, s := range m.subgraphs {
		for _, def := range s.Schema.Definitions {
			if subgraph.IsFederationType(def.Name) || def.BuiltIn {
				continue
			}
			grouped[def.Name] = append(grouped[def.Name], decl{subgraph: s.Name, def: def})
		}
	}
	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m.mergeType(name, grouped[name])
	}

	m.populatePossibleTypes()
	m.mergeDirectiveDefinitions()
	m.synthesizeEntityUnion()
	m.routing.sortAll()
}

// mergeRootTypes determines the supergraph's root operation type names. A
// subgraph contributes a name through an explicit schema definition, or
// implicitly by declaring a conventionally named root type.
func (m *merger) mergeRootTypes() {
	roots := map[language.Operation][]string{}
	record := func(op language.Operation, name string) {
		roots[op] = appendUnique(roots[op], name)
	}

	for _, s := range m.subgraphs {
		explicit := map[language.Operation]bool{}
		for _, sd := range s.Schema.Schema {
			for _, ot := range sd.OperationTypes {
				record(ot.Operation, ot.Type)
				explicit[ot.Operation] = true
			}
		}
		for op, conventional := range map[language.Operation]string{
			language.Query:        "Query",
			language.Mutation:     "Mutation",
			language.Subscription: "Subscription",
		} {
			if explicit[op] {
				continue
			}
			if def := s.Schema.Definitions.ForName(conventional); def != nil && def.Kind == language.Object {
				record(op, conventional)
			}
		}
	}

	pick := func(op language.Operation, label string) string {
		names := roots[op]
		if len(names) > 1 {
			sort.Strings(names)
			m.addError(errRootTypeConflict(label, names))
			return ""
		}
		if len(names) == 1 {
			return names[0]
		}
		return ""
	}
	m.schema.QueryType = pick(language.Query, "query")
	m.schema.MutationType = pick(language.Mutation, "mutation")
	m.schema.SubscriptionType = pick(language.Subscription, "subscription")
}

func (m *merger) mergeSchemaDescription() {
	d := descMerger{}
	for _, s := range m.subgraphs {
		for _, sd := range s.Schema.Schema {
			d.offer(sd.Description)
		}
	}
	m.schema.Description = d.finish(m, "schema")
}

func (m *merger) mergeType(name string, decls []decl) {
	kind := decls[0].def.Kind
	for _, d := range decls[1:] {
		if d.def.Kind != kind {
			m.addError(errTypeKindConflict(name,
				kindLabel(kind), kindLabel(d.def.Kind),
				decls[0].subgraph, d.subgraph))
			return
		}
	}

	switch kind {
	case language.Object, language.Interface:
		m.mergeCompositeType(name, kind, decls)
	case language.Enum:
		m.mergeEnumType(name, decls)
	case language.Union:
		m.mergeUnionType(name, decls)
	case language.Scalar:
		m.mergeScalarType(name, decls)
	case language.InputObject:
		m.mergeInputType(name, decls)
	}
}

// mergeCompositeType merges object and interface declarations: the merged
// field set is the union across subgraphs, every shared field must agree on
// its base type shape, and nullability widens to the most permissive
// declaration. Federation directives are recorded into the routing table and
// stripped from the public declaration.
func (m *merger) mergeCompositeType(name string, kind language.DefinitionKind, decls []decl) {
	t := &schema.Type{Name: name, Kind: schema.TypeKindObject}
	if kind == language.Interface {
		t.Kind = schema.TypeKindInterface
	}
	tr := m.routing.typeRouting(name)
	typeDesc := descMerger{}
	fields := map[string]*fieldAcc{}

	for _, d := range decls {
		tr.Subgraphs = appendUnique(tr.Subgraphs, d.subgraph)
		typeDesc.offer(d.def.Description)

		if d.def.Directives.ForName(subgraph.DirectiveInaccessible) != nil {
			tr.Inaccessible = true
		}
		for _, key := range d.def.Directives.ForNames(subgraph.DirectiveKey) {
			if arg := key.Arguments.ForName("fields"); arg != nil {
				tr.Keys = append(tr.Keys, KeyRouting{Subgraph: d.subgraph, FieldSet: arg.Value.Raw})
			}
		}
		for _, iface := range d.def.Interfaces {
			t.Interfaces = appendUnique(t.Interfaces, iface)
		}

		typeExternal := d.def.Directives.ForName(subgraph.DirectiveExternal) != nil
		for _, f := range d.def.Fields {
			m.mergeField(name, fields, tr, d, f, typeExternal)
		}
	}

	// An @override displaces the named subgraph after every declaration has
	// been seen.
	for _, fr := range tr.Fields {
		if fr.OverriddenFrom != "" {
			fr.removeResolvable(fr.OverriddenFrom)
		}
	}

	t.Description = typeDesc.finish(m, fmt.Sprintf("type %q", name))

	fieldNames := make([]string, 0, len(fields))
	for fname := range fields {
		fieldNames = append(fieldNames, fname)
	}
	sort.Strings(fieldNames)
	for _, fname := range fieldNames {
		acc := fields[fname]
		acc.field.Description = acc.desc.finish(m, fmt.Sprintf("field %q", name+"."+fname))
		t.Fields = append(t.Fields, acc.field)
	}
	sort.Strings(t.Interfaces)

	m.schema.AddType(t)
}

// fieldAcc accumulates one merged field across subgraph declarations.
type fieldAcc struct {
	field *schema.Field
	desc  descMerger
	// first declaring subgraph and its rendered type, for conflict reports
	firstSubgraph string
	firstType     string
	widened       bool
}

func (m *merger) mergeField(typeName string, fields map[string]*fieldAcc, tr *TypeRouting, d decl, f *language.FieldDefinition, typeExternal bool) {
	fr := tr.fieldRouting(f.Name)
	fr.DeclaredIn = appendUnique(fr.DeclaredIn, d.subgraph)

	external := typeExternal || f.Directives.ForName(subgraph.DirectiveExternal) != nil
	if external {
		fr.ExternalIn = appendUnique(fr.ExternalIn, d.subgraph)
	} else {
		fr.ResolvableIn = appendUnique(fr.ResolvableIn, d.subgraph)
	}
	if dir := f.Directives.ForName(subgraph.DirectiveRequires); dir != nil {
		if arg := dir.Arguments.ForName("fields"); arg != nil {
			if fr.RequiresIn == nil {
				fr.RequiresIn = map[string]string{}
			}
			fr.RequiresIn[d.subgraph] = arg.Value.Raw
		}
	}
	if dir := f.Directives.ForName(subgraph.DirectiveProvides); dir != nil {
		if arg := dir.Arguments.ForName("fields"); arg != nil {
			if fr.ProvidesIn == nil {
				fr.ProvidesIn = map[string]string{}
			}
			fr.ProvidesIn[d.subgraph] = arg.Value.Raw
		}
	}
	if dir := f.Directives.ForName(subgraph.DirectiveOverride); dir != nil {
		if arg := dir.Arguments.ForName("from"); arg != nil {
			fr.OverriddenFrom = arg.Value.Raw
		}
	}
	if f.Directives.ForName(subgraph.DirectiveInaccessible) != nil {
		fr.Inaccessible = true
	}

	ref := typeRefFromAST(f.Type)
	acc := fields[f.Name]
	if acc == nil {
		acc = &fieldAcc{
			field: &schema.Field{
				Name:      f.Name,
				Type:      ref,
				Arguments: convertArguments(f.Arguments),
			},
			firstSubgraph: d.subgraph,
			firstType:     f.Type.String(),
		}
		applyDeprecation(acc.field, f.Directives)
		fields[f.Name] = acc
	} else {
		merged, ok := mergeTypeRefs(acc.field.Type, ref)
		if !ok {
			m.addError(errFieldTypeConflict(typeName, f.Name,
				acc.firstType, f.Type.String(),
				acc.firstSubgraph, d.subgraph))
		} else {
			if !acc.widened && (merged.IsNonNull() != acc.field.Type.IsNonNull() || merged.IsNonNull() != ref.IsNonNull()) {
				acc.widened = true
				m.addHint(HintInconsistentNonNull,
					"Field %s.%s is non-null in some subgraphs only; the merged field is nullable",
					typeName, f.Name)
			}
			acc.field.Type = merged
		}
	}
	acc.desc.offer(f.Description)
}

// populatePossibleTypes fills interface possible-type lists from the merged
// object declarations.
func (m *merger) populatePossibleTypes() {
	names := make([]string, 0, len(m.schema.Types))
	for name := range m.schema.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := m.schema.Types[name]
		if t.Kind != schema.TypeKindObject {
			continue
		}
		for _, ifaceName := range t.Interfaces {
			if iface := m.schema.Types[ifaceName]; iface != nil && iface.Kind == schema.TypeKindInterface {
				iface.PossibleTypes = appendUnique(iface.PossibleTypes, t.Name)
			}
		}
	}
}

// synthesizeEntityUnion adds the internal _Entity union listing every type
// some subgraph declared a @key for.
func (m *merger) synthesizeEntityUnion() {
	var members []string
	for name, tr := range m.routing.Types {
		if !tr.IsEntity() {
			continue
		}
		if t := m.schema.Types[name]; t != nil && t.Kind == schema.TypeKindObject {
			members = append(members, name)
		}
	}
	if len(members) == 0 {
		return
	}
	sort.Strings(members)
	m.schema.AddType(&schema.Type{
		Name:          "_Entity",
		Kind:          schema.TypeKindUnion,
		PossibleTypes: members,
	})
}

// descMerger implements the description-selection protocol: the first
// non-empty description in canonical subgraph order wins, and a hint is
// recorded when several distinct non-empty descriptions exist.
type descMerger struct {
	value    string
	distinct []string
}

func (d *descMerger) offer(desc string) {
	if desc == "" {
		return
	}
	if d.value == "" {
		d.value = desc
	}
	for _, seen := range d.distinct {
		if seen == desc {
			return
		}
	}
	d.distinct = append(d.distinct, desc)
}

func (d *descMerger) finish(m *merger, label string) string {
	if len(d.distinct) > 1 {
		m.addHint(HintInconsistentDescription,
			"Multiple subgraphs describe %s differently; using the first description in canonical order", label)
	}
	return d.value
}

func kindLabel(kind language.DefinitionKind) string {
	switch kind {
	case language.Object:
		return "object"
	case language.Interface:
		return "interface"
	case language.Union:
		return "union"
	case language.Scalar:
		return "scalar"
	case language.Enum:
		return "enum"
	case language.InputObject:
		return "input object"
	}
	return string(kind)
}
