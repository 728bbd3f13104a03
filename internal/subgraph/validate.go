package subgraph

import (
	language "github.com/hanpama/supergraph/internal/language"
	"github.com/hanpama/supergraph/internal/schema"
)

// Validate runs federation checks over an upgraded subgraph: every @key,
// @requires and @provides must carry a parseable field set that selects
// fields actually declared on the targeted type. All violations are
// collected before reporting.
func Validate(s Subgraph[Upgraded]) (Subgraph[Validated], error) {
	v := &validator{name: s.Name, doc: s.Schema}
	v.validate()
	if len(v.violations) > 0 {
		return Subgraph[Validated]{}, ValidationError(v.violations)
	}
	return Subgraph[Validated]{
		Name:       s.Name,
		RoutingURL: s.RoutingURL,
		Schema:     s.Schema,
		version:    s.version,
	}, nil
}

type validator struct {
	name       string
	doc        *language.SchemaDocument
	violations []*Violation
}

func (v *validator) addViolation(violations ...*Violation) {
	v.violations = append(v.violations, violations...)
}

func (v *validator) validate() {
	seen := map[string]bool{}
	for _, def := range v.doc.Definitions {
		if IsFederationType(def.Name) {
			continue
		}
		if seen[def.Name] {
			v.addViolation(violationDuplicateDefinition(def.Name, def.Position))
			continue
		}
		seen[def.Name] = true
		v.validateDefinition(def)
	}
}

func (v *validator) validateDefinition(def *language.Definition) {
	for _, d := range def.Directives.ForNames(DirectiveKey) {
		if def.Kind != language.Object && def.Kind != language.Interface {
			v.addViolation(violationDirectivePlacement(DirectiveKey, def.Name, def.Kind, d.Position))
			continue
		}
		v.validateFieldSetArg(DirectiveKey, def, d)
	}

	for _, f := range def.Fields {
		if d := f.Directives.ForName(DirectiveRequires); d != nil {
			// @requires selects sibling fields of the parent type
			v.validateFieldSetArg(DirectiveRequires, def, d)
		}
		if d := f.Directives.ForName(DirectiveProvides); d != nil {
			// @provides selects fields of the field's target type
			if target := v.doc.Definitions.ForName(f.Type.Name()); target != nil {
				v.validateFieldSetArg(DirectiveProvides, target, d)
			}
		}
		if d := f.Directives.ForName(DirectiveOverride); d != nil {
			if from := d.Arguments.ForName("from"); from != nil && from.Value.Raw == v.name {
				v.addViolation(violationOverrideSelf(def.Name, f.Name, v.name, d.Position))
			}
		}
	}
}

// validateFieldSetArg checks the fields argument of directive d against the
// fields declared by def.
func (v *validator) validateFieldSetArg(directive string, def *language.Definition, d *language.Directive) {
	arg := d.Arguments.ForName("fields")
	if arg == nil {
		v.addViolation(violationMissingFieldsArgument(directive, def.Name, d.Position))
		return
	}
	fs, err := ParseFieldSet(arg.Value.Raw)
	if err != nil {
		v.addViolation(violationInvalidFieldSet(directive, def.Name, arg.Value.Raw, err, d.Position))
		return
	}
	v.validateSelections(directive, def, fs.Selections, d.Position)
}

func (v *validator) validateSelections(directive string, def *language.Definition, sels language.SelectionSet, pos *language.Position) {
	for _, sel := range sels {
		f, ok := sel.(*language.Field)
		if !ok {
			continue
		}
		fieldDef := def.Fields.ForName(f.Name)
		if fieldDef == nil {
			v.addViolation(violationFieldSetUnknownField(directive, def.Name, f.Name, pos))
			continue
		}
		base := fieldDef.Type.Name()
		target := v.doc.Definitions.ForName(base)
		isComposite := target != nil &&
			(target.Kind == language.Object || target.Kind == language.Interface)
		if len(f.SelectionSet) > 0 {
			if !isComposite && (schema.IsBuiltinType(base) || target == nil || target.Kind == language.Scalar || target.Kind == language.Enum) {
				v.addViolation(violationFieldSetOnLeaf(directive, def.Name, f.Name, pos))
				continue
			}
			if isComposite {
				v.validateSelections(directive, target, f.SelectionSet, pos)
			}
		}
	}
}
