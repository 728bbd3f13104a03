// Package composition turns a set of independently authored subgraphs into
// one supergraph schema and proves every composed field is resolvable.
//
// The pipeline is fail-fast between stages and fail-slow within one: a
// stage only runs when the previous stage produced zero errors, and a stage
// operating over the subgraph collection reports every failure it found
// rather than the first.
package composition

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hanpama/supergraph/internal/subgraph"
)

var tracer trace.Tracer = otel.Tracer("supergraph/composition")

// Options configures a composition run.
type Options struct {
	// RunSatisfiability controls whether the satisfiability validator runs
	// after merging. When disabled the merged supergraph is assumed
	// satisfiable and re-tagged without verification; the Satisfiable tag
	// is then a trust boundary, not a proof.
	RunSatisfiability bool
}

func DefaultOptions() Options {
	return Options{RunSatisfiability: true}
}

// Compose runs the full pipeline with default options.
func Compose(ctx context.Context, subgraphs []subgraph.Subgraph[subgraph.Initial]) (*Supergraph[Satisfiable], Errors) {
	return ComposeWithOptions(ctx, subgraphs, DefaultOptions())
}

// ComposeWithOptions sequences expansion, upgrade, validation, pre-merge
// checks, merge, post-merge checks and (optionally) satisfiability into one
// entry point. Callers receive either a usable supergraph or the complete
// list of problems found in this attempt.
func ComposeWithOptions(ctx context.Context, subgraphs []subgraph.Subgraph[subgraph.Initial], opts Options) (*Supergraph[Satisfiable], Errors) {
	ctx, span := tracer.Start(ctx, "compose")
	defer span.End()
	span.SetAttributes(
		attribute.Int("composition.subgraph_count", len(subgraphs)),
		attribute.Bool("composition.run_satisfiability", opts.RunSatisfiability),
	)

	expanded, errs := ExpandSubgraphs(ctx, subgraphs)
	if len(errs) > 0 {
		return nil, errs
	}
	upgraded, errs := UpgradeSubgraphs(ctx, expanded)
	if len(errs) > 0 {
		return nil, errs
	}
	validated, errs := ValidateSubgraphs(ctx, upgraded)
	if len(errs) > 0 {
		return nil, errs
	}

	if errs := PreMergeValidations(validated); len(errs) > 0 {
		return nil, errs
	}
	merged, errs := mergeStage(ctx, validated)
	if len(errs) > 0 {
		return nil, errs
	}
	if errs := PostMergeValidations(merged); len(errs) > 0 {
		return nil, errs
	}

	if !opts.RunSatisfiability {
		return AssumeSatisfiable(merged), nil
	}
	return satisfiabilityStage(ctx, merged)
}

// ExpandSubgraphs resolves @link imports on every subgraph independently,
// accumulating failures across the whole collection.
func ExpandSubgraphs(ctx context.Context, subgraphs []subgraph.Subgraph[subgraph.Initial]) ([]subgraph.Subgraph[subgraph.Expanded], Errors) {
	_, span := tracer.Start(ctx, "compose.expand")
	defer span.End()

	expanded, errs := collect(subgraphs, subgraph.ExpandLinks)
	span.SetAttributes(attribute.Int("composition.error_count", len(errs)))
	return expanded, errs
}

// UpgradeSubgraphs rewrites legacy federation syntax to current form. The
// upgrader sees the whole batch at once so it can settle version decisions
// across subgraphs.
func UpgradeSubgraphs(ctx context.Context, subgraphs []subgraph.Subgraph[subgraph.Expanded]) ([]subgraph.Subgraph[subgraph.Upgraded], Errors) {
	_, span := tracer.Start(ctx, "compose.upgrade")
	defer span.End()

	upgraded, stageErrs := subgraph.Upgrade(subgraphs)
	var errs Errors
	for _, err := range stageErrs {
		errs = append(errs, errSubgraphStage(err))
	}
	span.SetAttributes(attribute.Int("composition.error_count", len(errs)))
	if len(errs) > 0 {
		return nil, errs
	}
	return upgraded, nil
}

// ValidateSubgraphs runs federation checks on every subgraph independently,
// accumulating failures across the whole collection.
func ValidateSubgraphs(ctx context.Context, subgraphs []subgraph.Subgraph[subgraph.Upgraded]) ([]subgraph.Subgraph[subgraph.Validated], Errors) {
	_, span := tracer.Start(ctx, "compose.validate")
	defer span.End()

	validated, errs := collect(subgraphs, subgraph.Validate)
	span.SetAttributes(attribute.Int("composition.error_count", len(errs)))
	return validated, errs
}

// PreMergeValidations performs the checks that need the entire validated set
// at once: the set must be non-empty and subgraph names unique.
func PreMergeValidations(subgraphs []subgraph.Subgraph[subgraph.Validated]) Errors {
	if len(subgraphs) == 0 {
		return Errors{errEmptySubgraphs()}
	}
	var errs Errors
	seen := map[string]bool{}
	for _, s := range subgraphs {
		if seen[s.Name] {
			errs = append(errs, errDuplicateSubgraphName(s.Name))
			continue
		}
		seen[s.Name] = true
	}
	return errs
}

func mergeStage(ctx context.Context, subgraphs []subgraph.Subgraph[subgraph.Validated]) (*Supergraph[Merged], Errors) {
	_, span := tracer.Start(ctx, "compose.merge")
	defer span.End()

	result := MergeSubgraphs(subgraphs)
	span.SetAttributes(
		attribute.Int("composition.error_count", len(result.Errors)),
		attribute.Int("composition.hint_count", len(result.Hints)),
	)
	if len(result.Errors) > 0 {
		return nil, result.Errors
	}
	if result.Supergraph == nil {
		return nil, Errors{internalErrorf("Merge completed but no supergraph schema was produced")}
	}
	return result.Supergraph, nil
}

// PostMergeValidations runs structural checks that only make sense once the
// full schema exists.
func PostMergeValidations(sg *Supergraph[Merged]) Errors {
	var errs Errors
	if sg.Schema.GetQueryType() == nil {
		errs = append(errs, errMissingQueryType())
	}
	if entity, ok := sg.Schema.Types["_Entity"]; ok && len(entity.PossibleTypes) == 0 {
		errs = append(errs, errEmptyEntityUnion())
	}
	return errs
}

func satisfiabilityStage(ctx context.Context, merged *Supergraph[Merged]) (*Supergraph[Satisfiable], Errors) {
	_, span := tracer.Start(ctx, "compose.satisfiability")
	defer span.End()

	satisfiable, errs := ValidateSatisfiability(merged)
	span.SetAttributes(attribute.Int("composition.error_count", len(errs)))
	if len(errs) > 0 {
		return nil, errs
	}
	return satisfiable, nil
}
