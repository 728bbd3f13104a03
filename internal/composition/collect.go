package composition

// collect applies op to every item independently, partitioning results from
// failures. Either every item succeeded and the full output is returned, or
// the complete failure set is returned and the successes are discarded. This
// is the accumulation protocol every per-subgraph stage uses: a composition
// author sees all problems from a stage in one pass.
func collect[In, Out any](items []In, op func(In) (Out, error)) ([]Out, Errors) {
	var errs Errors
	out := make([]Out, 0, len(items))
	for _, item := range items {
		result, err := op(item)
		if err != nil {
			errs = append(errs, errSubgraphStage(err))
			continue
		}
		out = append(out, result)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}
