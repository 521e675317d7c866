package profiler

import "sort"

// attributionThreshold is the smallest constraint delta worth breaking
// down into per-operation diffs.
const attributionThreshold = 100

// CountDiff is a signed count change for one category or primitive.
type CountDiff struct {
	Name  string `json:"name"`
	Delta int    `json:"delta"`
}

// Comparison summarizes the difference between two analyses for the
// presentation layer. Diffs are populated only when the constraint
// delta is at least attributionThreshold, sorted by absolute magnitude
// descending.
type Comparison struct {
	ConstraintDelta int         `json:"constraint_delta"`
	OperationDiffs  []CountDiff `json:"operation_diffs"`
	ExternalDiffs   []CountDiff `json:"external_diffs"`
}

// Compare profiles both circuit records and diffs the results. Each
// analysis performs its own cost-database feedback.
func (a *Analyzer) Compare(pathA, pathB string) (*CircuitAnalysis, *CircuitAnalysis, *Comparison, error) {
	first, err := a.AnalyzeFile(pathA)
	if err != nil {
		return nil, nil, nil, err
	}
	second, err := a.AnalyzeFile(pathB)
	if err != nil {
		return nil, nil, nil, err
	}

	cmp := &Comparison{ConstraintDelta: second.Constraints - first.Constraints}
	if abs(cmp.ConstraintDelta) >= attributionThreshold {
		cmp.OperationDiffs = diffCounts(operationCountMap(first), operationCountMap(second))
		cmp.ExternalDiffs = diffCounts(blackBoxCountMap(first), blackBoxCountMap(second))
	}
	return first, second, cmp, nil
}

func operationCountMap(a *CircuitAnalysis) map[string]int {
	m := make(map[string]int, len(a.OperationCounts))
	for _, oc := range a.OperationCounts {
		m[oc.Category] = oc.Count
	}
	return m
}

func blackBoxCountMap(a *CircuitAnalysis) map[string]int {
	m := make(map[string]int, len(a.BlackBoxFunctions))
	for _, bb := range a.BlackBoxFunctions {
		m[bb.Name] = bb.Calls
	}
	return m
}

func diffCounts(before, after map[string]int) []CountDiff {
	names := make(map[string]struct{}, len(before)+len(after))
	for name := range before {
		names[name] = struct{}{}
	}
	for name := range after {
		names[name] = struct{}{}
	}

	var diffs []CountDiff
	for name := range names {
		if d := after[name] - before[name]; d != 0 {
			diffs = append(diffs, CountDiff{Name: name, Delta: d})
		}
	}
	sort.Slice(diffs, func(i, j int) bool {
		return abs(diffs[i].Delta) > abs(diffs[j].Delta)
	})
	return diffs
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
