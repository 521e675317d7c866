package profiler

import "strings"

// OpCount is one row of the per-category opcode histogram.
type OpCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Bottleneck is an opcode whose individual assigned cost exceeded the
// bottleneck threshold.
type Bottleneck struct {
	Category string `json:"category"`
	Cost     int    `json:"cost"`
}

// BlackBoxUsage records calls to one external primitive. UnitCost is
// the cost observed at first encounter within the analysis.
type BlackBoxUsage struct {
	Name     string `json:"name"`
	Calls    int    `json:"calls"`
	UnitCost int    `json:"unit_cost"`
}

// CircuitAnalysis is the result of profiling a single circuit record.
// It is constructed once per circuit and owned by the caller.
type CircuitAnalysis struct {
	Constraints          int             `json:"constraints"`
	Bottlenecks          []Bottleneck    `json:"bottlenecks"`
	TotalOpcodes         int             `json:"total_opcodes"`
	OperationCounts      []OpCount       `json:"operation_counts"`
	BlackBoxFunctions    []BlackBoxUsage `json:"black_box_functions"`
	PublicInputs         int             `json:"public_inputs"`
	PrivateInputs        int             `json:"private_inputs"`
	ReturnValues         int             `json:"return_values"`
	EstimatedProvingTime float64         `json:"estimated_proving_time"`
	Confidence           float64         `json:"confidence"`
}

// ExternalConstraints sums calls × unit cost over the external
// primitives of the analysis.
func (a *CircuitAnalysis) ExternalConstraints() int {
	total := 0
	for _, bb := range a.BlackBoxFunctions {
		total += bb.Calls * bb.UnitCost
	}
	return total
}

// ArithmeticConstraints counts opcodes in categories that represent
// arithmetic constraint work.
func (a *CircuitAnalysis) ArithmeticConstraints() int {
	total := 0
	for _, oc := range a.OperationCounts {
		if strings.Contains(oc.Category, "Assert") ||
			strings.Contains(oc.Category, "Arithmetic") ||
			strings.Contains(oc.Category, "Constraint") {
			total += oc.Count
		}
	}
	return total
}
