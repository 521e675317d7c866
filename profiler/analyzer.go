// Package profiler estimates the proving cost of compiled circuit
// records, attributing constraints to arithmetic work and pre-built
// external primitives, and feeds observed costs back into the
// calibrated cost database.
package profiler

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/consensys/gnark/logger"

	"github.com/Zklib/acir-profiler/acir"
	"github.com/Zklib/acir-profiler/costmodel"
)

// Coarse categories assigned during the opcode scan. Opcodes of any
// other type keep their raw type string as category.
const (
	CategoryExternal   = "External"
	CategoryConstraint = "Constraint"
)

// bottleneckThreshold is the per-opcode cost above which an opcode is
// reported as a bottleneck.
const bottleneckThreshold = 10_000

// Analyzer profiles circuit records against a cost database.
type Analyzer struct {
	db         *costmodel.Database
	now        costmodel.Clock
	timeFactor float64
}

// New returns an Analyzer bound to the process-wide cost database
// unless WithDatabase overrides it.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{now: time.Now, timeFactor: ProvingTimeFactor}
	for _, o := range opts {
		o(a)
	}
	if a.db == nil {
		a.db = costmodel.Default()
	}
	return a
}

// Database returns the cost database the analyzer calibrates.
func (a *Analyzer) Database() *costmodel.Database {
	return a.db
}

// AnalyzeFile profiles the circuit record at path. The returned
// analysis is owned by the caller; as a side effect, single-call
// external primitives and large constraint batches are folded into the
// cost database, which is then saved.
func (a *Analyzer) AnalyzeFile(path string) (*CircuitAnalysis, error) {
	c, err := acir.Load(path)
	if err != nil {
		return nil, err
	}
	analysis, buckets := a.scan(c)
	a.updateDatabaseFromCircuit(buckets, analysis)

	log := logger.Logger()
	log.Info().
		Str("file", path).
		Int("constraints", analysis.Constraints).
		Int("opcodes", analysis.TotalOpcodes).
		Float64("estimatedMs", analysis.EstimatedProvingTime).
		Msg("analyzed circuit")
	return analysis, nil
}

// scan runs the single-pass opcode walk and returns the analysis plus
// the per-operation index buckets used for calibration feedback.
func (a *Analyzer) scan(c *acir.Circuit) (*CircuitAnalysis, map[string][]int) {
	witnesses := c.WitnessCount()
	analysis := &CircuitAnalysis{
		TotalOpcodes: len(c.Opcodes),
		PublicInputs: len(c.PublicInputs),
		ReturnValues: len(c.ReturnValues),
	}
	if witnesses >= analysis.PublicInputs {
		analysis.PrivateInputs = witnesses - analysis.PublicInputs
	}

	counts := make(map[string]int)
	buckets := make(map[string][]int)

	for i := range c.Opcodes {
		op := &c.Opcodes[i]
		kind := op.Kind()

		var category string
		var cost int
		var confidence float64

		switch kind {
		case acir.OpBlackBoxFunction:
			category = CategoryExternal
			name := op.FunctionName()
			cost, confidence = a.db.OperationDetails(name)
			buckets[name] = append(buckets[name], i)

			found := false
			for j := range analysis.BlackBoxFunctions {
				if analysis.BlackBoxFunctions[j].Name == name {
					analysis.BlackBoxFunctions[j].Calls++
					found = true
					break
				}
			}
			if !found {
				analysis.BlackBoxFunctions = append(analysis.BlackBoxFunctions,
					BlackBoxUsage{Name: name, Calls: 1, UnitCost: cost})
			}
		case acir.OpAssertZero:
			category = CategoryConstraint
			terms := 0
			if op.Expression != nil {
				terms = len(op.Expression.Terms)
			}
			if terms > 0 {
				cost = (terms + 3) / 4
			} else {
				cost = 1
			}
			confidence = 0.98
			buckets[acir.OpAssertZero] = append(buckets[acir.OpAssertZero], i)
		default:
			category = kind
			cost = 1
			confidence = 0.9
			buckets[kind] = append(buckets[kind], i)
		}

		counts[category]++
		analysis.Constraints += cost
		if cost > bottleneckThreshold {
			analysis.Bottlenecks = append(analysis.Bottlenecks, Bottleneck{Category: category, Cost: cost})
		}
		if analysis.Confidence == 0 {
			analysis.Confidence = confidence
		} else {
			analysis.Confidence = (analysis.Confidence + confidence) / 2
		}
	}

	for category, n := range counts {
		analysis.OperationCounts = append(analysis.OperationCounts, OpCount{Category: category, Count: n})
	}
	sort.Slice(analysis.OperationCounts, func(i, j int) bool {
		return analysis.OperationCounts[i].Count > analysis.OperationCounts[j].Count
	})

	analysis.EstimatedProvingTime = a.estimateProvingTime(analysis)
	return analysis, buckets
}

func (a *Analyzer) estimateProvingTime(analysis *CircuitAnalysis) float64 {
	seed := float64(a.now().Nanosecond()) / 1e9
	hardware := 0.85 + math.Abs(math.Sin(seed))*0.3

	t := float64(analysis.Constraints) * a.timeFactor / 50 * hardware
	if analysis.Constraints > 0 {
		p := math.Sqrt(float64(analysis.PublicInputs))
		var parallel float64
		if hasSequentialDependencies(analysis) {
			parallel = 1 - math.Min(0.5, 0.15*p/10)
		} else {
			parallel = 1 - math.Min(0.7, 0.3*p/10)
		}
		t *= parallel
	}
	return t
}

// hasSequentialDependencies reports whether the circuit resists
// parallel witness generation: memory or array opcodes force ordering,
// and so does a hash call count of at most one.
func hasSequentialDependencies(analysis *CircuitAnalysis) bool {
	for _, oc := range analysis.OperationCounts {
		if strings.Contains(oc.Category, "Memory") || strings.Contains(oc.Category, "Array") {
			return true
		}
	}
	hashCalls := 0
	for _, bb := range analysis.BlackBoxFunctions {
		if strings.Contains(bb.Name, "hash") || strings.Contains(bb.Name, "Hash") {
			hashCalls += bb.Calls
		}
	}
	return hashCalls <= 1
}

// updateDatabaseFromCircuit feeds measurements back into the cost
// database: external primitives seen exactly once contribute their unit
// cost, and batches of at least 10 AssertZero opcodes contribute the
// circuit-wide average cost per instance.
func (a *Analyzer) updateDatabaseFromCircuit(buckets map[string][]int, analysis *CircuitAnalysis) {
	for name, instances := range buckets {
		if len(instances) == 0 || name == acir.OpBlackBoxFunction {
			continue
		}
		for _, bb := range analysis.BlackBoxFunctions {
			if bb.Name == name && bb.Calls == 1 {
				a.db.Update(name, bb.UnitCost)
				break
			}
		}
		if name == acir.OpAssertZero && len(instances) >= 10 {
			a.db.Update(name, analysis.Constraints/len(instances))
		}
	}
	a.db.Save()
}
