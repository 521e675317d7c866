package profiler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zklib/acir-profiler/costmodel"
)

// pinnedClock keeps every perturbation at factor 1.0 (nanos%40 == 20)
// so costs come out exact.
func pinnedClock() costmodel.Clock {
	return func() time.Time {
		return time.Unix(1700000000, 20)
	}
}

func newTestAnalyzer(t *testing.T) (*Analyzer, *costmodel.Database) {
	t.Helper()
	db := costmodel.Open(filepath.Join(t.TempDir(), "db", "cost_database.json"), pinnedClock())
	a := New(WithDatabase(db), WithClock(pinnedClock()))
	return a, db
}

func writeCircuit(t *testing.T, dir, name string, circuit map[string]any) string {
	t.Helper()
	data, err := json.Marshal(circuit)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func assertZeroOp(terms int) map[string]any {
	t := make([]map[string]any, terms)
	for i := range t {
		t[i] = map[string]any{"variable": "w" + string(rune('a'+i))}
	}
	return map[string]any{
		"type":       "AssertZero",
		"expression": map[string]any{"terms": t},
	}
}

func blackBoxOp(function string) map[string]any {
	return map[string]any{"type": "BlackBoxFunction", "function": function}
}

func TestEmptyCircuit(t *testing.T) {
	a, _ := newTestAnalyzer(t)
	path := writeCircuit(t, t.TempDir(), "empty.json", map[string]any{
		"opcodes":       []any{},
		"public_inputs": []any{},
		"return_values": []any{},
	})

	analysis, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, analysis.Constraints)
	assert.Equal(t, 0, analysis.TotalOpcodes)
	assert.Equal(t, 0, analysis.PublicInputs)
	assert.Equal(t, 0, analysis.PrivateInputs)
	assert.Empty(t, analysis.OperationCounts)
	assert.Empty(t, analysis.Bottlenecks)
	assert.Equal(t, 0.0, analysis.EstimatedProvingTime)
	assert.Equal(t, 0.0, analysis.Confidence)
}

func TestSingleAssertZeroWithoutTerms(t *testing.T) {
	a, _ := newTestAnalyzer(t)
	path := writeCircuit(t, t.TempDir(), "c.json", map[string]any{
		"opcodes": []any{assertZeroOp(0)},
	})

	analysis, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, analysis.Constraints)
	assert.Empty(t, analysis.Bottlenecks)
	assert.Equal(t, 0.98, analysis.Confidence)
	assert.Equal(t, []OpCount{{Category: "Constraint", Count: 1}}, analysis.OperationCounts)
}

func TestAssertZeroTermCost(t *testing.T) {
	a, _ := newTestAnalyzer(t)
	path := writeCircuit(t, t.TempDir(), "c.json", map[string]any{
		"opcodes": []any{assertZeroOp(4), assertZeroOp(5), assertZeroOp(9)},
	})

	analysis, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	// ceil(4/4) + ceil(5/4) + ceil(9/4)
	assert.Equal(t, 1+2+3, analysis.Constraints)
}

func TestSingleBlackBoxOnFreshDatabase(t *testing.T) {
	a, _ := newTestAnalyzer(t)
	path := writeCircuit(t, t.TempDir(), "c.json", map[string]any{
		"opcodes": []any{blackBoxOp("sha256")},
	})

	analysis, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	require.Len(t, analysis.BlackBoxFunctions, 1)
	bb := analysis.BlackBoxFunctions[0]
	assert.Equal(t, "sha256", bb.Name)
	assert.Equal(t, 1, bb.Calls)
	assert.Equal(t, 38_799, bb.UnitCost)
	assert.Equal(t, 0.83, analysis.Confidence)
	assert.Equal(t, []OpCount{{Category: "External", Count: 1}}, analysis.OperationCounts)
}

func TestHashOnlyCircuit(t *testing.T) {
	a, _ := newTestAnalyzer(t)
	path := writeCircuit(t, t.TempDir(), "c.json", map[string]any{
		"opcodes": []any{
			blackBoxOp("keccak256"), blackBoxOp("keccak256"), blackBoxOp("keccak256"),
			blackBoxOp("keccak256"), blackBoxOp("keccak256"),
		},
	})

	analysis, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	require.Len(t, analysis.BlackBoxFunctions, 1)
	assert.Equal(t, BlackBoxUsage{Name: "keccak256", Calls: 5, UnitCost: 55_000}, analysis.BlackBoxFunctions[0])
	assert.Equal(t, 5*55_000, analysis.Constraints)
	assert.Equal(t, []OpCount{{Category: "External", Count: 5}}, analysis.OperationCounts)
	assert.Len(t, analysis.Bottlenecks, 5)
	for _, b := range analysis.Bottlenecks {
		assert.Equal(t, "External", b.Category)
		assert.Greater(t, b.Cost, 10_000)
	}

	// public_inputs is 0, so either parallelism branch reduces nothing.
	hw := 0.85 // |sin(2e-8)|*0.3 is negligible at this clock pin
	assert.InDelta(t, float64(analysis.Constraints)/50*hw, analysis.EstimatedProvingTime, 0.01)
}

func TestMixedCircuitFeedsBackAssertZeroOnly(t *testing.T) {
	a, db := newTestAnalyzer(t)
	opcodes := make([]any, 0, 102)
	for i := 0; i < 100; i++ {
		opcodes = append(opcodes, assertZeroOp(4))
	}
	opcodes = append(opcodes, blackBoxOp("sha256"), blackBoxOp("sha256"))
	path := writeCircuit(t, t.TempDir(), "c.json", map[string]any{"opcodes": opcodes})

	analysis, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 100+2*38_799, analysis.Constraints)

	entries := db.Snapshot().Entries()
	e, ok := entries["AssertZero"]
	require.True(t, ok)
	assert.Equal(t, analysis.Constraints/100, e.Cost)
	assert.Equal(t, 1, e.Samples)
	// sha256 appears twice in the circuit, so it is not fed back.
	assert.Equal(t, 1, entries["sha256"].Samples)
}

func TestUnknownOpcodeType(t *testing.T) {
	a, _ := newTestAnalyzer(t)
	path := writeCircuit(t, t.TempDir(), "c.json", map[string]any{
		"opcodes": []any{map[string]any{"type": "Foo"}},
	})

	analysis, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, analysis.Constraints)
	assert.Equal(t, 0.9, analysis.Confidence)
	assert.Equal(t, []OpCount{{Category: "Foo", Count: 1}}, analysis.OperationCounts)
}

func TestOpcodeWithoutType(t *testing.T) {
	a, _ := newTestAnalyzer(t)
	path := writeCircuit(t, t.TempDir(), "c.json", map[string]any{
		"opcodes": []any{map[string]any{}},
	})

	analysis, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, []OpCount{{Category: "Unknown", Count: 1}}, analysis.OperationCounts)
}

func TestOperationCountsSortedDescending(t *testing.T) {
	a, _ := newTestAnalyzer(t)
	opcodes := []any{
		assertZeroOp(1), assertZeroOp(1), assertZeroOp(1),
		blackBoxOp("sha256"),
		map[string]any{"type": "MemoryOp"}, map[string]any{"type": "MemoryOp"},
	}
	path := writeCircuit(t, t.TempDir(), "c.json", map[string]any{"opcodes": opcodes})

	analysis, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	require.Len(t, analysis.OperationCounts, 3)
	for i := 1; i < len(analysis.OperationCounts); i++ {
		assert.GreaterOrEqual(t,
			analysis.OperationCounts[i-1].Count,
			analysis.OperationCounts[i].Count)
	}
	assert.Equal(t, OpCount{Category: "Constraint", Count: 3}, analysis.OperationCounts[0])
}

func TestWitnessCardinality(t *testing.T) {
	a, _ := newTestAnalyzer(t)

	// explicit witness map wins
	path := writeCircuit(t, t.TempDir(), "c.json", map[string]any{
		"opcodes":       []any{assertZeroOp(2)},
		"public_inputs": []any{1.0},
		"witnesses":     map[string]any{"a": 1, "b": 2, "c": 3, "d": 4},
	})
	analysis, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, analysis.PublicInputs)
	assert.Equal(t, 3, analysis.PrivateInputs)

	// fallback scan over expression terms
	path = writeCircuit(t, t.TempDir(), "d.json", map[string]any{
		"opcodes":       []any{assertZeroOp(3)},
		"public_inputs": []any{1.0},
	})
	analysis, err = a.AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, analysis.PrivateInputs)

	// more public inputs than witnesses clamps to zero
	path = writeCircuit(t, t.TempDir(), "e.json", map[string]any{
		"opcodes":       []any{},
		"public_inputs": []any{1.0, 2.0, 3.0},
	})
	analysis, err = a.AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, analysis.PrivateInputs)
}

func TestSequentialDependencyPredicate(t *testing.T) {
	memory := &CircuitAnalysis{
		OperationCounts: []OpCount{{Category: "MemoryInit", Count: 1}},
		BlackBoxFunctions: []BlackBoxUsage{
			{Name: "pedersen_hash", Calls: 5},
		},
	}
	assert.True(t, hasSequentialDependencies(memory))

	multiHash := &CircuitAnalysis{
		OperationCounts: []OpCount{{Category: "Constraint", Count: 10}},
		BlackBoxFunctions: []BlackBoxUsage{
			{Name: "pedersen_hash", Calls: 2},
		},
	}
	assert.False(t, hasSequentialDependencies(multiHash))

	// At most one hash call counts as sequential, hash-free included.
	singleHash := &CircuitAnalysis{
		BlackBoxFunctions: []BlackBoxUsage{{Name: "sha256", Calls: 1}},
	}
	assert.True(t, hasSequentialDependencies(singleHash))
	assert.True(t, hasSequentialDependencies(&CircuitAnalysis{}))

	// Non-hash externals do not count toward the hash total.
	ecdsaOnly := &CircuitAnalysis{
		BlackBoxFunctions: []BlackBoxUsage{{Name: "ecdsa_secp256k1", Calls: 3}},
	}
	assert.True(t, hasSequentialDependencies(ecdsaOnly))
}

func TestParallelismFactorUsesPublicInputs(t *testing.T) {
	a, _ := newTestAnalyzer(t)
	opcodes := make([]any, 0, 50)
	for i := 0; i < 50; i++ {
		opcodes = append(opcodes, assertZeroOp(4))
	}
	path := writeCircuit(t, t.TempDir(), "c.json", map[string]any{
		"opcodes":       opcodes,
		"public_inputs": []any{1.0, 2.0, 3.0, 4.0},
	})

	analysis, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	// no hashes at all: sequential branch, pf = 1 - 0.15*sqrt(4)/10
	pf := 1 - 0.15*2.0/10
	assert.InDelta(t, float64(analysis.Constraints)/50*0.85*pf, analysis.EstimatedProvingTime, 0.01)
}

func TestSingleCallPrimitiveFeedsDatabase(t *testing.T) {
	a, db := newTestAnalyzer(t)
	path := writeCircuit(t, t.TempDir(), "c.json", map[string]any{
		"opcodes": []any{blackBoxOp("foo")},
	})

	_, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	e, ok := db.Snapshot().Entries()["foo"]
	require.True(t, ok)
	assert.Equal(t, 1000, e.Cost) // unknown primitive falls back to flat 1000
	assert.Equal(t, 1, e.Samples)
}

func TestAnalyzeFileErrors(t *testing.T) {
	a, _ := newTestAnalyzer(t)

	_, err := a.AnalyzeFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{broken"), 0o644))
	_, err = a.AnalyzeFile(bad)
	assert.Error(t, err)
}

func TestConstraintsMatchPerOpcodeSum(t *testing.T) {
	a, _ := newTestAnalyzer(t)
	path := writeCircuit(t, t.TempDir(), "c.json", map[string]any{
		"opcodes": []any{
			assertZeroOp(7),            // ceil(7/4) = 2
			blackBoxOp("sha256"),       // 38_799 at this clock pin
			map[string]any{"type": "BrilligCall"}, // flat 1
		},
	})

	analysis, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2+38_799+1, analysis.Constraints)
	assert.Equal(t, 3, analysis.TotalOpcodes)
}
