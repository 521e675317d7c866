package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zklib/acir-profiler/profiler"
)

func sampleAnalysis() *profiler.CircuitAnalysis {
	return &profiler.CircuitAnalysis{
		Constraints:  38_900,
		TotalOpcodes: 101,
		OperationCounts: []profiler.OpCount{
			{Category: "Constraint", Count: 100},
			{Category: "External", Count: 1},
		},
		BlackBoxFunctions: []profiler.BlackBoxUsage{
			{Name: "sha256", Calls: 1, UnitCost: 38_800},
		},
		PublicInputs: 2,
		ReturnValues: 1,
	}
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestWriteCircuitStats(t *testing.T) {
	chdirTemp(t)

	require.NoError(t, WriteCircuitStats("main.json", sampleAnalysis()))
	data, err := os.ReadFile(filepath.Join("circuit_stats", "main.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Constraints,38900")
	assert.Contains(t, string(data), "sha256,1,38800")
	assert.Contains(t, string(data), "External Operations,38800")
}

func TestStatsCSV(t *testing.T) {
	chdirTemp(t)

	var buf bytes.Buffer
	results := []profiler.BatchResult{
		{Name: "main.json", Analysis: sampleAnalysis()},
		{Name: "broken.json", Err: os.ErrNotExist},
	}
	StatsCSV(&buf, "circuits", results)

	out := buf.String()
	assert.Contains(t, out, "Circuit,Constraints,Opcodes")
	assert.Contains(t, out, "main.json,38900,101,1,2,0,1,385.15")
	assert.NotContains(t, out, "broken.json,")
}

func TestChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.html")
	results := []profiler.BatchResult{{Name: "main.json", Analysis: sampleAnalysis()}}
	require.NoError(t, Chart(results, path))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, fi.Size(), int64(0))

	assert.Error(t, Chart(nil, filepath.Join(t.TempDir(), "empty.html")))
}
