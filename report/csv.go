package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zklib/acir-profiler/profiler"
)

// statsDir receives the per-circuit detail files written during stats
// collection; it is the same directory that holds the cost database.
const statsDir = "circuit_stats"

// StatsCSV writes the research statistics block for a batch run: a
// commented header followed by one CSV row per successfully analyzed
// circuit. Failed circuits are skipped.
func StatsCSV(w io.Writer, dir string, results []profiler.BatchResult) {
	fmt.Fprintln(w, "# ACIR PROFILER STATISTICS DATA - EXCEL/CSV FORMAT")
	fmt.Fprintf(w, "# Generated on %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "# Directory: %s\n", dir)
	fmt.Fprintln(w, "# NOTE: This is an experimental demo version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Circuit,Constraints,Opcodes,ExternalOps,PublicInputs,PrivateInputs,OutputCount,AvgCostPerOp")

	for _, r := range results {
		if r.Err != nil {
			continue
		}
		a := r.Analysis
		avg := 0.0
		if a.TotalOpcodes > 0 {
			avg = float64(a.Constraints) / float64(a.TotalOpcodes)
		}
		fmt.Fprintf(w, "%s,%d,%d,%d,%d,%d,%d,%.2f\n",
			r.Name, a.Constraints, a.TotalOpcodes, len(a.BlackBoxFunctions),
			a.PublicInputs, a.PrivateInputs, a.ReturnValues, avg)
		if err := WriteCircuitStats(r.Name, a); err != nil {
			fmt.Fprintf(w, "# warn: detail file for %s not written: %v\n", r.Name, err)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "# Statistics collection complete")
	fmt.Fprintln(w, "# Copy the data above for Excel/CSV analysis")
}

// WriteCircuitStats dumps one circuit's detailed metrics as a CSV file
// under the stats directory.
func WriteCircuitStats(name string, a *profiler.CircuitAnalysis) error {
	if err := os.MkdirAll(statsDir, 0o755); err != nil {
		return err
	}
	base := strings.TrimSuffix(name, ".json")
	f, err := os.Create(filepath.Join(statsDir, base+".csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "# ACIR PROFILER CIRCUIT ANALYSIS: %s\n", name)
	fmt.Fprintf(f, "# Generated on %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(f, "# NOTE: This is an experimental demo version")
	fmt.Fprintln(f)

	fmt.Fprintln(f, "METRIC,VALUE")
	fmt.Fprintf(f, "Constraints,%d\n", a.Constraints)
	fmt.Fprintf(f, "Opcodes,%d\n", a.TotalOpcodes)
	fmt.Fprintf(f, "Public Inputs,%d\n", a.PublicInputs)
	fmt.Fprintf(f, "Private Inputs,%d\n", a.PrivateInputs)
	fmt.Fprintf(f, "Return Values,%d\n", a.ReturnValues)

	fmt.Fprintln(f)
	fmt.Fprintln(f, "OPERATION,COUNT")
	for _, oc := range a.OperationCounts {
		fmt.Fprintf(f, "%s,%d\n", oc.Category, oc.Count)
	}

	if len(a.BlackBoxFunctions) > 0 {
		fmt.Fprintln(f)
		fmt.Fprintln(f, "EXTERNAL_OPERATION,CALLS,CONSTRAINTS_EACH")
		for _, bb := range a.BlackBoxFunctions {
			fmt.Fprintf(f, "%s,%d,%d\n", bb.Name, bb.Calls, bb.UnitCost)
		}
	}

	external := a.ExternalConstraints()
	arithmetic := a.ArithmeticConstraints()
	other := a.Constraints - external - arithmetic

	fmt.Fprintln(f)
	fmt.Fprintln(f, "CATEGORY,CONSTRAINTS,PERCENTAGE")
	writeCategory := func(name string, count int) {
		if count > 0 && a.Constraints > 0 {
			fmt.Fprintf(f, "%s,%d,%.1f%%\n", name, count,
				float64(count)/float64(a.Constraints)*100)
		}
	}
	writeCategory("External Operations", external)
	writeCategory("Arithmetic Operations", arithmetic)
	writeCategory("Other Operations", other)
	return nil
}
