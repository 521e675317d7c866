// Package report renders profiler results for the terminal: metric
// tables, comparisons, batch summaries, CSV dumps and charts. Nothing
// in here feeds back into the analysis.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/pterm/pterm"

	"github.com/Zklib/acir-profiler/costmodel"
	"github.com/Zklib/acir-profiler/profiler"
)

// Banner prints the tool header.
func Banner() {
	pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithFullWidth().
		Println("ACIR PROFILER")
	pterm.FgCyan.Println("Circuit analysis tool - experimental demo version")
}

// Analysis renders the full text report for one circuit.
func Analysis(a *profiler.CircuitAnalysis, file string) {
	CoreMetrics(a, file)
	FunctionAnalysis(a)
	StructureAnalysis(a)
	ConstraintDetails(a)
	pterm.Info.Println("This is an experimental demo version")
}

// JSON pretty-prints the analysis for machine consumption.
func JSON(a *profiler.CircuitAnalysis) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize analysis: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// CoreMetrics renders the headline numbers of one analysis.
func CoreMetrics(a *profiler.CircuitAnalysis, file string) {
	pterm.DefaultSection.Printfln("Circuit Analysis: %s", file)

	data := pterm.TableData{
		{"Metric", "Value"},
		{"Total Constraints", pterm.Yellow(fmt.Sprint(a.Constraints))},
		{"Total ACIR Opcodes", pterm.Cyan(fmt.Sprint(a.TotalOpcodes))},
		{"Public Inputs", pterm.Magenta(fmt.Sprint(a.PublicInputs))},
		{"Private Inputs", pterm.Magenta(fmt.Sprint(a.PrivateInputs))},
		{"Input/Output Count", pterm.Green(fmt.Sprintf("%d in / %d out",
			a.PublicInputs+a.PrivateInputs, a.ReturnValues))},
		{"Est. Proving Time", formatProvingTime(a.EstimatedProvingTime)},
	}
	if a.Constraints > 0 {
		efficiency := a.EstimatedProvingTime / float64(a.Constraints) * 1000
		data = append(data, []string{"Proving Efficiency",
			pterm.Cyan(fmt.Sprintf("%.3f us/constraint", efficiency))})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Render()
	pterm.Println(pterm.Gray("Proving time estimates vary by hardware configuration"))
}

func formatProvingTime(ms float64) string {
	switch {
	case ms < 1:
		return pterm.Green(fmt.Sprintf("%.2fms", ms))
	case ms < 100:
		return pterm.Yellow(fmt.Sprintf("%.2fms", ms))
	case ms < 1000:
		return pterm.Red(fmt.Sprintf("%.2fms", ms))
	default:
		return pterm.Red(fmt.Sprintf("%.2fs", ms/1000))
	}
}

// FunctionAnalysis renders the external-primitive breakdown.
func FunctionAnalysis(a *profiler.CircuitAnalysis) {
	if len(a.BlackBoxFunctions) == 0 {
		return
	}
	pterm.DefaultSection.Println("External Operations Analysis")

	data := pterm.TableData{{"Operation", "Calls", "Constraints", "% Circuit"}}
	for _, bb := range a.BlackBoxFunctions {
		total := bb.Calls * bb.UnitCost
		percent := 0.0
		if a.Constraints > 0 {
			percent = float64(total) / float64(a.Constraints) * 100
		}
		data = append(data, []string{
			pterm.Cyan(bb.Name),
			fmt.Sprint(bb.Calls),
			pterm.Yellow(fmt.Sprint(total)),
			colorPercent(percent, 20, 10),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Render()

	if total := a.ExternalConstraints(); total > 0 && a.Constraints > 0 {
		pterm.Info.Printfln("External operations account for %.1f%% of total constraints",
			float64(total)/float64(a.Constraints)*100)
	}
}

// StructureAnalysis renders the opcode histogram, largest categories
// first, capped at eight rows.
func StructureAnalysis(a *profiler.CircuitAnalysis) {
	if len(a.OperationCounts) == 0 {
		return
	}
	pterm.DefaultSection.Println("Circuit Structure Analysis")

	data := pterm.TableData{{"Operation Type", "Count", "% of Opcodes"}}
	rows := a.OperationCounts
	if len(rows) > 8 {
		rows = rows[:8]
	}
	hasMemoryOps := false
	for _, oc := range a.OperationCounts {
		if containsMemory(oc.Category) {
			hasMemoryOps = true
		}
	}
	for _, oc := range rows {
		percent := 0.0
		if a.TotalOpcodes > 0 {
			percent = float64(oc.Count) / float64(a.TotalOpcodes) * 100
		}
		data = append(data, []string{pterm.Cyan(oc.Category), fmt.Sprint(oc.Count), colorPercent(percent, 50, 20)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Render()

	if hasMemoryOps {
		pterm.Info.Println("Circuit uses memory operations, suggesting array or structured data usage")
	} else {
		pterm.Info.Println("No memory operations detected, suggesting primarily scalar field operations")
	}
}

// ConstraintDetails renders the constraint distribution by category.
func ConstraintDetails(a *profiler.CircuitAnalysis) {
	pterm.DefaultSection.Println("Constraint Distribution")
	if a.Constraints == 0 {
		pterm.Println("No constraints detected in circuit.")
		return
	}

	external := a.ExternalConstraints()
	arithmetic := a.ArithmeticConstraints()
	other := a.Constraints - external - arithmetic

	type row struct {
		name  string
		count int
	}
	var rows []row
	if external > 0 {
		rows = append(rows, row{"External Operations", external})
	}
	if arithmetic > 0 {
		rows = append(rows, row{"Arithmetic Operations", arithmetic})
	}
	if other > 0 {
		rows = append(rows, row{"Other Operations", other})
	}
	for i := 0; i < len(rows); i++ {
		for j := i + 1; j < len(rows); j++ {
			if rows[j].count > rows[i].count {
				rows[i], rows[j] = rows[j], rows[i]
			}
		}
	}

	data := pterm.TableData{{"Category", "Constraints", "% of Total"}}
	for _, r := range rows {
		percent := float64(r.count) / float64(a.Constraints) * 100
		data = append(data, []string{pterm.Cyan(r.name), pterm.Yellow(fmt.Sprint(r.count)), colorPercent(percent, 50, 20)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Render()
}

// Comparison renders the two analyses side by side, the constraint
// delta, and cost-model attribution for deltas large enough to match a
// known operation.
func Comparison(first, second *profiler.CircuitAnalysis, cmp *profiler.Comparison,
	db *costmodel.Database, fileA, fileB string) {
	pterm.DefaultSection.Println("Comparison Results")
	CoreMetrics(first, fileA)
	CoreMetrics(second, fileB)

	pterm.Printfln("Circuit Size Difference: %s constraints", formatSigned(cmp.ConstraintDelta))
	pterm.Printfln("Proving Time Impact: %s ms",
		formatSignedFloat(second.EstimatedProvingTime-first.EstimatedProvingTime))

	pterm.DefaultSection.Println("Proving Efficiency")
	pterm.Printfln("  Circuit 1: %.3f us per constraint", efficiency(first))
	pterm.Printfln("  Circuit 2: %.3f us per constraint", efficiency(second))

	if abs := cmp.ConstraintDelta; abs != 0 {
		if abs < 0 {
			abs = -abs
		}
		if abs > 100 {
			matches := db.FindByCost(abs, 5.0)
			if len(matches) > 0 {
				pterm.DefaultSection.Println("Potential Operations Detected")
				for i, m := range matches {
					if i == 3 {
						break
					}
					quality := "resembles"
					diffPercent := math.Abs(float64(m.Cost)-float64(abs)) / float64(m.Cost) * 100
					if diffPercent < 1 {
						quality = "strong similarity to"
					} else if diffPercent < 3 {
						quality = "possible"
					}
					pterm.Printfln("  Circuit difference %s %s (%s constraints, %.1f%% confidence)",
						quality, pterm.Cyan(m.Name), pterm.Yellow(fmt.Sprint(m.Cost)), m.Confidence*100)
				}
				pterm.Println("  Note: Actual operation costs may vary based on circuit architecture and proving system")
			}
		}
	}

	if len(first.BlackBoxFunctions) > 0 || len(second.BlackBoxFunctions) > 0 {
		functionComparison(first, second)
	}
}

func efficiency(a *profiler.CircuitAnalysis) float64 {
	if a.Constraints == 0 {
		return 0
	}
	return a.EstimatedProvingTime / float64(a.Constraints) * 1000
}

func functionComparison(first, second *profiler.CircuitAnalysis) {
	pterm.DefaultSection.Println("External Operations Comparison")

	var names []string
	seen := make(map[string]struct{})
	for _, bb := range first.BlackBoxFunctions {
		if _, ok := seen[bb.Name]; !ok {
			seen[bb.Name] = struct{}{}
			names = append(names, bb.Name)
		}
	}
	for _, bb := range second.BlackBoxFunctions {
		if _, ok := seen[bb.Name]; !ok {
			seen[bb.Name] = struct{}{}
			names = append(names, bb.Name)
		}
	}

	data := pterm.TableData{{"Operation", "Circuit 1", "Circuit 2", "Diff"}}
	for _, name := range names {
		c1 := blackBoxCalls(first, name)
		c2 := blackBoxCalls(second, name)
		data = append(data, []string{pterm.Cyan(name), fmt.Sprint(c1), fmt.Sprint(c2), formatSigned(c2 - c1)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Render()
}

func blackBoxCalls(a *profiler.CircuitAnalysis, name string) int {
	for _, bb := range a.BlackBoxFunctions {
		if bb.Name == name {
			return bb.Calls
		}
	}
	return 0
}

// BatchTable renders per-file batch results, with inline error rows.
func BatchTable(results []profiler.BatchResult) {
	pterm.DefaultSection.Println("Batch Analysis Results")

	data := pterm.TableData{{"Circuit", "Constraints", "Opcodes", "Constraint/Opcode"}}
	for _, r := range results {
		if r.Err != nil {
			data = append(data, []string{r.Name, pterm.Red("ERROR"), "-", pterm.Red(r.Err.Error())})
			continue
		}
		perOp := 0.0
		if r.Analysis.TotalOpcodes > 0 {
			perOp = float64(r.Analysis.Constraints) / float64(r.Analysis.TotalOpcodes)
		}
		data = append(data, []string{
			pterm.Cyan(r.Name),
			pterm.Yellow(fmt.Sprint(r.Analysis.Constraints)),
			fmt.Sprint(r.Analysis.TotalOpcodes),
			pterm.Green(fmt.Sprintf("%.1fx", perOp)),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Render()
}

// CostDatabase dumps the calibrated cost table, showing a freshly
// perturbed "recent sample" next to each stored cost.
func CostDatabase(db *costmodel.Database) {
	view := db.Snapshot()

	pterm.DefaultSection.Println("Cost Model Database")
	data := pterm.TableData{{"Operation", "Avg. Cost", "Recent Sample", "Confidence", "Samples"}}
	for name, e := range view.Entries() {
		recent := db.PerturbCost(e.Cost)
		drift := ""
		if e.Cost > 0 {
			drift = fmt.Sprintf(" (%+.1f%%)", float64(recent-e.Cost)/float64(e.Cost)*100)
		}
		conf := fmt.Sprintf("%.1f%%", e.Confidence*100)
		switch {
		case e.Confidence > 0.9:
			conf = pterm.Green(conf)
		case e.Confidence > 0.85:
			conf = pterm.Yellow(conf)
		default:
			conf = pterm.Red(conf)
		}
		data = append(data, []string{
			pterm.Cyan(name),
			pterm.Yellow(fmt.Sprint(e.Cost)),
			fmt.Sprintf("%d%s", recent, drift),
			conf,
			fmt.Sprint(e.Samples),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Render()

	pterm.Info.Println("Cost models calibrated using real circuit measurements")
	if ts, ok := view.LastUpdated(); ok {
		pterm.Printfln("Last calibration: %s", ts)
	}
	pterm.Println("Note: Costs may vary by +-5% between proving runs due to system factors")
}

func formatSigned(n int) string {
	switch {
	case n < 0:
		return pterm.Red(fmt.Sprint(n))
	case n > 0:
		return pterm.Green(fmt.Sprintf("+%d", n))
	default:
		return "0"
	}
}

func formatSignedFloat(f float64) string {
	switch {
	case f < 0:
		return pterm.Red(fmt.Sprintf("%.2f", f))
	case f > 0:
		return pterm.Green(fmt.Sprintf("+%.2f", f))
	default:
		return "0.00"
	}
}

func containsMemory(category string) bool {
	return strings.Contains(category, "Memory")
}

// colorPercent renders a percentage red above hi, yellow above mid,
// green otherwise.
func colorPercent(p, hi, mid float64) string {
	s := fmt.Sprintf("%.1f%%", p)
	switch {
	case p > hi:
		return pterm.Red(s)
	case p > mid:
		return pterm.Yellow(s)
	default:
		return pterm.Green(s)
	}
}
