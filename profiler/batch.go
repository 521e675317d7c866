package profiler

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotDirectory reports that a batch target is missing or not a
// directory.
var ErrNotDirectory = errors.New("not a directory")

// BatchResult pairs one admitted file with its analysis or per-file
// error.
type BatchResult struct {
	Name     string
	Analysis *CircuitAnalysis
	Err      error
}

// Batch recursively profiles every non-empty .json record under dir.
// Per-file failures are reported inline in the result slice; only
// directory-level failures surface as an error.
func (a *Analyzer) Batch(dir string) ([]BatchResult, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	var results []BatchResult
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() || filepath.Ext(path) != ".json" {
			return nil
		}
		fi, err := d.Info()
		if err != nil || fi.Size() == 0 {
			return nil
		}
		analysis, err := a.AnalyzeFile(path)
		results = append(results, BatchResult{
			Name:     filepath.Base(path),
			Analysis: analysis,
			Err:      err,
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return results, nil
}
