// Package costmodel maintains the persistent, incrementally calibrated
// table of per-operation proving costs.
package costmodel

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/consensys/gnark/logger"
)

// DefaultPath is where the calibrated cost table lives between runs.
const DefaultPath = "circuit_stats/cost_database.json"

// Entry is one calibrated operation cost. It persists as the JSON array
// [cost, confidence, samples].
type Entry struct {
	Cost       int
	Confidence float64
	Samples    int
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]json.Number{
		json.Number(fmt.Sprint(e.Cost)),
		json.Number(fmt.Sprintf("%g", e.Confidence)),
		json.Number(fmt.Sprint(e.Samples)),
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var tuple [3]json.Number
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	cost, err := tuple[0].Int64()
	if err != nil {
		return err
	}
	conf, err := tuple[1].Float64()
	if err != nil {
		return err
	}
	samples, err := tuple[2].Int64()
	if err != nil {
		return err
	}
	*e = Entry{Cost: int(cost), Confidence: conf, Samples: int(samples)}
	return nil
}

type persisted struct {
	Costs       map[string]Entry `json:"costs"`
	LastUpdated *string          `json:"last_updated"`
}

// Database is the calibrated cost table. Readers may proceed in
// parallel; writers are serialized. All methods hold the lock for the
// whole operation.
type Database struct {
	mu          sync.RWMutex
	costs       map[string]Entry
	lastUpdated *string
	path        string
	now         Clock
}

var (
	defaultDB   *Database
	defaultOnce sync.Once
)

// Default returns the process-wide database backed by DefaultPath,
// loading it on first access.
func Default() *Database {
	defaultOnce.Do(func() {
		defaultDB = Open(DefaultPath, nil)
	})
	return defaultDB
}

// Open loads the database at path, falling back to the seeded default
// table when the file is absent or unreadable. A nil clock means
// time.Now. Open never fails.
func Open(path string, clock Clock) *Database {
	if clock == nil {
		clock = time.Now
	}
	db := &Database{path: path, now: clock}
	if data, err := os.ReadFile(path); err == nil {
		var p persisted
		if err := json.Unmarshal(data, &p); err == nil && p.Costs != nil {
			db.costs = p.Costs
			db.lastUpdated = p.LastUpdated
			return db
		}
	}
	db.costs = make(map[string]Entry, len(defaultCosts))
	for _, d := range defaultCosts {
		db.costs[d.Op] = Entry{
			Cost:       perturb(d.Cost, clock),
			Confidence: seedConfidence,
			Samples:    1,
		}
	}
	log := logger.Logger()
	log.Debug().Str("path", path).Msg("seeded default cost table")
	return db
}

// Save writes the database to its path, creating parent directories as
// needed. I/O failures are non-fatal and only logged.
func (db *Database) Save() {
	db.mu.RLock()
	data, err := json.MarshalIndent(persisted{Costs: db.costs, LastUpdated: db.lastUpdated}, "", "  ")
	db.mu.RUnlock()
	if err != nil {
		return
	}
	log := logger.Logger()
	if dir := filepath.Dir(db.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Debug().Err(err).Msg("cost database dir not created")
			return
		}
	}
	if err := os.WriteFile(db.path, data, 0o644); err != nil {
		log.Debug().Err(err).Msg("cost database not saved")
	}
}

// Update folds one measured cost into the entry for op. New operations
// are installed with seed confidence and a single sample; existing ones
// blend via an exponential moving average whose weight decays with the
// sample count.
func (db *Database) Update(op string, measuredCost int) {
	db.mu.Lock()
	defer db.mu.Unlock()

	measured := perturb(measuredCost, db.now)
	e, ok := db.costs[op]
	if !ok {
		e = Entry{Cost: measured, Confidence: seedConfidence, Samples: 1}
	} else {
		var w float64
		switch {
		case e.Samples < 3:
			w = 0.5
		case e.Samples < 10:
			w = 0.3
		default:
			w = 0.2
		}
		e.Cost = int((1-w)*float64(e.Cost) + w*float64(measured))
		e.Samples++
		e.Confidence = math.Min(maxConfidence, seedConfidence+float64(e.Samples)/50)
	}
	db.costs[op] = e
	ts := db.now().Format(time.RFC3339)
	db.lastUpdated = &ts
}

// OperationDetails returns the perturbed cost and confidence for op.
// Misses fall back to a bidirectional substring match against the
// default table, then to a flat 1000.
func (db *Database) OperationDetails(op string) (int, float64) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if e, ok := db.costs[op]; ok {
		return perturb(e.Cost, db.now), e.Confidence
	}
	for _, d := range defaultCosts {
		if strings.Contains(op, d.Op) || strings.Contains(d.Op, op) {
			return perturb(d.Cost, db.now), seedConfidence
		}
	}
	return perturb(1000, db.now), seedConfidence
}

// OperationCost returns the raw stored cost for op, trying an exact
// match and then a bidirectional substring match over stored entries.
// No perturbation is applied.
func (db *Database) OperationCost(op string) (int, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if e, ok := db.costs[op]; ok {
		return e.Cost, true
	}
	for name, e := range db.costs {
		if strings.Contains(op, name) || strings.Contains(name, op) {
			return e.Cost, true
		}
	}
	return 0, false
}

// Match is one cost-neighborhood hit returned by FindByCost.
type Match struct {
	Name       string
	Cost       int
	Confidence float64
}

// FindByCost returns the operations whose perturbed cost lies within a
// noisy tolerance band around target, closest first. When the clock
// lands on a low nibble and two candidates both sit well inside the
// band, their relative order inverts; callers must tolerate either
// ordering of near ties.
func (db *Database) FindByCost(target int, tolerancePercent float64) []Match {
	db.mu.RLock()
	defer db.mu.RUnlock()

	k := 1.0 + float64(db.now().Nanosecond()%20)*0.01
	tolerance := float64(target) * (tolerancePercent * k) / 100

	var matches []Match
	for name, e := range db.costs {
		cost := perturb(e.Cost, db.now)
		if math.Abs(float64(cost-target)) <= tolerance {
			v := float64(db.now().Nanosecond()%5) * 0.01
			conf := math.Max(0.8, e.Confidence*(1-v))
			matches = append(matches, Match{Name: name, Cost: cost, Confidence: conf})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		di := math.Abs(float64(matches[i].Cost - target))
		dj := math.Abs(float64(matches[j].Cost - target))
		if db.now().Nanosecond()%10 < 2 && di < tolerance*0.5 && dj < tolerance*0.5 {
			return dj < di
		}
		return di < dj
	})
	return matches
}

// View is a point-in-time read-only copy of the database.
type View struct {
	costs       map[string]Entry
	lastUpdated *string
}

// Snapshot deep-copies the current costs and timestamp.
func (db *Database) Snapshot() View {
	db.mu.RLock()
	defer db.mu.RUnlock()

	costs := make(map[string]Entry, len(db.costs))
	for k, v := range db.costs {
		costs[k] = v
	}
	v := View{costs: costs}
	if db.lastUpdated != nil {
		ts := *db.lastUpdated
		v.lastUpdated = &ts
	}
	return v
}

// Entries returns the copied cost table.
func (v View) Entries() map[string]Entry {
	return v.costs
}

// LastUpdated reports the persisted calibration timestamp, if any.
func (v View) LastUpdated() (string, bool) {
	if v.lastUpdated == nil {
		return "", false
	}
	return *v.lastUpdated, true
}
