// Package testutil provides shared test infrastructure for the allocation core.
// It consolidates golden dataset types and assertion helpers used across
// alloc/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one hand-derived profile with its expected eating result.
type GoldenTestCase struct {
	Name     string        `json:"name"`
	Items    []string      `json:"items"`
	Agents   []GoldenAgent `json:"agents"`
	Expected [][]float64   `json:"expected"` // rows in agent order, columns in item order
	Metrics  GoldenMetrics `json:"metrics"`
}

// GoldenAgent is one agent's ranking, best first.
type GoldenAgent struct {
	ID      string   `json:"id"`
	Ranking []string `json:"ranking"`
}

// GoldenMetrics holds the expected shape of the eating trace.
type GoldenMetrics struct {
	Rounds          int      `json:"rounds"`
	MaxSimultaneous int      `json:"max_simultaneous"`
	ExhaustionOrder []string `json:"exhaustion_order"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: alloc/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from alloc/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertFloat64Near compares two float64 values with absolute tolerance.
// Probabilities near zero need this; relative error is meaningless there.
func AssertFloat64Near(t *testing.T, name string, want, got, absTol float64) {
	t.Helper()
	if diff := math.Abs(want - got); diff > absTol {
		t.Errorf("%s: got %v, want %v (diff=%v)", name, got, want, diff)
	}
}
