package markov

import (
	"context"
	"database/sql"
	"go/build"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode"

	_ "modernc.org/sqlite"
)

// sequenceSource replays a fixed list of draws, wrapping around at the end.
type sequenceSource struct {
	draws []float64
	i     int
}

func (s *sequenceSource) Float64() float64 {
	d := s.draws[s.i%len(s.draws)]
	s.i++
	return d
}

// setupTestDB creates a new file-backed SQLite database and a Store for testing.
// It uses t.Cleanup to ensure resources are released.
func setupTestDB(t *testing.T) (*sql.DB, *Store) {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbFile)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}

// setupTestStoreWithModel is a convenience helper that also trains and saves a default model.
func setupTestStoreWithModel(t *testing.T) (context.Context, *Store, ModelInfo, *Model) {
	t.Helper()
	_, s := setupTestDB(t)
	ctx := context.Background()

	m, err := NewModelFromSlice(3, testNames)
	if err != nil {
		t.Fatalf("setup: NewModel() failed: %v", err)
	}
	info, err := s.SaveModel(ctx, "test_model", m)
	if err != nil {
		t.Fatalf("setup: SaveModel() failed: %v", err)
	}
	return ctx, s, info, m
}

var testNames = []string{
	"Aldric", "Brannoc", "Cedric", "Doran", "Elowen", "Fenric", "Gareth",
	"Halvard", "Isolde", "Jorund", "Kestrel", "Lorcan", "Maelis", "Niamh",
	"Osric", "Perrin", "Quillon", "Rowena", "Sigrun", "Tamsin", "Ulric",
	"Vesna", "Wendeline", "Yseult", "Zoran",
}

// assertRowsNormalized checks that every row of m sums to one.
func assertRowsNormalized(t *testing.T, m *Model) {
	t.Helper()
	for _, ctx := range m.Contexts() {
		sum := 0.0
		for _, tr := range m.Row(ctx) {
			sum += tr.Probability
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("row %q sums to %v, want 1", ctx, sum)
		}
	}
}

var (
	benchmarkWords []string
	wordsOnce      sync.Once
)

// createBenchmarkWords collects identifiers from Go source files to use as a word list for benchmarking.
func createBenchmarkWords() []string {
	wordsOnce.Do(func() {
		goRoot := build.Default.GOROOT
		filesToRead := []string{
			filepath.Join(goRoot, "src/net/http/server.go"),
			filepath.Join(goRoot, "src/go/parser/parser.go"),
		}

		seen := make(map[string]struct{})
		for _, file := range filesToRead {
			content, err := os.ReadFile(file)
			if err != nil {
				benchmarkWords = testNames
				return
			}
			fields := strings.FieldsFunc(string(content), func(r rune) bool { return !unicode.IsLetter(r) })
			for _, f := range fields {
				if len(f) < 3 {
					continue
				}
				if _, ok := seen[f]; ok {
					continue
				}
				seen[f] = struct{}{}
				benchmarkWords = append(benchmarkWords, f)
			}
		}
	})
	return benchmarkWords
}
