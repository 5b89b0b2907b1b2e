package markov

import (
	"iter"
	"strings"
)

// countRow holds raw transition counts for one context. next and counts are
// parallel slices in first-seen order; index maps a symbol to its slot.
type countRow struct {
	index  map[rune]int
	next   []rune
	counts []int
}

// chainCounts is the raw table produced by a training pass.
type chainCounts struct {
	keys []string
	rows map[string]*countRow
}

func newChainCounts() *chainCounts {
	return &chainCounts{rows: make(map[string]*countRow)}
}

func (c *chainCounts) add(key string, next rune) {
	row, ok := c.rows[key]
	if !ok {
		row = &countRow{index: make(map[rune]int)}
		c.rows[key] = row
		c.keys = append(c.keys, key)
	}
	if i, ok := row.index[next]; ok {
		row.counts[i]++
		return
	}
	row.index[next] = len(row.next)
	row.next = append(row.next, next)
	row.counts = append(row.counts, 1)
}

// NewModel trains a model of the given order on words. Every word is
// lowercased and counted at every context length from 1 to order, so the
// resulting table can back off from long contexts to short ones.
// An empty sequence produces an empty model.
func NewModel(order int, words iter.Seq[string]) (*Model, error) {
	if order < 1 {
		return nil, ErrInvalidOrder
	}
	counts := buildCounts(order, words)
	return normalize(order, counts), nil
}

// NewModelFromSlice is a convenience wrapper around NewModel for an
// in-memory word list.
func NewModelFromSlice(order int, words []string) (*Model, error) {
	return NewModel(order, func(yield func(string) bool) {
		for _, w := range words {
			if !yield(w) {
				return
			}
		}
	})
}

func buildCounts(order int, words iter.Seq[string]) *chainCounts {
	counts := newChainCounts()
	if words == nil {
		return counts
	}

	padded := make([]rune, 0, 64)
	for word := range words {
		lower := []rune(strings.ToLower(word))

		for k := 1; k <= order; k++ {
			padded = padded[:0]
			for i := 0; i < k; i++ {
				padded = append(padded, StartSymbol)
			}
			padded = append(padded, lower...)
			padded = append(padded, EndSymbol)

			for i := 0; i < len(padded)-k; i++ {
				counts.add(string(padded[i:i+k]), padded[i+k])
			}
		}
	}
	return counts
}

func normalize(order int, counts *chainCounts) *Model {
	m := &Model{
		order:    order,
		contexts: counts.keys,
		chain:    make(map[string][]Transition, len(counts.keys)),
	}
	for _, key := range counts.keys {
		row := counts.rows[key]
		sum := 0
		for _, c := range row.counts {
			sum += c
		}
		transitions := make([]Transition, len(row.next))
		for i, next := range row.next {
			transitions[i] = Transition{
				Next:        next,
				Probability: float64(row.counts[i]) / float64(sum),
			}
		}
		m.chain[key] = transitions
	}
	return m
}
