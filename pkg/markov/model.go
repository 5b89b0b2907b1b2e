package markov

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

const (
	// StartSymbol is the reserved sentinel used to pad the beginning of
	// every training word.
	StartSymbol = '\u0002'
	// EndSymbol is the reserved sentinel appended to the end of every
	// training word.
	EndSymbol = '\u0003'
)

var (
	// ErrInvalidOrder is returned when a model is requested with an order
	// lower than 1.
	ErrInvalidOrder = errors.New("markov: order must be at least 1")
	// ErrInvalidLength is returned when a generation call is made with
	// lengthMin < 1 or lengthMax <= lengthMin.
	ErrInvalidLength = errors.New("markov: lengthMin must be at least 1 and lengthMax greater than lengthMin")
	// ErrInvalidRecord is returned when a flattened record cannot belong to
	// a model of the requested order.
	ErrInvalidRecord = errors.New("markov: invalid record")
)

// rowSumTolerance is how far a row's probabilities may drift from 1.
const rowSumTolerance = 1e-9

// Transition is a single possible next symbol for a context, together with
// the probability of it being chosen.
type Transition struct {
	Next        rune
	Probability float64
}

// Record is the flattened, persistable form of one Transition.
type Record struct {
	Context     string  `json:"context"`
	Next        string  `json:"next"`
	Probability float64 `json:"probability"`
}

// Model is a trained, read-only character chain. Rows and the transitions
// inside them keep the order in which they were first seen during training,
// and sampling walks them in that order.
type Model struct {
	order    int
	contexts []string
	chain    map[string][]Transition
}

// Order returns the maximum context length of the model.
func (m *Model) Order() int {
	return m.order
}

// Len returns the number of distinct contexts in the model.
func (m *Model) Len() int {
	return len(m.contexts)
}

// Contexts returns every context key in insertion order.
func (m *Model) Contexts() []string {
	out := make([]string, len(m.contexts))
	copy(out, m.contexts)
	return out
}

// Row returns a copy of the transitions for a context, or nil if the
// context is unknown. No backoff is applied.
func (m *Model) Row(context string) []Transition {
	row, ok := m.chain[context]
	if !ok {
		return nil
	}
	out := make([]Transition, len(row))
	copy(out, row)
	return out
}

// Records flattens the model into one record per transition. Records are
// grouped by context and keep the model's internal order, so FromRecords
// rebuilds an identical model from them.
func (m *Model) Records() []Record {
	records := make([]Record, 0, m.transitionCount())
	for _, ctx := range m.contexts {
		for _, t := range m.chain[ctx] {
			records = append(records, Record{
				Context:     ctx,
				Next:        string(t.Next),
				Probability: t.Probability,
			})
		}
	}
	return records
}

// FromRecords regroups flattened records into a model of the given order.
// The first appearance of a context fixes its row position, and transitions
// inside a row keep record order. Probabilities are not renormalized, but
// every row must sum to 1 within rowSumTolerance.
func FromRecords(order int, records []Record) (*Model, error) {
	if order < 1 {
		return nil, ErrInvalidOrder
	}

	m := &Model{
		order: order,
		chain: make(map[string][]Transition),
	}
	seen := make(map[string]map[rune]struct{})

	for i, rec := range records {
		ctxLen := utf8.RuneCountInString(rec.Context)
		if ctxLen < 1 || ctxLen > order {
			return nil, fmt.Errorf("%w: record %d has context length %d, want 1..%d", ErrInvalidRecord, i, ctxLen, order)
		}
		if utf8.RuneCountInString(rec.Next) != 1 {
			return nil, fmt.Errorf("%w: record %d has next symbol %q, want a single character", ErrInvalidRecord, i, rec.Next)
		}
		if !(rec.Probability >= 0 && rec.Probability <= 1) {
			return nil, fmt.Errorf("%w: record %d has probability %v", ErrInvalidRecord, i, rec.Probability)
		}
		next, _ := utf8.DecodeRuneInString(rec.Next)
		if next == StartSymbol {
			return nil, fmt.Errorf("%w: record %d has the start symbol as its next symbol", ErrInvalidRecord, i)
		}

		nexts, ok := seen[rec.Context]
		if !ok {
			nexts = make(map[rune]struct{})
			seen[rec.Context] = nexts
			m.contexts = append(m.contexts, rec.Context)
		}
		if _, dup := nexts[next]; dup {
			return nil, fmt.Errorf("%w: record %d duplicates %q -> %q", ErrInvalidRecord, i, rec.Context, rec.Next)
		}
		nexts[next] = struct{}{}
		m.chain[rec.Context] = append(m.chain[rec.Context], Transition{Next: next, Probability: rec.Probability})
	}

	for _, ctx := range m.contexts {
		sum := 0.0
		for _, t := range m.chain[ctx] {
			sum += t.Probability
		}
		if math.Abs(sum-1) > rowSumTolerance {
			return nil, fmt.Errorf("%w: row %q sums to %v, want 1", ErrInvalidRecord, ctx, sum)
		}
	}

	return m, nil
}

func (m *Model) transitionCount() int {
	n := 0
	for _, row := range m.chain {
		n += len(row)
	}
	return n
}
