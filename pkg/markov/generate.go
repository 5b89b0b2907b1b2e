package markov

import (
	"math/rand/v2"
	"slices"
)

// maxPrematureEnds bounds how many times in a row generation may discard an
// end symbol that arrived before lengthMin without producing a new character.
const maxPrematureEnds = 1000

// Source supplies uniform random draws in [0, 1). *rand.Rand from
// math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
}

// globalSource draws from the process-wide math/rand/v2 generator.
type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Generate produces a new word of at most lengthMax characters.
//
// Generation starts from a window of order start symbols and repeatedly
// samples the next character. It stops naturally when an end symbol is
// drawn and at least lengthMin characters exist, and is cut to exactly
// lengthMax characters when that length is reached first. An end symbol that
// arrives before lengthMin is discarded and generation continues from the
// text before it. If the chain can only ever end at that point, the shorter
// word is returned as-is; an empty model therefore always yields "".
// Discarding is not unbounded either: after maxPrematureEnds consecutive
// discards with no new character, the shorter word is returned.
//
// A nil src uses the process-wide random generator. Every call owns its own
// buffers, so a Model may be shared between goroutines; src itself must not
// be used concurrently.
func (m *Model) Generate(lengthMin, lengthMax int, src Source) (string, error) {
	if lengthMin < 1 || lengthMax <= lengthMin {
		return "", ErrInvalidLength
	}
	if src == nil {
		src = globalSource{}
	}

	buf := make([]rune, 0, m.order+lengthMax+1)
	for i := 0; i < m.order; i++ {
		buf = append(buf, StartSymbol)
	}
	window := buf
	trimmed := make([]rune, 0, lengthMax+1)
	prematureEnds := 0

	for {
		next, deadEnd := m.pick(window, src.Float64())
		buf = append(buf, next)

		trimmed = trimmed[:0]
		for _, r := range buf {
			if r != StartSymbol && r != EndSymbol {
				trimmed = append(trimmed, r)
			}
		}

		if len(trimmed) >= lengthMax {
			return string(trimmed[:lengthMax]), nil
		}

		if end := slices.Index(buf, EndSymbol); end >= 0 {
			if len(trimmed) >= lengthMin {
				return string(trimmed), nil
			}
			prematureEnds++
			if deadEnd || prematureEnds > maxPrematureEnds {
				return string(trimmed), nil
			}
			buf = buf[:end]
		} else {
			prematureEnds = 0
		}

		start := len(buf) - m.order
		if start < 0 {
			start = 0
		}
		window = buf[start:]
	}
}

// GenerateSeeded is Generate with a PCG source seeded from seed. The same
// model, lengths and seed always produce the same word.
func (m *Model) GenerateSeeded(lengthMin, lengthMax int, seed uint64) (string, error) {
	return m.Generate(lengthMin, lengthMax, rand.New(rand.NewPCG(seed, seed)))
}

// GenerateRandom is Generate using the process-wide random generator.
func (m *Model) GenerateRandom(lengthMin, lengthMax int) (string, error) {
	return m.Generate(lengthMin, lengthMax, globalSource{})
}

// pick selects the next symbol for context using the draw r. Unknown
// contexts lose their leading character until a known one is found; if
// none is, the end symbol is returned. The row is walked in its stored
// order and the first symbol whose cumulative probability exceeds r wins,
// falling back to the last symbol when rounding keeps the sum below r.
//
// deadEnd reports that the resolved context can only ever produce the end
// symbol.
func (m *Model) pick(context []rune, r float64) (next rune, deadEnd bool) {
	row, ok := m.chain[string(context)]
	for !ok {
		if len(context) <= 1 {
			return EndSymbol, true
		}
		context = context[1:]
		row, ok = m.chain[string(context)]
	}

	if len(row) == 0 {
		return EndSymbol, true
	}
	if len(row) == 1 && row[0].Next == EndSymbol {
		return EndSymbol, true
	}

	n := 0.0
	for _, t := range row {
		n += t.Probability
		if r < n {
			return t.Next, false
		}
	}
	return row[len(row)-1].Next, false
}
