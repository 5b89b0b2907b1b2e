package markov

import (
	"bufio"
	"io"
	"iter"
	"strings"
)

// WordScanner reads training words from a stream, one word per line.
// Its behavior can be customized with functional options.
type WordScanner struct {
	scanner   *bufio.Scanner
	skipEmpty bool
	trimSpace bool
	count     int
	err       error
}

// WordOption is a function that configures a WordScanner.
type WordOption func(*WordScanner)

// WithSkipEmpty drops lines that are empty (after optional trimming)
// instead of training on them as zero-length words.
// Default: false
func WithSkipEmpty(skip bool) WordOption {
	return func(s *WordScanner) {
		s.skipEmpty = skip
	}
}

// WithTrimSpace strips leading and trailing white space from every line.
// Default: false
func WithTrimSpace(trim bool) WordOption {
	return func(s *WordScanner) {
		s.trimSpace = trim
	}
}

// NewWordScanner creates a scanner over r with default settings, which can
// be overridden by providing one or more WordOption functions.
func NewWordScanner(r io.Reader, opts ...WordOption) *WordScanner {
	s := &WordScanner{scanner: bufio.NewScanner(r)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Words returns a single-use sequence of the words in the stream. Line
// endings, including a trailing carriage return, are not part of a word.
// Iteration stops at the first read error, which is then available from Err.
func (s *WordScanner) Words() iter.Seq[string] {
	return func(yield func(string) bool) {
		for s.scanner.Scan() {
			word := s.scanner.Text()
			if s.trimSpace {
				word = strings.TrimSpace(word)
			}
			if s.skipEmpty && word == "" {
				continue
			}
			s.count++
			if !yield(word) {
				return
			}
		}
		s.err = s.scanner.Err()
	}
}

// Err returns the first non-EOF error encountered while reading.
func (s *WordScanner) Err() error {
	return s.err
}

// Count returns the number of words yielded so far.
func (s *WordScanner) Count() int {
	return s.count
}
