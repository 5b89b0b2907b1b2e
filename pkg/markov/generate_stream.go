package markov

import (
	"context"
)

// GenerateStream generates count words in a background goroutine and
// delivers them on the returned channel. A count of zero or less streams
// until ctx is cancelled. The channel is closed when all words have been
// sent or the context is done.
//
// Length arguments are validated up front so a bad configuration is reported
// before any goroutine starts. src is owned by the stream goroutine for its
// lifetime; a nil src uses the process-wide random generator.
func (m *Model) GenerateStream(ctx context.Context, lengthMin, lengthMax, count int, src Source) (<-chan string, error) {
	if lengthMin < 1 || lengthMax <= lengthMin {
		return nil, ErrInvalidLength
	}
	if src == nil {
		src = globalSource{}
	}

	out := make(chan string)

	go func() {
		defer close(out)
		for i := 0; count <= 0 || i < count; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}

			word, err := m.Generate(lengthMin, lengthMax, src)
			if err != nil {
				return
			}

			select {
			case <-ctx.Done():
				return
			case out <- word:
			}
		}
	}()

	return out, nil
}
