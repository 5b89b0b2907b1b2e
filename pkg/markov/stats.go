package markov

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"
)

// DBStats holds aggregated statistics for every model in a Store.
type DBStats struct {
	Models           []ModelInfo              // A list of models in the database, sorted by name
	Stats            map[int]StoredModelStats // A mapping of model ids to their stats
	TotalTransitions int                      // The number of stored transitions across all models
}

// StoredModelStats holds the row counts of a single stored model.
type StoredModelStats struct {
	Transitions int // The number of stored context->next records
	Contexts    int // The number of distinct contexts
}

// ModelStats holds aggregated statistics for a single model.
type ModelStats struct {
	Order           int         // The maximum context length
	Contexts        int         // The number of unique contexts across all orders
	Transitions     int         // The number of unique context->next links
	StartingSymbols int         // The number of unique characters that can start a word
	Alphabet        int         // The number of unique non-sentinel characters the model can emit
	ContextsByOrder map[int]int // Context length -> number of contexts of that length
}

// Stats returns a snapshot of statistics for the model.
func (m *Model) Stats() ModelStats {
	stats := ModelStats{
		Order:           m.order,
		Contexts:        len(m.contexts),
		ContextsByOrder: make(map[int]int, m.order),
	}

	alphabet := make(map[rune]struct{})
	for _, ctx := range m.contexts {
		row := m.chain[ctx]
		stats.Transitions += len(row)
		stats.ContextsByOrder[utf8.RuneCountInString(ctx)]++
		for _, t := range row {
			if t.Next != StartSymbol && t.Next != EndSymbol {
				alphabet[t.Next] = struct{}{}
			}
		}
	}
	stats.Alphabet = len(alphabet)

	for _, t := range m.chain[strings.Repeat(string(StartSymbol), m.order)] {
		if t.Next != EndSymbol {
			stats.StartingSymbols++
		}
	}

	return stats
}

// GetStats returns a snapshot of statistics for the entire store, including
// global counts and per-model stats.
func (s *Store) GetStats(ctx context.Context) (*DBStats, error) {
	modelInfos, err := s.GetModelInfos(ctx)
	if err != nil {
		return nil, err
	}

	models := make([]ModelInfo, 0, len(modelInfos))
	modelStats := make(map[int]StoredModelStats, len(modelInfos))
	total := 0
	for _, v := range modelInfos {
		models = append(models, v)
		var transitions, contexts int
		if err = s.stmtCountTransitions.QueryRowContext(ctx, v.Id).Scan(&transitions); err != nil {
			return nil, err
		}
		if err = s.stmtCountContexts.QueryRowContext(ctx, v.Id).Scan(&contexts); err != nil {
			return nil, err
		}
		modelStats[v.Id] = StoredModelStats{
			Transitions: transitions,
			Contexts:    contexts,
		}
		total += transitions
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })

	return &DBStats{
		Models:           models,
		Stats:            modelStats,
		TotalTransitions: total,
	}, nil
}
