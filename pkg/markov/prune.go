package markov

// Prune returns a new model without the transitions whose probability is
// below minProb. Surviving transitions in each row are renormalized so the
// row sums to 1 again, and rows left empty are dropped entirely, which lets
// generation back off to a shorter context instead. This is useful for
// removing rare, often noisy, transitions learned from a handful of words.
//
// The receiver is not modified. A minProb of 0 or less returns an
// equivalent copy.
func (m *Model) Prune(minProb float64) *Model {
	pruned := &Model{
		order: m.order,
		chain: make(map[string][]Transition, len(m.contexts)),
	}

	for _, ctx := range m.contexts {
		row := m.chain[ctx]
		kept := make([]Transition, 0, len(row))
		sum := 0.0
		for _, t := range row {
			if t.Probability < minProb {
				continue
			}
			kept = append(kept, t)
			sum += t.Probability
		}
		if len(kept) == 0 || sum == 0 {
			continue
		}
		if len(kept) < len(row) {
			for i := range kept {
				kept[i].Probability /= sum
			}
		}
		pruned.contexts = append(pruned.contexts, ctx)
		pruned.chain[ctx] = kept
	}

	return pruned
}
