/*
Package markov provides a small, dependency-light toolkit for training
character-level Markov chains on word lists and using them to generate new,
plausible-sounding names and words.

A Model is trained once from a sequence of words and holds transition
probabilities for every context length from 1 up to its order. When a long
context was never seen during training, generation backs off to shorter
contexts, which keeps output flowing even for high orders and small word
lists. Models are immutable and safe for concurrent use.

Trained models can be flattened into records and persisted in a SQLite
database through Store, or exported to and imported from JSON.

Basic usage:

	words := NewWordScanner(file)
	model, err := NewModel(4, words.Words())
	if err != nil { ... }
	if err := words.Err(); err != nil { ... }
	name, err := model.GenerateSeeded(3, 12, 42)
*/
package markov
