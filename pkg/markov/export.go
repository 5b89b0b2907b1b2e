package markov

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ExportedModel is the serializable representation of a stored model, used
// for JSON-based import and export.
type ExportedModel struct {
	Name    string   `json:"name"`
	Order   int      `json:"order"`
	Records []Record `json:"records"`
}

// ExportModel serializes a stored model into JSON and writes it to w. This
// is useful for backups or for moving models between databases.
func (s *Store) ExportModel(ctx context.Context, modelInfo ModelInfo, w io.Writer) error {
	records, err := s.loadRecords(ctx, modelInfo)
	if err != nil {
		return fmt.Errorf("could not load records for export: %w", err)
	}
	if records == nil {
		records = []Record{}
	}

	exported := ExportedModel{
		Name:    modelInfo.Name,
		Order:   modelInfo.Order,
		Records: records,
	}

	s.logger.InfoContext(ctx, "Model exported",
		slog.String("model_name", modelInfo.Name),
		slog.Int("model_id", modelInfo.Id),
		slog.Int("records_exported", len(records)),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// ImportModel reads a JSON model from r, validates it, and stores it. A
// model with the same name is replaced. The entire write is transactional.
func (s *Store) ImportModel(ctx context.Context, r io.Reader) (ModelInfo, error) {
	var imported ExportedModel
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return ModelInfo{}, fmt.Errorf("failed to decode json model: %w", err)
	}
	if imported.Name == "" {
		return ModelInfo{}, errors.New("imported model has no name")
	}

	// Validate before touching the database so a bad file never replaces a good model.
	if _, err := FromRecords(imported.Order, imported.Records); err != nil {
		return ModelInfo{}, fmt.Errorf("imported model '%s' is invalid: %w", imported.Name, err)
	}

	info, err := s.saveRecords(ctx, imported.Name, imported.Order, imported.Records)
	if err != nil {
		return ModelInfo{}, err
	}

	s.logger.InfoContext(ctx, "Model imported successfully",
		slog.String("model_name", imported.Name),
		slog.Int("target_model_id", info.Id),
		slog.Int("records_imported", len(imported.Records)),
	)
	return info, nil
}
