package markov

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
)

// ModelInfo holds the essential metadata for a stored model, including its
// unique ID, name, and the order of the chain.
type ModelInfo struct {
	Id    int
	Name  string
	Order int
}

// SetupSchema initializes the necessary tables in the provided database.
// This function should be called once on a new database before any other
// operations are performed. It is idempotent and safe to call on an
// already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaModels = `
CREATE TABLE IF NOT EXISTS wordchain_models (
    model_id INTEGER PRIMARY KEY,
    model_name TEXT NOT NULL UNIQUE,
    model_order INTEGER NOT NULL
);
`
		schemaTransitions = `
CREATE TABLE IF NOT EXISTS wordchain_transitions (
    model_id INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    context TEXT NOT NULL,
    next_symbol TEXT NOT NULL,
    probability REAL NOT NULL,
    PRIMARY KEY (model_id, seq)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaModels); err != nil {
		return fmt.Errorf("could not create models schema: %w", err)
	}

	if _, err = tx.Exec(schemaTransitions); err != nil {
		return fmt.Errorf("could not create transitions schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store persists trained models in a SQL database as flattened records. It
// holds the database connection and prepared statements for the common
// queries.
type Store struct {
	db                   *sql.DB
	stmtGetModelInfo     *sql.Stmt
	stmtGetModels        *sql.Stmt
	stmtUpsertModel      *sql.Stmt
	stmtGetTransitions   *sql.Stmt
	stmtCountTransitions *sql.Stmt
	stmtCountContexts    *sql.Stmt
	logger               *slog.Logger
}

// NewStore creates and returns a new Store. It pre-compiles all necessary
// SQL statements, returning an error if any preparation fails. SetupSchema
// must have been called on db beforehand.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGetModelInfo, err := db.Prepare(`SELECT model_id, model_order FROM wordchain_models WHERE model_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetModels, err := db.Prepare(`SELECT model_id, model_name, model_order FROM wordchain_models;`)
	if err != nil {
		return nil, err
	}

	stmtUpsertModel, err := db.Prepare(`INSERT INTO wordchain_models (model_name, model_order) VALUES (?, ?) ON CONFLICT(model_name) DO UPDATE SET model_order = excluded.model_order RETURNING model_id;`)
	if err != nil {
		return nil, err
	}

	stmtGetTransitions, err := db.Prepare(`SELECT context, next_symbol, probability FROM wordchain_transitions WHERE model_id = ? ORDER BY seq;`)
	if err != nil {
		return nil, err
	}

	stmtCountTransitions, err := db.Prepare(`SELECT COUNT(*) FROM wordchain_transitions WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtCountContexts, err := db.Prepare(`SELECT COUNT(DISTINCT context) FROM wordchain_transitions WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:                   db,
		stmtGetModelInfo:     stmtGetModelInfo,
		stmtGetModels:        stmtGetModels,
		stmtUpsertModel:      stmtUpsertModel,
		stmtGetTransitions:   stmtGetTransitions,
		stmtCountTransitions: stmtCountTransitions,
		stmtCountContexts:    stmtCountContexts,
		logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared SQL statements held by the Store.
func (s *Store) Close() {
	_ = s.stmtGetModelInfo.Close()
	_ = s.stmtGetModels.Close()
	_ = s.stmtUpsertModel.Close()
	_ = s.stmtGetTransitions.Close()
	_ = s.stmtCountTransitions.Close()
	_ = s.stmtCountContexts.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// GetModelInfos retrieves metadata for all stored models, keyed by name.
func (s *Store) GetModelInfos(ctx context.Context) (map[string]ModelInfo, error) {
	rows, err := s.stmtGetModels.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	models := make(map[string]ModelInfo)
	for rows.Next() {
		var model ModelInfo
		if err = rows.Scan(&model.Id, &model.Name, &model.Order); err != nil {
			return nil, err
		}
		models[model.Name] = model
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// GetModelInfo retrieves the metadata for a single model specified by name.
// It returns sql.ErrNoRows if no such model exists.
func (s *Store) GetModelInfo(ctx context.Context, modelName string) (ModelInfo, error) {
	var modelId, modelOrder int
	err := s.stmtGetModelInfo.QueryRowContext(ctx, modelName).Scan(&modelId, &modelOrder)
	if err != nil {
		return ModelInfo{}, err
	}
	return ModelInfo{
		Id:    modelId,
		Name:  modelName,
		Order: modelOrder,
	}, nil
}

// SaveModel stores m under modelName. If a model with that name already
// exists, its order and records are replaced. The operation is performed
// within a single transaction.
func (s *Store) SaveModel(ctx context.Context, modelName string, m *Model) (ModelInfo, error) {
	return s.saveRecords(ctx, modelName, m.Order(), m.Records())
}

func (s *Store) saveRecords(ctx context.Context, modelName string, order int, records []Record) (ModelInfo, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("could not begin transaction for save: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var modelID int
	if err = tx.StmtContext(ctx, s.stmtUpsertModel).QueryRowContext(ctx, modelName, order).Scan(&modelID); err != nil {
		return ModelInfo{}, fmt.Errorf("failed to upsert model '%s': %w", modelName, err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM wordchain_transitions WHERE model_id = ?", modelID); err != nil {
		return ModelInfo{}, fmt.Errorf("failed to clear transitions for model %d: %w", modelID, err)
	}

	stmtInsert, err := tx.PrepareContext(ctx, `INSERT INTO wordchain_transitions (model_id, seq, context, next_symbol, probability) VALUES (?, ?, ?, ?, ?);`)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("failed to prepare transition insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsert)

	for i, rec := range records {
		if _, err = stmtInsert.ExecContext(ctx, modelID, i, rec.Context, rec.Next, rec.Probability); err != nil {
			return ModelInfo{}, fmt.Errorf("failed to insert transition (%q -> %q): %w", rec.Context, rec.Next, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return ModelInfo{}, fmt.Errorf("could not commit model '%s': %w", modelName, err)
	}

	s.logger.InfoContext(ctx, "Model saved",
		slog.String("model_name", modelName),
		slog.Int("model_id", modelID),
		slog.Int("model_order", order),
		slog.Int("transitions", len(records)),
	)

	return ModelInfo{Id: modelID, Name: modelName, Order: order}, nil
}

// LoadModel reads the stored records of a model and rebuilds it.
func (s *Store) LoadModel(ctx context.Context, info ModelInfo) (*Model, error) {
	records, err := s.loadRecords(ctx, info)
	if err != nil {
		return nil, err
	}
	m, err := FromRecords(info.Order, records)
	if err != nil {
		return nil, fmt.Errorf("stored model '%s' is invalid: %w", info.Name, err)
	}

	s.logger.DebugContext(ctx, "Model loaded",
		slog.String("model_name", info.Name),
		slog.Int("model_id", info.Id),
		slog.Int("contexts", m.Len()),
		slog.Int("transitions", len(records)),
	)
	return m, nil
}

func (s *Store) loadRecords(ctx context.Context, info ModelInfo) ([]Record, error) {
	rows, err := s.stmtGetTransitions.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query transitions for model %d: %w", info.Id, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var records []Record
	for rows.Next() {
		var rec Record
		if err = rows.Scan(&rec.Context, &rec.Next, &rec.Probability); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// RemoveModel deletes a model and all of its transitions from the database.
// The operation is performed within a transaction.
func (s *Store) RemoveModel(ctx context.Context, model ModelInfo) error {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction for remove: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM wordchain_transitions WHERE model_id = ?", model.Id); err != nil {
		return fmt.Errorf("failed to remove transitions for model %d: %w", model.Id, err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM wordchain_models WHERE model_id = ?", model.Id); err != nil {
		return fmt.Errorf("failed to remove model %d: %w", model.Id, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit removal of model %d: %w", model.Id, err)
	}

	s.logger.InfoContext(ctx, "Model removed successfully",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
	)
	return nil
}
