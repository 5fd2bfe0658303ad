package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/memorileak/liquicalc/internal/models"
)

// BracketRepository persists risk bracket tables as a JSON blob on local
// disk, keyed by symbol. Tables are loaded once per run and discarded.
type BracketRepository struct {
	path string
}

func NewBracketRepository(path string) *BracketRepository {
	return &BracketRepository{path: path}
}

// Save writes the full table set, replacing whatever was stored before.
func (r *BracketRepository) Save(tables map[string][]models.RiskBracket) error {
	if len(tables) == 0 {
		return errors.New("tables cannot be empty")
	}

	data, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding bracket tables: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("writing bracket tables to %s: %w", r.path, err)
	}
	return nil
}

// Load reads back every stored table.
func (r *BracketRepository) Load() (map[string][]models.RiskBracket, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("reading bracket tables from %s: %w", r.path, err)
	}

	var tables map[string][]models.RiskBracket
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("decoding bracket tables from %s: %w", r.path, err)
	}
	return tables, nil
}

// LoadSymbol returns one symbol's table or fails when it was never stored.
func (r *BracketRepository) LoadSymbol(symbol string) ([]models.RiskBracket, error) {
	tables, err := r.Load()
	if err != nil {
		return nil, err
	}
	brackets, ok := tables[symbol]
	if !ok || len(brackets) == 0 {
		return nil, fmt.Errorf("no bracket table stored for %s in %s", symbol, r.path)
	}
	return brackets, nil
}
