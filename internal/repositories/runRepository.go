package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/memorileak/liquicalc/internal/models"
)

type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new instance of RunRepository
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create adds a new BacktestRun record to the database
func (r *RunRepository) Create(run *models.BacktestRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	return r.db.Create(run).Error
}

// FindByID retrieves a BacktestRun record by its ID
func (r *RunRepository) FindByID(id string) (*models.BacktestRun, error) {
	if id == "" {
		return nil, errors.New("invalid id")
	}
	var run models.BacktestRun
	err := r.db.First(&run, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &run, err
}

// FindBySymbol retrieves all BacktestRun records for a symbol
func (r *RunRepository) FindBySymbol(symbol string) ([]models.BacktestRun, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var runs []models.BacktestRun
	err := r.db.Where("symbol = ?", symbol).Order("created_at DESC").Find(&runs).Error
	return runs, err
}
