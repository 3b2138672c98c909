package templates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Bam1010yod/TradingDashboard-sub000/database"
	models "github.com/Bam1010yod/TradingDashboard-sub000/database/models_pkg"
	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

// Repository handles database operations for parameter templates
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new template repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByKind returns all active templates of one kind in engine form.
// This satisfies the engine's template store contract.
func (r *Repository) ListByKind(ctx context.Context, kind engine.TemplateKind) ([]engine.Template, error) {
	var rows []models.ParameterTemplate
	err := r.db.WithContext(ctx).
		Where("kind = ? AND is_active = ?", string(kind), true).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListByKind: %w", err)
	}

	out := make([]engine.Template, 0, len(rows))
	for _, row := range rows {
		t, err := ToEngine(row)
		if err != nil {
			// Skip malformed rows rather than failing the whole listing
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Persist upserts an engine template by name
func (r *Repository) Persist(ctx context.Context, t engine.Template) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("Persist: %w", err)
	}

	row := FromEngine(t)

	var existing models.ParameterTemplate
	err := r.db.WithContext(ctx).Where("name = ?", row.Name).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("Persist: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("Persist: %w", err)
	}

	row.ID = existing.ID
	row.Source = existing.Source
	row.IsActive = existing.IsActive
	row.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("Persist: %w", err)
	}
	return nil
}

// List retrieves stored templates with optional kind and active filters
func (r *Repository) List(ctx context.Context, kind string, includeInactive bool) ([]models.ParameterTemplate, error) {
	var rows []models.ParameterTemplate
	query := r.db.WithContext(ctx).Order("name ASC")

	if kind != "" {
		query = query.Where("kind = ?", strings.ToUpper(kind))
	}

	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return rows, nil
}

// GetByID retrieves a single template by primary key
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.ParameterTemplate, error) {
	var row models.ParameterTemplate
	err := r.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.NewNotFoundErrorWithID("template", id)
	}
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return &row, nil
}

// GetByName retrieves a single template by its unique name
func (r *Repository) GetByName(ctx context.Context, name string) (*models.ParameterTemplate, error) {
	var row models.ParameterTemplate
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.NewNotFoundErrorWithID("template", name)
	}
	if err != nil {
		return nil, fmt.Errorf("GetByName: %w", err)
	}
	return &row, nil
}

// Create stores a new template after validating its field families
func (r *Repository) Create(ctx context.Context, row *models.ParameterTemplate) error {
	if err := validateRow(row); err != nil {
		return err
	}
	if row.Source == "" {
		row.Source = database.TemplateSourceAPI
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return database.NewValidationErrorWithValue("name", "template name already exists", row.Name)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// Update modifies an existing template in place
func (r *Repository) Update(ctx context.Context, row *models.ParameterTemplate) error {
	if err := validateRow(row); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&models.ParameterTemplate{}).
		Where("id = ?", row.ID).
		Updates(row)
	if result.Error != nil {
		return fmt.Errorf("Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return database.NewNotFoundErrorWithID("template", row.ID)
	}
	return nil
}

// Delete removes a template by primary key
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.ParameterTemplate{}, id)
	if result.Error != nil {
		return fmt.Errorf("Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return database.NewNotFoundErrorWithID("template", id)
	}
	return nil
}

// BulkImport stores a batch of templates, skipping rows whose names already
// exist. Returns the number of templates actually inserted.
func (r *Repository) BulkImport(ctx context.Context, rows []models.ParameterTemplate) (int, error) {
	imported := 0
	for i := range rows {
		row := rows[i]
		if err := validateRow(&row); err != nil {
			continue
		}
		row.ID = 0
		row.Source = database.TemplateSourceImport

		err := r.db.WithContext(ctx).Create(&row).Error
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
				continue // Already imported, skip silently
			}
			return imported, fmt.Errorf("BulkImport: %w", err)
		}
		imported++
	}
	return imported, nil
}

// validateRow checks the stored representation: a known kind and the field
// family matching that kind fully populated.
func validateRow(row *models.ParameterTemplate) error {
	if strings.TrimSpace(row.Name) == "" {
		return database.NewValidationError("name", "must not be empty")
	}

	switch row.Kind {
	case database.TemplateKindBracket:
		for _, f := range []struct {
			name  string
			value *int
		}{
			{"stop_loss", row.StopLoss},
			{"target", row.Target},
			{"break_even_trigger", row.BreakEvenTrigger},
			{"break_even_plus", row.BreakEvenPlus},
		} {
			if f.value == nil || *f.value <= 0 {
				return database.NewValidationError(f.name, "bracket templates require a positive value")
			}
		}
	case database.TemplateKindFilter:
		for _, f := range []struct {
			name  string
			value *int
		}{
			{"fast_period", row.FastPeriod},
			{"fast_range", row.FastRange},
			{"medium_period", row.MediumPeriod},
			{"medium_range", row.MediumRange},
			{"slow_period", row.SlowPeriod},
			{"slow_range", row.SlowRange},
		} {
			if f.value == nil || *f.value <= 0 {
				return database.NewValidationError(f.name, "filter templates require a positive value")
			}
		}
		if row.FilterMultiplier == nil || *row.FilterMultiplier <= 0 {
			return database.NewValidationError("filter_multiplier", "filter templates require a positive value")
		}
	default:
		return database.NewValidationErrorWithValue("kind", "must be BRACKET or FILTER", row.Kind)
	}
	return nil
}

// ToEngine converts a stored row into the engine's template form
func ToEngine(row models.ParameterTemplate) (engine.Template, error) {
	t := engine.Template{
		Name: row.Name,
		Kind: engine.TemplateKind(row.Kind),
	}

	switch row.Kind {
	case database.TemplateKindBracket:
		if row.StopLoss == nil || row.Target == nil || row.BreakEvenTrigger == nil || row.BreakEvenPlus == nil {
			return engine.Template{}, fmt.Errorf("template %q: incomplete bracket fields", row.Name)
		}
		t.Bracket = &engine.BracketParams{
			StopLoss:         *row.StopLoss,
			Target:           *row.Target,
			BreakEvenTrigger: *row.BreakEvenTrigger,
			BreakEvenPlus:    *row.BreakEvenPlus,
		}
	case database.TemplateKindFilter:
		if row.FastPeriod == nil || row.FastRange == nil || row.MediumPeriod == nil ||
			row.MediumRange == nil || row.SlowPeriod == nil || row.SlowRange == nil || row.FilterMultiplier == nil {
			return engine.Template{}, fmt.Errorf("template %q: incomplete filter fields", row.Name)
		}
		t.Filter = &engine.FilterParams{
			FastPeriod:       *row.FastPeriod,
			FastRange:        *row.FastRange,
			MediumPeriod:     *row.MediumPeriod,
			MediumRange:      *row.MediumRange,
			SlowPeriod:       *row.SlowPeriod,
			SlowRange:        *row.SlowRange,
			FilterMultiplier: *row.FilterMultiplier,
		}
	default:
		return engine.Template{}, fmt.Errorf("template %q: unknown kind %q", row.Name, row.Kind)
	}

	return t, nil
}

// FromEngine converts an engine template into its stored representation
func FromEngine(t engine.Template) models.ParameterTemplate {
	row := models.ParameterTemplate{
		Name:     t.Name,
		Kind:     string(t.Kind),
		IsActive: true,
	}

	if t.Bracket != nil {
		b := *t.Bracket
		row.StopLoss = &b.StopLoss
		row.Target = &b.Target
		row.BreakEvenTrigger = &b.BreakEvenTrigger
		row.BreakEvenPlus = &b.BreakEvenPlus
	}
	if t.Filter != nil {
		f := *t.Filter
		row.FastPeriod = &f.FastPeriod
		row.FastRange = &f.FastRange
		row.MediumPeriod = &f.MediumPeriod
		row.MediumRange = &f.MediumRange
		row.SlowPeriod = &f.SlowPeriod
		row.SlowRange = &f.SlowRange
		row.FilterMultiplier = &f.FilterMultiplier
	}

	return row
}
