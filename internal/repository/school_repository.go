package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-reportcard-api/internal/models"
)

// SchoolRepository reads tenant rows and their report card templates.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs a SchoolRepository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// GetByID returns the school with nullable branding columns flattened to "".
func (r *SchoolRepository) GetByID(ctx context.Context, id string) (*models.School, error) {
	const query = `SELECT id, name, code,
COALESCE(logo_url, '') AS logo_url, COALESCE(second_logo_url, '') AS second_logo_url,
COALESCE(address, '') AS address, COALESCE(phone, '') AS phone, COALESCE(email, '') AS email,
COALESCE(website, '') AS website, COALESCE(affiliation_no, '') AS affiliation_no,
COALESCE(principal_name, '') AS principal_name, COALESCE(instructions, '') AS instructions
FROM schools WHERE id = $1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		return nil, fmt.Errorf("get school: %w", err)
	}
	return &school, nil
}

// GetTemplate returns the stored template config of a school.
func (r *SchoolRepository) GetTemplate(ctx context.Context, schoolID string) (*models.StoredTemplate, error) {
	const query = `SELECT school_id, config, COALESCE(updated_by, '') AS updated_by, updated_at
FROM report_card_templates WHERE school_id = $1`
	var tpl models.StoredTemplate
	if err := r.db.GetContext(ctx, &tpl, query, schoolID); err != nil {
		return nil, fmt.Errorf("get report card template: %w", err)
	}
	return &tpl, nil
}

// UpsertTemplate stores the template config, replacing any previous version.
func (r *SchoolRepository) UpsertTemplate(ctx context.Context, tpl *models.StoredTemplate) error {
	if tpl.UpdatedAt.IsZero() {
		tpl.UpdatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_card_templates (school_id, config, updated_by, updated_at)
VALUES (:school_id, :config, :updated_by, :updated_at)
ON CONFLICT (school_id) DO UPDATE SET config = EXCLUDED.config, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, tpl); err != nil {
		return fmt.Errorf("upsert report card template: %w", err)
	}
	return nil
}
