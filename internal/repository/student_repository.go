package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-reportcard-api/internal/models"
)

const studentColumns = `s.id, s.school_id, s.class_id, c.name AS class_name, COALESCE(c.section, '') AS section,
s.full_name, s.admission_number, COALESCE(s.roll_number, '') AS roll_number,
COALESCE(s.father_name, '') AS father_name, COALESCE(s.mother_name, '') AS mother_name,
s.date_of_birth, COALESCE(s.phone, '') AS phone, COALESCE(s.address, '') AS address`

// StudentRepository reads student profiles scoped to a school.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// GetByID returns a student of the given school.
func (r *StudentRepository) GetByID(ctx context.Context, schoolID, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + `
FROM students s JOIN classes c ON c.id = s.class_id
WHERE s.school_id = $1 AND s.id = $2`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, schoolID, id); err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

// ListByClass returns the active students of a class ordered by roll number then name.
func (r *StudentRepository) ListByClass(ctx context.Context, schoolID, classID string) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + `
FROM students s JOIN classes c ON c.id = s.class_id
WHERE s.school_id = $1 AND s.class_id = $2 AND s.active = TRUE
ORDER BY s.roll_number ASC NULLS LAST, s.full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, schoolID, classID); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}
