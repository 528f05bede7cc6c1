package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-reportcard-api/internal/models"
)

// ExamRepository reads exams and per-student exam outcomes.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// ListByIDs returns the school's exams among ids in chronological order.
// Unknown ids are silently absent from the result.
func (r *ExamRepository) ListByIDs(ctx context.Context, schoolID string, ids []string) ([]models.Exam, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, school_id, name, academic_year, result_date, starts_on
FROM exams WHERE school_id = $1 AND id = ANY($2)
ORDER BY starts_on ASC NULLS LAST, name ASC`
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, schoolID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// GetResult returns the remarks, rank and result recorded for a student.
func (r *ExamRepository) GetResult(ctx context.Context, studentID, examID string) (*models.ExamResult, error) {
	const query = `SELECT student_id, exam_id, COALESCE(remarks, '') AS remarks, COALESCE(rank, '') AS rank,
COALESCE(result, '') AS result, COALESCE(promoted_to, '') AS promoted_to
FROM exam_results WHERE student_id = $1 AND exam_id = $2`
	var result models.ExamResult
	if err := r.db.GetContext(ctx, &result, query, studentID, examID); err != nil {
		return nil, fmt.Errorf("get exam result: %w", err)
	}
	return &result, nil
}
