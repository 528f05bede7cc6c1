package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-reportcard-api/internal/models"
)

// MarksRepository reads subject marks.
type MarksRepository struct {
	db *sqlx.DB
}

// NewMarksRepository constructs a MarksRepository.
func NewMarksRepository(db *sqlx.DB) *MarksRepository {
	return &MarksRepository{db: db}
}

// ListForStudent returns a student's marks for the given exams ordered by subject.
func (r *MarksRepository) ListForStudent(ctx context.Context, studentID string, examIDs []string) ([]models.MarkRow, error) {
	if len(examIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT m.student_id, m.exam_id, m.subject_id, sb.name AS subject_name, sb.sort_order,
m.marks_obtained, m.max_marks, COALESCE(m.grade, '') AS grade, COALESCE(m.remarks, '') AS remarks
FROM marks m JOIN subjects sb ON sb.id = m.subject_id
WHERE m.student_id = $1 AND m.exam_id = ANY($2)
ORDER BY sb.sort_order ASC, sb.name ASC`
	var rows []models.MarkRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID, pq.Array(examIDs)); err != nil {
		return nil, fmt.Errorf("list student marks: %w", err)
	}
	return rows, nil
}

// ListAttendance returns the attendance recorded for a student over the given exams.
func (r *MarksRepository) ListAttendance(ctx context.Context, studentID string, examIDs []string) ([]models.AttendanceRow, error) {
	if len(examIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT exam_id, present_days, total_days
FROM exam_attendance WHERE student_id = $1 AND exam_id = ANY($2)`
	var rows []models.AttendanceRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID, pq.Array(examIDs)); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return rows, nil
}

// ListCoScholastic returns a student's co-scholastic grades for an academic year.
func (r *MarksRepository) ListCoScholastic(ctx context.Context, studentID, academicYear string) ([]models.CoScholasticEntry, error) {
	const query = `SELECT activity, COALESCE(term1_grade, '') AS term1_grade, COALESCE(term2_grade, '') AS term2_grade
FROM co_scholastic_grades WHERE student_id = $1 AND academic_year = $2
ORDER BY activity ASC`
	var rows []models.CoScholasticEntry
	if err := r.db.SelectContext(ctx, &rows, query, studentID, academicYear); err != nil {
		return nil, fmt.Errorf("list co-scholastic grades: %w", err)
	}
	return rows, nil
}

// ListGradeScales returns a school's grade scales in the order the school defined them.
func (r *MarksRepository) ListGradeScales(ctx context.Context, schoolID string) ([]models.GradeScale, error) {
	const query = `SELECT grade, min_marks, max_marks, min_percentage, max_percentage, out_of, COALESCE(remark, '') AS remark
FROM grade_scales WHERE school_id = $1 ORDER BY position ASC`
	var scales []models.GradeScale
	if err := r.db.SelectContext(ctx, &scales, query, schoolID); err != nil {
		return nil, fmt.Errorf("list grade scales: %w", err)
	}
	return scales, nil
}
