package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExamRepositoryListByIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	result := time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "school_id", "name", "academic_year", "result_date", "starts_on"}).
		AddRow("e1", "school-1", "Mid Term", "2024/2025", nil, nil).
		AddRow("e2", "school-1", "Final", "2024/2025", result, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM exams WHERE school_id = $1 AND id = ANY($2)")).
		WithArgs("school-1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	exams, err := repo.ListByIDs(context.Background(), "school-1", []string{"e2", "e1"})
	require.NoError(t, err)
	require.Len(t, exams, 2)
	assert.Equal(t, "20 Dec 2024", exams[1].ReportCard().ResultDate)
	assert.Empty(t, exams[0].ReportCard().ResultDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryListByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	exams, err := NewExamRepository(db).ListByIDs(context.Background(), "school-1", nil)
	require.NoError(t, err)
	assert.Nil(t, exams)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryGetResult(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "exam_id", "remarks", "rank", "result", "promoted_to"}).
		AddRow("st-1", "e1", "Keep it up", "3", "Pass", "XI")
	mock.ExpectQuery(regexp.QuoteMeta("FROM exam_results WHERE student_id = $1 AND exam_id = $2")).
		WithArgs("st-1", "e1").
		WillReturnRows(rows)

	res, err := repo.GetResult(context.Background(), "st-1", "e1")
	require.NoError(t, err)
	assert.Equal(t, "XI", res.PromotedTo)
	require.NoError(t, mock.ExpectationsWereMet())
}
