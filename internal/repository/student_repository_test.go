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

var studentRowColumns = []string{"id", "school_id", "class_id", "class_name", "section", "full_name", "admission_number", "roll_number", "father_name", "mother_name", "date_of_birth", "phone", "address"}

func TestStudentRepositoryGetByIDScopesSchool(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	dob := time.Date(2008, 3, 14, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("st-1", "school-1", "class-1", "X", "A", "Budi Santoso", "ADM-001", "7", "Agus", "Rina", dob, "", "")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.school_id = $1 AND s.id = $2")).
		WithArgs("school-1", "st-1").
		WillReturnRows(rows)

	student, err := repo.GetByID(context.Background(), "school-1", "st-1")
	require.NoError(t, err)
	assert.Equal(t, "Budi Santoso", student.FullName)

	card := student.ReportCard()
	assert.Equal(t, "14 Mar 2008", card.DateOfBirth)
	assert.Equal(t, "X", card.ClassName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListByClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("st-1", "school-1", "class-1", "X", "A", "Ani", "ADM-001", "1", "", "", nil, "", "").
		AddRow("st-2", "school-1", "class-1", "X", "A", "Budi", "ADM-002", "2", "", "", nil, "", "")
	mock.ExpectQuery(regexp.QuoteMeta("s.class_id = $2 AND s.active = TRUE")).
		WithArgs("school-1", "class-1").
		WillReturnRows(rows)

	students, err := repo.ListByClass(context.Background(), "school-1", "class-1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Nil(t, students[0].DateOfBirth)
	assert.Empty(t, students[0].ReportCard().DateOfBirth)
	require.NoError(t, mock.ExpectationsWereMet())
}
