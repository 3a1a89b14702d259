package jobs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"filerelay/internal/common"
	"filerelay/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestFindActive_Present(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^\s*SELECT\b.*FROM\s+jobs\s+WHERE\s+job_type=\$1\s+AND\s+target=\$2`).
		WithArgs(models.JobFileTransfer, "u1-abc").
		WillReturnRows(sqlmock.NewRows([]string{"job_type", "target", "user_id", "host_ip", "created_at"}).
			AddRow("FILE_TRANSFER", "u1-abc", "u1", "10.0.0.5", now))

	j, err := repo.FindActive(context.Background(), models.JobFileTransfer, "u1-abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.HostIP != "10.0.0.5" || j.UserID != "u1" {
		t.Fatalf("unexpected job: %+v", j)
	}
}

func TestFindActive_Absent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^\s*SELECT\b.*FROM\s+jobs`).
		WithArgs(models.JobFileTransfer, "settled").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background(), models.JobFileTransfer, "settled")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+jobs\b`).
		WithArgs(models.JobFileTransfer, "u1-abc", "u1", "10.0.0.5", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Job{
		Type: models.JobFileTransfer, Target: "u1-abc",
		UserID: "u1", HostIP: "10.0.0.5", CreationTime: now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_AbsentIsNoop(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*DELETE\s+FROM\s+jobs`).
		WithArgs(models.JobFileTransfer, "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), models.JobFileTransfer, "gone"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCountActive(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^\s*SELECT\s+COUNT\(\*\)\s+FROM\s+jobs\s+WHERE\s+host_ip=\$1`).
		WithArgs("10.0.0.5").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.CountActive(context.Background(), "10.0.0.5")
	if err != nil || n != 7 {
		t.Fatalf("count = %d, err = %v", n, err)
	}
}
