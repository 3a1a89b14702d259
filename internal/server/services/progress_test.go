package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filerelay/internal/common"
	"filerelay/internal/server/models"
)

func activeJob(target, userID string) *models.Job {
	return &models.Job{Type: models.JobFileTransfer, Target: target, UserID: userID, HostIP: "10.0.0.1"}
}

func TestTransferProgress_InFlightPassesThrough(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.jobs.jobs["f1"] = activeJob("f1", "u1")
	worker := &fakeWorker{progress: &models.TransferProgress{
		State: models.ProgressInProgress, Percent: 0.4, TransferredSize: 400, TotalSize: 1000,
	}}
	s := newTestFileService(t, db, rm, worker)

	p, err := s.TransferProgress(context.Background(), owner(), "f1")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressInProgress, p.State)
	assert.Empty(t, rm.files.markDoneCalls)
	assert.Contains(t, rm.jobs.jobs, "f1")
}

func TestTransferProgress_FinalReportSettles(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeRepoManager()
	file := transferredFile("f1", "u1")
	file.TransferState = models.TransferInProgress
	file.Size = 0
	rm.files.files["f1"] = file
	rm.jobs.jobs["f1"] = activeJob("f1", "u1")

	worker := &fakeWorker{progress: &models.TransferProgress{
		State: models.ProgressSuccess, Percent: 1.0, TransferredSize: 1000, TotalSize: 1000,
	}}
	s := newTestFileService(t, db, rm, worker)

	p, err := s.TransferProgress(context.Background(), owner(), "f1")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressSuccess, p.State)

	require.Len(t, rm.files.markDoneCalls, 1)
	assert.Equal(t, models.TransferSuccess, rm.files.markDoneCalls[0].state)
	assert.Equal(t, int64(1000), rm.files.markDoneCalls[0].size)
	assert.NotContains(t, rm.jobs.jobs, "f1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferProgress_SettledServedFromRecord(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.files.files["f1"] = transferredFile("f1", "u1")
	worker := &fakeWorker{progressErr: common.ErrUpstreamFailure} // must not be consulted
	s := newTestFileService(t, db, rm, worker)

	p, err := s.TransferProgress(context.Background(), owner(), "f1")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressSuccess, p.State)
	assert.Equal(t, 1.0, p.Percent)
	assert.Equal(t, int64(1024), p.TransferredSize)
	assert.Equal(t, int64(1024), p.TotalSize)
}

func TestTransferProgress_SettledErrorHasNoSizes(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	file := transferredFile("f1", "u1")
	file.TransferState = models.TransferError
	rm.files.files["f1"] = file
	s := newTestFileService(t, db, rm, &fakeWorker{})

	p, err := s.TransferProgress(context.Background(), owner(), "f1")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressError, p.State)
	assert.Zero(t, p.Percent)
	assert.Zero(t, p.TransferredSize)
}

func TestTransferProgress_SettledDeletedFileIsUnavailable(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	file := transferredFile("f1", "u1")
	file.Deleted = true
	rm.files.files["f1"] = file
	s := newTestFileService(t, db, rm, &fakeWorker{})

	_, err := s.TransferProgress(context.Background(), owner(), "f1")
	require.ErrorIs(t, err, common.ErrFileNotAvailable)
}

func TestTransferProgress_NoJobNoFileIsSanityViolation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	s := newTestFileService(t, db, newFakeRepoManager(), &fakeWorker{})

	_, err := s.TransferProgress(context.Background(), owner(), "ghost")
	require.ErrorIs(t, err, common.ErrSanityCheck)
}

func TestTransferProgress_NoJobNonFinalFileIsSanityViolation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	file := transferredFile("f1", "u1")
	file.TransferState = models.TransferInProgress
	rm.files.files["f1"] = file
	s := newTestFileService(t, db, rm, &fakeWorker{})

	_, err := s.TransferProgress(context.Background(), owner(), "f1")
	require.ErrorIs(t, err, common.ErrSanityCheck)
}

func TestTransferProgress_ConcurrentFinalAppliesOnce(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.MatchExpectationsInOrder(false)
	const callers = 8
	for i := 0; i < callers; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	rm := newFakeRepoManager()
	file := transferredFile("f1", "u1")
	file.TransferState = models.TransferInProgress
	file.Size = 0
	rm.files.files["f1"] = file
	rm.jobs.jobs["f1"] = activeJob("f1", "u1")

	worker := &fakeWorker{progress: &models.TransferProgress{
		State: models.ProgressSuccess, Percent: 1.0, TransferredSize: 1000, TotalSize: 1000,
	}}
	s := newTestFileService(t, db, rm, worker)

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := s.TransferProgress(context.Background(), owner(), "f1")
			if err == nil && p.State != models.ProgressSuccess {
				err = fmt.Errorf("unexpected state %s", p.State)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	applied := 0
	for _, ok := range rm.files.markDoneResults {
		if ok {
			applied++
		}
	}
	assert.Equal(t, 1, applied, "exactly one caller settles the transfer")
	assert.Equal(t, models.TransferSuccess, rm.files.files["f1"].TransferState)
	assert.Equal(t, int64(1000), rm.files.files["f1"].Size)
	assert.NotContains(t, rm.jobs.jobs, "f1")
}

func TestTransferProgress_JobPermission(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.jobs.jobs["f1"] = activeJob("f1", "u1")
	s := newTestFileService(t, db, rm, &fakeWorker{})

	_, err := s.TransferProgress(context.Background(), someone(), "f1")
	require.ErrorIs(t, err, common.ErrPermissionDenied)
}
