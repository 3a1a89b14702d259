package services

import (
	"context"
	"errors"
	"fmt"

	"filerelay/internal/common"
	"filerelay/internal/server/models"
)

// TransferProgress reports how far a transfer has gotten. It is also the
// reconciliation point: when the worker reports a terminal state, this call
// settles the File and removes the Job before answering, so repeated polls
// after completion are served from the durable record alone.
func (s *FileService) TransferProgress(ctx context.Context, user *models.User, name string) (*models.TransferProgress, error) {
	job, err := s.repos.Jobs(s.db).FindActive(ctx, models.JobFileTransfer, name)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if job == nil {
		// No job means the transfer already settled. The file must exist
		// and be in a terminal state; anything else is a broken invariant.
		file, err := s.repos.Files(s.db).Get(ctx, name)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, fmt.Errorf("%w: no job and no file for %s", common.ErrSanityCheck, name)
			}
			return nil, err
		}
		if err := assertFileAvailable(file); err != nil {
			return nil, err
		}
		if err := checkReadPermission(user, file); err != nil {
			return nil, err
		}
		if !file.TransferState.IsFinal() {
			return nil, fmt.Errorf("%w: %s has no job but is still %s", common.ErrSanityCheck, name, file.TransferState)
		}
		return settledProgress(file), nil
	}

	if err := checkJobPermission(user, job); err != nil {
		return nil, err
	}

	progress, err := s.worker.Progress(ctx, job.HostIP, name)
	if err != nil {
		return nil, err
	}

	if progress.State.IsFinal() {
		state := models.FileTransferStateFromProgress(progress.State)
		if _, err := s.TransferDone(ctx, name, state, progress.TotalSize); err != nil {
			return nil, err
		}
	}
	return progress, nil
}

// settledProgress synthesizes a terminal progress report from the durable
// record.
func settledProgress(file *models.File) *models.TransferProgress {
	p := &models.TransferProgress{State: file.TransferState.ToProgressState()}
	if p.State == models.ProgressSuccess {
		p.Percent = 1.0
		p.TransferredSize = file.Size
		p.TotalSize = file.Size
	}
	return p
}
