package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"

	"filerelay/internal/common"
	"filerelay/internal/dbx"
	"filerelay/internal/server/models"
)

// Transfer validates a transfer request, registers the durable File record
// and its in-flight Job on a selected worker, and (for pull ways) kicks the
// worker off. It returns the generated internal name as the pending-transfer
// handle. Initiation is single-shot: this layer never retries, clients
// re-poll instead.
func (s *FileService) Transfer(ctx context.Context, userID string, fileType models.FileType, way models.TransferWay, params map[string]string) (string, error) {
	if err := s.validateWayParams(way, params); err != nil {
		return "", err
	}

	values := make([]string, 0, len(way.ParamKeys()))
	for _, key := range way.ParamKeys() {
		values = append(values, params[key])
	}
	origin := strings.Join(values, "_")
	if way == models.WayUpload {
		origin = params["originalName"]
	}

	originalName := ExtractOriginalName(origin)
	name := BuildFileName(userID, originalName)

	host, err := s.selectWorker(ctx)
	if err != nil {
		return "", fmt.Errorf("selecting worker: %w", err)
	}
	if host == "" {
		return "", fmt.Errorf("%w: no workers configured", common.ErrInternal)
	}

	now := time.Now()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Files(tx).Create(ctx, &models.File{
			Name:          name,
			OriginalName:  originalName,
			Type:          fileType,
			TransferState: models.TransferInProgress,
			HostIP:        host,
			UserID:        userID,
			CreationTime:  now,
		}); err != nil {
			return err
		}
		return s.repos.Jobs(tx).Create(ctx, &models.Job{
			Type:         models.JobFileTransfer,
			Target:       name,
			UserID:       userID,
			HostIP:       host,
			CreationTime: now,
		})
	})
	if err != nil {
		return "", fmt.Errorf("registering transfer: %w", err)
	}

	// The upload way carries its bytes in the request itself; everything
	// else tells the worker to start pulling now.
	if way != models.WayUpload {
		if err := s.kickWorker(ctx, host, name, fileType, way, params); err != nil {
			s.logger.Error(ctx, "transfer start failed", "name", name, "host", host, "error", err)
			if _, doneErr := s.TransferDone(ctx, name, models.TransferError, 0); doneErr != nil {
				s.logger.Error(ctx, "settling failed transfer", "name", name, "error", doneErr)
			}
			return "", err
		}
	}

	s.logger.Info(ctx, "transfer initiated", "name", name, "way", way, "host", host)
	return name, nil
}

func (s *FileService) kickWorker(ctx context.Context, host, name string, fileType models.FileType, way models.TransferWay, params map[string]string) error {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set(common.FileNameParam, name)
	query.Set("type", string(fileType))
	query.Set("way", string(way))

	status, body, err := s.worker.Forward(ctx, host, http.MethodPost, "/transfer", query)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("%w: status %d: %s", common.ErrUpstreamFailure, status, body)
	}
	return nil
}

// validateWayParams checks the declared parameters of the way. URL origins
// must be well-formed URLs; everything else only needs to be present.
func (s *FileService) validateWayParams(way models.TransferWay, params map[string]string) error {
	for _, key := range way.ParamKeys() {
		rule := "required"
		if way == models.WayURL && key == "url" {
			rule = "required,url"
		}
		if err := s.validate.Var(params[key], rule); err != nil {
			return fmt.Errorf("%w: missing or invalid parameter %q for way %s", common.ErrIllegalArgument, key, way)
		}
	}
	return nil
}

// TransferDone applies the terminal state and size to the File exactly once
// and removes the Job in the same transaction, so a job can never be
// observed as absent before the file has settled. It reports whether this
// call was the one that applied the transition.
func (s *FileService) TransferDone(ctx context.Context, name string, state models.FileTransferState, size int64) (bool, error) {
	if !state.IsFinal() {
		return false, fmt.Errorf("%w: %s is not a final state", common.ErrIllegalArgument, state)
	}

	var applied bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		applied, err = s.repos.Files(tx).MarkTransferDone(ctx, name, state, size)
		if err != nil {
			return err
		}
		return s.repos.Jobs(tx).Delete(ctx, models.JobFileTransfer, name)
	})
	if err != nil {
		return false, fmt.Errorf("marking transfer done: %w", err)
	}
	if applied {
		s.logger.Info(ctx, "transfer settled", "name", name, "state", state, "size", size)
	}
	return applied, nil
}

// File returns the guarded view of a single record.
func (s *FileService) File(ctx context.Context, user *models.User, name string) (*models.FileInfo, error) {
	file, err := s.repos.Files(s.db).Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := assertFileAvailable(file); err != nil {
		return nil, err
	}
	if err := checkReadPermission(user, file); err != nil {
		return nil, err
	}
	info := models.NewFileInfo(file)
	return &info, nil
}

// Files returns one page of the caller's records of the given type.
func (s *FileService) Files(ctx context.Context, userID string, fileType models.FileType, expectedFilename string, page, pageSize int) (*models.PageView[models.FileInfo], error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page and pageSize must be positive", common.ErrIllegalArgument)
	}

	repo := s.repos.Files(s.db)
	count, err := repo.Count(ctx, userID, fileType, expectedFilename)
	if err != nil {
		return nil, err
	}
	records, err := repo.List(ctx, userID, fileType, expectedFilename, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &models.PageView[models.FileInfo]{
		TotalSize: count,
		Page:      page,
		PageSize:  pageSize,
		Data:      lo.Map(records, func(f *models.File, _ int) models.FileInfo { return models.NewFileInfo(f) }),
	}, nil
}

// Delete removes a settled file. A transfer still in flight cannot be
// deleted; the deleter's role (owner vs admin) is recorded.
func (s *FileService) Delete(ctx context.Context, user *models.User, name string) error {
	file, err := s.repos.Files(s.db).Get(ctx, name)
	if err != nil {
		return err
	}
	if err := assertFileAvailable(file); err != nil {
		return err
	}
	if err := checkWritePermission(user, file); err != nil {
		return err
	}
	if !file.TransferState.IsFinal() {
		return fmt.Errorf("%w: transfer of %s still in progress", common.ErrPreconditionFailed, name)
	}
	return s.repos.Files(s.db).Delete(ctx, name, deleterRole(user, file))
}

// SetShared makes the file visible to other users.
func (s *FileService) SetShared(ctx context.Context, user *models.User, name string) error {
	file, err := s.repos.Files(s.db).Get(ctx, name)
	if err != nil {
		return err
	}
	if err := assertFileAvailable(file); err != nil {
		return err
	}
	if err := checkWritePermission(user, file); err != nil {
		return err
	}
	return s.repos.Files(s.db).SetShared(ctx, name, true)
}

// UpdateDisplayName renames the user-facing label of a file.
func (s *FileService) UpdateDisplayName(ctx context.Context, user *models.User, name, displayName string) error {
	if displayName == "" {
		return fmt.Errorf("%w: displayName must not be empty", common.ErrIllegalArgument)
	}
	file, err := s.repos.Files(s.db).Get(ctx, name)
	if err != nil {
		return err
	}
	if err := assertFileAvailable(file); err != nil {
		return err
	}
	if err := checkWritePermission(user, file); err != nil {
		return err
	}
	return s.repos.Files(s.db).UpdateDisplayName(ctx, name, displayName)
}
