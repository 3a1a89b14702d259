package services

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"filerelay/internal/filex"
	"filerelay/internal/server/models"
)

// StagedUpload is one browser-uploaded file staged on local disk, waiting to
// be pushed to a worker.
type StagedUpload struct {
	LocalPath    string
	OriginalName string
	Size         int64
}

// UploadResult is the caller's handle on one ingested file: the internal
// name and the terminal state the push was classified into.
type UploadResult struct {
	Name  string                   `json:"name"`
	State models.FileTransferState `json:"state"`
}

// Upload pushes staged uploads to workers. Each file gets its own File/Job
// pair and is settled individually; a rejected or failed push still
// completes the file's lifecycle with state ERROR and is reported in the
// results rather than as an error. Every staged temp file in the batch is
// removed before returning, whatever the outcome. An empty batch is a
// silent success.
func (s *FileService) Upload(ctx context.Context, userID string, fileType models.FileType, uploads []StagedUpload) ([]UploadResult, error) {
	defer func() {
		for _, u := range uploads {
			if err := filex.RemoveQuiet(u.LocalPath); err != nil {
				s.logger.Warn(ctx, "removing staged upload", "path", u.LocalPath, "error", err)
			}
		}
	}()

	results := make([]UploadResult, 0, len(uploads))
	for _, u := range uploads {
		res, err := s.uploadOne(ctx, userID, fileType, u)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *FileService) uploadOne(ctx context.Context, userID string, fileType models.FileType, u StagedUpload) (UploadResult, error) {
	name, err := s.Transfer(ctx, userID, fileType, models.WayUpload, map[string]string{"originalName": u.OriginalName})
	if err != nil {
		return UploadResult{}, err
	}

	file, err := s.repos.Files(s.db).Get(ctx, name)
	if err != nil {
		return UploadResult{}, err
	}

	state := models.TransferError
	size := int64(0)
	status, upErr := s.worker.UploadFile(ctx, file.HostIP, u.LocalPath, name, fileType)
	if upErr == nil && status == http.StatusCreated {
		state = models.TransferSuccess
		size = u.Size
	}

	if _, doneErr := s.TransferDone(ctx, name, state, size); doneErr != nil {
		return UploadResult{}, doneErr
	}

	if upErr != nil {
		s.logger.Warn(ctx, "upload forwarding failed", "name", name, "host", file.HostIP, "error", upErr)
	} else if state == models.TransferError {
		s.logger.Warn(ctx, "worker rejected upload", "name", name, "host", file.HostIP, "status", status)
	}
	return UploadResult{Name: name, State: state}, nil
}

// StageUpload copies an incoming multipart part onto local disk under the
// configured staging directory and returns its handle.
func (s *FileService) StageUpload(originalName string, size int64, src func(dst *os.File) error) (StagedUpload, error) {
	dir, err := filex.EnsureDir(s.cfg.UploadDir)
	if err != nil {
		return StagedUpload{}, err
	}
	dst, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return StagedUpload{}, fmt.Errorf("staging upload: %w", err)
	}
	defer dst.Close()

	if err := src(dst); err != nil {
		_ = filex.RemoveQuiet(dst.Name())
		return StagedUpload{}, fmt.Errorf("staging upload: %w", err)
	}
	return StagedUpload{
		LocalPath:    dst.Name(),
		OriginalName: originalName,
		Size:         size,
	}, nil
}
