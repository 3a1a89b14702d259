package services

import (
	"context"
	"fmt"
	"net/http"

	"filerelay/internal/common"
	"filerelay/internal/server/models"
)

// Download validates that the named file can be served to the caller and
// opens a streaming response from the worker that holds the bytes. The
// caller owns the returned response body.
func (s *FileService) Download(ctx context.Context, user *models.User, name string) (*models.File, *http.Response, error) {
	file, err := s.repos.Files(s.db).Get(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if err := assertFileAvailable(file); err != nil {
		return nil, nil, err
	}
	if err := checkReadPermission(user, file); err != nil {
		return nil, nil, err
	}
	if !file.TransferState.Transferred() {
		return nil, nil, fmt.Errorf("%w: %s", common.ErrNotTransferred, name)
	}
	if file.Size >= s.cfg.MaxDownloadSize {
		return nil, nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", common.ErrFileTooBig, name, file.Size, s.cfg.MaxDownloadSize)
	}

	resp, err := s.worker.Download(ctx, file.HostIP, name)
	if err != nil {
		return nil, nil, err
	}
	return file, resp, nil
}
