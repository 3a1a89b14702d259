package services

import (
	"context"
	"database/sql"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"

	"filerelay/internal/logging"
	"filerelay/internal/server/config"
	"filerelay/internal/server/models"
	"filerelay/internal/server/repositories/repomanager"
)

// WorkerAPI is the subset of the worker client used by the services; the
// tests substitute fakes for it.
type WorkerAPI interface {
	Progress(ctx context.Context, host, name string) (*models.TransferProgress, error)
	Forward(ctx context.Context, host, method, path string, params url.Values) (int, []byte, error)
	UploadFile(ctx context.Context, host, localPath, name string, fileType models.FileType) (int, error)
	Download(ctx context.Context, host, name string) (*http.Response, error)
}

// FileService coordinates the lifecycle of transferred artifacts: it
// registers File/Job records, delegates byte movement to workers,
// reconciles completion and guards reads, deletes and renames.
type FileService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	worker   WorkerAPI
	cfg      *config.Config
	logger   logging.Logger
	validate *validator.Validate
}

func NewFileService(db *sql.DB, repos repomanager.RepositoryManager, worker WorkerAPI, cfg *config.Config, logger logging.Logger) *FileService {
	return &FileService{
		db:       db,
		repos:    repos,
		worker:   worker,
		cfg:      cfg,
		logger:   logger.With("module", "files"),
		validate: validator.New(),
	}
}

// selectWorker picks the configured worker with the fewest active jobs,
// breaking ties by list order.
func (s *FileService) selectWorker(ctx context.Context) (string, error) {
	jobRepo := s.repos.Jobs(s.db)

	best := ""
	bestLoad := -1
	for _, host := range s.cfg.Workers {
		n, err := jobRepo.CountActive(ctx, host)
		if err != nil {
			return "", err
		}
		if bestLoad < 0 || n < bestLoad {
			best, bestLoad = host, n
		}
	}
	return best, nil
}
