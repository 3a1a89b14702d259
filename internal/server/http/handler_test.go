package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"filerelay/internal/common"
	"filerelay/internal/dbx"
	"filerelay/internal/logging"
	"filerelay/internal/server/auth"
	"filerelay/internal/server/config"
	"filerelay/internal/server/models"
	filesrepo "filerelay/internal/server/repositories/files"
	jobsrepo "filerelay/internal/server/repositories/jobs"
	usersrepo "filerelay/internal/server/repositories/users"
	"filerelay/internal/server/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- fakes ---

type stubFilesRepo struct {
	files map[string]*models.File
}

func (f *stubFilesRepo) Create(ctx context.Context, file *models.File) error {
	f.files[file.Name] = file
	return nil
}

func (f *stubFilesRepo) Get(ctx context.Context, name string) (*models.File, error) {
	file, ok := f.files[name]
	if !ok {
		return nil, common.ErrNotFound
	}
	return file, nil
}

func (f *stubFilesRepo) Count(ctx context.Context, userID string, fileType models.FileType, expectedFilename string) (int, error) {
	return len(f.files), nil
}

func (f *stubFilesRepo) List(ctx context.Context, userID string, fileType models.FileType, expectedFilename string, page, pageSize int) ([]*models.File, error) {
	var out []*models.File
	for _, file := range f.files {
		out = append(out, file)
	}
	return out, nil
}

func (f *stubFilesRepo) MarkTransferDone(ctx context.Context, name string, state models.FileTransferState, size int64) (bool, error) {
	file, ok := f.files[name]
	if !ok || file.TransferState.IsFinal() {
		return false, nil
	}
	file.TransferState = state
	file.Size = size
	return true, nil
}

func (f *stubFilesRepo) SetShared(ctx context.Context, name string, shared bool) error { return nil }
func (f *stubFilesRepo) UpdateDisplayName(ctx context.Context, name, displayName string) error {
	return nil
}
func (f *stubFilesRepo) Delete(ctx context.Context, name string, deleter models.Deleter) error {
	delete(f.files, name)
	return nil
}

type stubJobsRepo struct {
	jobs map[string]*models.Job
}

func (f *stubJobsRepo) Create(ctx context.Context, job *models.Job) error {
	f.jobs[job.Target] = job
	return nil
}

func (f *stubJobsRepo) FindActive(ctx context.Context, jobType models.JobType, target string) (*models.Job, error) {
	job, ok := f.jobs[target]
	if !ok {
		return nil, common.ErrNotFound
	}
	return job, nil
}

func (f *stubJobsRepo) CountActive(ctx context.Context, hostIP string) (int, error) { return 0, nil }
func (f *stubJobsRepo) Delete(ctx context.Context, jobType models.JobType, target string) error {
	delete(f.jobs, target)
	return nil
}

type stubUsersRepo struct {
	users map[string]*usersrepo.StoredUser
}

func (f *stubUsersRepo) Create(ctx context.Context, user *usersrepo.StoredUser) error {
	f.users[user.Name] = user
	return nil
}

func (f *stubUsersRepo) GetByName(ctx context.Context, name string) (*usersrepo.StoredUser, error) {
	u, ok := f.users[name]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func (f *stubUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return nil, common.ErrNotFound
}

type stubRepoManager struct {
	files *stubFilesRepo
	jobs  *stubJobsRepo
	users *stubUsersRepo
}

func (m *stubRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *stubRepoManager) Files(db dbx.DBTX) filesrepo.Repository      { return m.files }
func (m *stubRepoManager) Jobs(db dbx.DBTX) jobsrepo.Repository        { return m.jobs }
func (m *stubRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.users }

type stubWorker struct {
	progress *models.TransferProgress
}

func (w *stubWorker) Progress(ctx context.Context, host, name string) (*models.TransferProgress, error) {
	return w.progress, nil
}

func (w *stubWorker) Forward(ctx context.Context, host, method, path string, params url.Values) (int, []byte, error) {
	return http.StatusOK, []byte(`{}`), nil
}

func (w *stubWorker) UploadFile(ctx context.Context, host, localPath, name string, fileType models.FileType) (int, error) {
	return http.StatusCreated, nil
}

func (w *stubWorker) Download(ctx context.Context, host, name string) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/octet-stream"}},
		Body:       io.NopCloser(strings.NewReader("dump bytes")),
	}, nil
}

// --- harness ---

type testEnv struct {
	handler *Handler
	router  *gin.Engine
	rm      *stubRepoManager
	mock    sqlmock.Sqlmock
	cfg     *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	rm := &stubRepoManager{
		files: &stubFilesRepo{files: map[string]*models.File{}},
		jobs:  &stubJobsRepo{jobs: map[string]*models.Job{}},
		users: &stubUsersRepo{users: map[string]*usersrepo.StoredUser{}},
	}
	logger := logging.NewSlogLogger(slog.Default())
	files := services.NewFileService(db, rm, &stubWorker{}, cfg, logger)
	users := services.NewUserService(db, rm, cfg, logger)

	h := NewHandler(files, users, cfg, logger)
	return &testEnv{handler: h, router: h.Router(), rm: rm, mock: mock, cfg: cfg}
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := auth.GenerateToken(user, []byte(e.cfg.SecretKey), time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func seedFile(e *testEnv, name, userID string, state models.FileTransferState) *models.File {
	f := &models.File{
		Name:          name,
		OriginalName:  "heap.hprof",
		Type:          models.FileTypeHeapDump,
		Size:          10,
		TransferState: state,
		HostIP:        "127.0.0.1",
		UserID:        userID,
		CreationTime:  time.Now(),
	}
	e.rm.files.files[name] = f
	return f
}

// --- tests ---

func TestAuthMiddleware_RejectsMissingAndBadTokens(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/files?type=HEAP_DUMP", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/files?type=HEAP_DUMP", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_TOKEN", body.ErrorCode)
}

func TestListFiles(t *testing.T) {
	env := newTestEnv(t)
	seedFile(env, "f1", "u1", models.TransferSuccess)
	token := env.token(t, &models.User{ID: "u1", Name: "alice"})

	rec := env.do(t, http.MethodGet, "/files?type=HEAP_DUMP", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var page models.PageView[models.FileInfo]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.TotalSize)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "f1", page.Data[0].Name)
	assert.False(t, page.Data[0].Downloadable)
}

func TestListFiles_BadType(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, &models.User{ID: "u1"})

	rec := env.do(t, http.MethodGet, "/files?type=BOGUS", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetFile_ErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	seedFile(env, "f1", "u1", models.TransferSuccess)

	// someone else's private file
	rec := env.do(t, http.MethodGet, "/file?name=f1", env.token(t, &models.User{ID: "u2"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// unknown file
	rec = env.do(t, http.MethodGet, "/file?name=ghost", env.token(t, &models.User{ID: "u1"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// missing parameter
	rec = env.do(t, http.MethodGet, "/file", env.token(t, &models.User{ID: "u1"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransferByURL(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectBegin()
	env.mock.ExpectCommit()
	token := env.token(t, &models.User{ID: "u1"})

	rec := env.do(t, http.MethodPost,
		"/file/transferByURL?type=HEAP_DUMP&url="+url.QueryEscape("http://example.com/heap.hprof"), token)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["name"])
	assert.Contains(t, env.rm.files.files, resp["name"])
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestTransferBySCP_MissingParams(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, &models.User{ID: "u1"})

	rec := env.do(t, http.MethodPost, "/file/transferBySCP?type=GC_LOG&user=deploy", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransferProgress_Settled(t *testing.T) {
	env := newTestEnv(t)
	seedFile(env, "f1", "u1", models.TransferSuccess)
	token := env.token(t, &models.User{ID: "u1"})

	rec := env.do(t, http.MethodGet, "/file/transferProgress?name=f1", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var p models.TransferProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, models.ProgressSuccess, p.State)
	assert.Equal(t, 1.0, p.Percent)
}

func TestUpload_ReturnsNameAndState(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.UploadDir = t.TempDir()
	// transfer registration, then settle
	env.mock.ExpectBegin()
	env.mock.ExpectCommit()
	env.mock.ExpectBegin()
	env.mock.ExpectCommit()
	token := env.token(t, &models.User{ID: "u1"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "heap.hprof")
	require.NoError(t, err)
	_, err = part.Write([]byte("dump bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/file/upload?type=HEAP_DUMP", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["name"])
	assert.Equal(t, string(models.TransferSuccess), resp["state"])
	require.Contains(t, env.rm.files.files, resp["name"])
	assert.Equal(t, models.TransferSuccess, env.rm.files.files[resp["name"]].TransferState)

	entries, err := os.ReadDir(env.cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged copies are removed after the push")
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestUnsetShared_Unsupported(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, &models.User{ID: "u1"})

	rec := env.do(t, http.MethodPost, "/file/unsetShared?name=f1", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "UNSUPPORTED_OPERATION", body.ErrorCode)
}

func TestDeleteFile_InProgressConflicts(t *testing.T) {
	env := newTestEnv(t)
	seedFile(env, "f1", "u1", models.TransferInProgress)
	token := env.token(t, &models.User{ID: "u1"})

	rec := env.do(t, http.MethodPost, "/file/delete?name=f1", token)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDownload_StreamsBodyAndHeaders(t *testing.T) {
	env := newTestEnv(t)
	seedFile(env, "f1", "u1", models.TransferSuccess)
	token := env.token(t, &models.User{ID: "u1"})

	rec := env.do(t, http.MethodGet, "/file/download?name=f1", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dump bytes", rec.Body.String())
	assert.Equal(t, "10", rec.Header().Get("Content-Length"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "heap.hprof")
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
}

func TestDownload_NotTransferred(t *testing.T) {
	env := newTestEnv(t)
	seedFile(env, "f1", "u1", models.TransferInProgress)
	token := env.token(t, &models.User{ID: "u1"})

	rec := env.do(t, http.MethodGet, "/file/download?name=f1", token)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	env.rm.users.users["alice"] = &usersrepo.StoredUser{
		User:         models.User{ID: "u1", Name: "alice"},
		PasswordHash: hash,
	}

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"alice","password":"hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	user, err := auth.UserFromToken(resp["token"], []byte(env.cfg.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	req = httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"alice","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
