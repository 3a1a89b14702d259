// Package worker implements the HTTP client side of the coordinator-worker
// contract: progress queries, request forwarding, upload ingestion and
// download streaming against the worker node that owns a file's bytes.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"filerelay/internal/common"
	"filerelay/internal/server/models"
)

// Client talks to worker nodes. Progress and forward calls are bounded by
// timeout; download streams are bounded only by the caller's context, since
// they are long-lived relative to a single request.
type Client struct {
	port    int
	timeout time.Duration
	http    *http.Client
	stream  *http.Client
}

func NewClient(port int, timeout time.Duration) *Client {
	return &Client{
		port:    port,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		stream:  &http.Client{},
	}
}

func (c *Client) baseURL(host string) string {
	return fmt.Sprintf("http://%s:%d", host, c.port)
}

// Progress asks the worker for the state of an in-flight transfer.
// A non-200 response or an unreachable worker is an ErrUpstreamFailure;
// the file record is never mutated on this path.
func (c *Client) Progress(ctx context.Context, host, name string) (*models.TransferProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL(host) + "/transferProgress?" + common.FileNameParam + "=" + url.QueryEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", common.ErrUpstreamFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", common.ErrUpstreamFailure, resp.StatusCode, body)
	}

	progress := &models.TransferProgress{}
	if err := json.Unmarshal(body, progress); err != nil {
		return nil, fmt.Errorf("%w: decoding progress: %v", common.ErrUpstreamFailure, err)
	}
	return progress, nil
}

// Forward relays a client operation to the worker verbatim: same method,
// same path, the given query parameters. It returns the worker's status
// and body so the caller can hand them straight back to the client.
func (c *Client) Forward(ctx context.Context, host, method, path string, params url.Values) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL(host) + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", common.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: reading response: %v", common.ErrUpstreamFailure, err)
	}
	return resp.StatusCode, body, nil
}

// UploadFile streams a staged local file to the worker as a multipart POST
// associated with the internal name and declared type. It returns the
// worker's status code; callers classify 201 as success and anything else
// as a failed ingestion.
func (c *Client) UploadFile(ctx context.Context, host, localPath, name string, fileType models.FileType) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	f, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("open staged upload: %w", err)
	}
	defer f.Close()

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(localPath); err == nil {
		contentType = mt.String()
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(localPath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	u := c.baseURL(host) + "/upload?" + url.Values{
		common.FileNameParam: {name},
		"type":               {string(fileType)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, pr)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// Download opens a streaming connection for the file's bytes. The caller
// owns the response body and must close it; cancellation propagates through
// ctx. A non-200 status is reported as ErrUpstreamFailure.
func (c *Client) Download(ctx context.Context, host, name string) (*http.Response, error) {
	u := c.baseURL(host) + "/download?" + common.FileNameParam + "=" + url.QueryEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d: %s", common.ErrUpstreamFailure, resp.StatusCode, body)
	}
	return resp, nil
}

// ContentLength parses the worker's Content-Length header, returning -1
// when absent or malformed.
func ContentLength(resp *http.Response) int64 {
	v := resp.Header.Get("Content-Length")
	if v == "" {
		return -1
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return -1
	}
	return n
}
