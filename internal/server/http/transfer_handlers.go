package http

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"filerelay/internal/common"
	"filerelay/internal/filex"
	"filerelay/internal/server/models"
	"filerelay/internal/server/services"
)

// transferBy serves all four pull ways; the way is the route suffix.
func (h *Handler) transferBy(c *gin.Context) {
	way, err := models.ParseTransferWay(strings.TrimPrefix(c.FullPath(), "/file/transferBy"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	fileType, err := models.ParseFileType(requestParam(c, "type"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	params := make(map[string]string, len(way.ParamKeys()))
	for _, key := range way.ParamKeys() {
		params[key] = requestParam(c, key)
	}

	name, err := h.files.Transfer(c.Request.Context(), currentUser(c).ID, fileType, way, params)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name})
}

func (h *Handler) transferProgress(c *gin.Context) {
	name, ok := h.requiredParam(c, "name")
	if !ok {
		return
	}
	progress, err := h.files.TransferProgress(c.Request.Context(), currentUser(c), name)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *Handler) upload(c *gin.Context) {
	fileType, err := models.ParseFileType(requestParam(c, "type"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		h.abortWithError(c, fmt.Errorf("%w: %v", common.ErrIllegalArgument, err))
		return
	}

	// Until the batch is handed to Upload, staged temp files are ours to
	// clean up.
	var staged []services.StagedUpload
	discardStaged := func() {
		for _, su := range staged {
			_ = filex.RemoveQuiet(su.LocalPath)
		}
	}
	for _, header := range form.File["file"] {
		part, err := header.Open()
		if err != nil {
			discardStaged()
			h.abortWithError(c, fmt.Errorf("%w: %v", common.ErrIllegalArgument, err))
			return
		}
		su, err := h.files.StageUpload(header.Filename, header.Size, func(dst *os.File) error {
			_, copyErr := io.Copy(dst, part)
			return copyErr
		})
		part.Close()
		if err != nil {
			discardStaged()
			h.abortWithError(c, err)
			return
		}
		staged = append(staged, su)
	}

	results, err := h.files.Upload(c.Request.Context(), currentUser(c).ID, fileType, staged)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	status := http.StatusOK
	for _, res := range results {
		if res.State != models.TransferSuccess {
			status = http.StatusBadGateway
		}
	}
	switch len(results) {
	case 0:
		c.Status(http.StatusOK)
	case 1:
		c.JSON(status, results[0])
	default:
		c.JSON(status, gin.H{"files": results})
	}
}

func (h *Handler) download(c *gin.Context) {
	name, ok := h.requiredParam(c, "name")
	if !ok {
		return
	}
	file, resp, err := h.files.Download(c.Request.Context(), currentUser(c), name)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	defer resp.Body.Close()

	c.Header("Content-Length", strconv.FormatInt(file.Size, 10))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.OriginalName))
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		// headers are already out; all we can do is cut the stream
		h.logger.Warn(c.Request.Context(), "download stream interrupted", "name", name, "error", err)
		c.Abort()
	}
}

func (h *Handler) ossUpload(c *gin.Context) {
	name, ok := h.requiredParam(c, "name")
	if !ok {
		return
	}
	if err := h.files.OSSUpload(c.Request.Context(), currentUser(c), name); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) ossUploadProgress(c *gin.Context) {
	name, ok := h.requiredParam(c, "name")
	if !ok {
		return
	}
	body, err := h.files.OSSUploadProgress(c.Request.Context(), currentUser(c), name)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}
