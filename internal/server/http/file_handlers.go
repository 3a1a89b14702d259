package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"filerelay/internal/common"
	"filerelay/internal/server/models"
)

func (h *Handler) listFiles(c *gin.Context) {
	fileType, err := models.ParseFileType(c.Query("type"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	page, err := positiveIntQuery(c, "page", 1)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	pageSize, err := positiveIntQuery(c, "pageSize", 10)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	view, err := h.files.Files(c.Request.Context(), currentUser(c).ID, fileType, c.Query("expectedFilename"), page, pageSize)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) getFile(c *gin.Context) {
	name, ok := h.requiredParam(c, "name")
	if !ok {
		return
	}
	info, err := h.files.File(c.Request.Context(), currentUser(c), name)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) deleteFile(c *gin.Context) {
	name, ok := h.requiredParam(c, "name")
	if !ok {
		return
	}
	if err := h.files.Delete(c.Request.Context(), currentUser(c), name); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) setShared(c *gin.Context) {
	name, ok := h.requiredParam(c, "name")
	if !ok {
		return
	}
	if err := h.files.SetShared(c.Request.Context(), currentUser(c), name); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Sharing is one-way: a file once shared stays shared.
func (h *Handler) unsetShared(c *gin.Context) {
	h.abortWithError(c, fmt.Errorf("%w: unsetShared", common.ErrUnsupportedOperation))
}

func (h *Handler) updateDisplayName(c *gin.Context) {
	name, ok := h.requiredParam(c, "name")
	if !ok {
		return
	}
	displayName := requestParam(c, "displayName")
	if err := h.files.UpdateDisplayName(c.Request.Context(), currentUser(c), name, displayName); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) publicKey(c *gin.Context) {
	key, err := h.files.PublicKey()
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.String(http.StatusOK, key)
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortWithError(c, fmt.Errorf("%w: %v", common.ErrIllegalArgument, err))
		return
	}
	token, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// requestParam reads a parameter from the query string or the form body.
func requestParam(c *gin.Context, key string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return c.PostForm(key)
}

func (h *Handler) requiredParam(c *gin.Context, key string) (string, bool) {
	v := requestParam(c, key)
	if v == "" {
		h.abortWithError(c, fmt.Errorf("%w: missing parameter %q", common.ErrIllegalArgument, key))
		return "", false
	}
	return v, true
}

func positiveIntQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", common.ErrIllegalArgument, key)
	}
	return n, nil
}
