package handlers

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-desk/internal/storage"
)

// ServeObject serves a publicly readable object of the local storage
// backend at /storage/v1/object/public/{bucket}/{path}.
func (h *Handlers) ServeObject(c *gin.Context) {
	if h.d.Objects == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "object storage is not served here")
		return
	}
	p := strings.TrimPrefix(c.Param("path"), "/")
	f, err := h.d.Objects.Open(c.Param("bucket"), p)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrObjectNotFound), errors.Is(err, storage.ErrBucketNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		case errors.Is(err, storage.ErrAccessDenied):
			fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
		case errors.Is(err, storage.ErrInvalidPath):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil || st.IsDir() {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "object not found")
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	http.ServeContent(c.Writer, c.Request, path.Base(p), st.ModTime(), f)
}
