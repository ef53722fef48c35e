// Upload HTTP handlers.
//
//   - POST   /uploads/images?folder=  (image pipeline, returns the public URL)
//   - POST   /uploads/pdfs?folder=    (PDF pipeline)
//   - DELETE /uploads?url=            (best-effort delete, always 204)
//
// Files arrive as multipart/form-data under the "file" field. Storage
// configuration problems are reported as 503 with the remediation message
// so the admin screen can show it verbatim.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-desk/internal/services"
)

// UploadResponse carries the public URL of a stored object.
type UploadResponse struct {
	URL string `json:"url" example:"http://localhost:8080/storage/v1/object/public/images/avatars/u1-1700000000000.jpg"`
}

// readFile reads the "file" form field. It aborts the request and returns
// false on failure.
func readFile(c *gin.Context) (services.FileInput, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "upload too large")
			return services.FileInput{}, false
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "file field required")
		return services.FileInput{}, false
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable file")
		return services.FileInput{}, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable file")
		return services.FileInput{}, false
	}
	return services.FileInput{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

// uploadFail maps upload pipeline errors; anything unrecognized is a 500.
func uploadFail(c *gin.Context, err error) {
	var ce *services.ConfigError
	switch {
	case errors.Is(err, services.ErrAvatarTooLarge), errors.Is(err, services.ErrPDFTooLarge):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, err.Error())
	case errors.Is(err, services.ErrNotImage), errors.Is(err, services.ErrNotPDF),
		errors.Is(err, services.ErrInvalidFolder), errors.Is(err, services.ErrEmptyFile):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrImageProcessing):
		fail(c, http.StatusUnprocessableEntity, ErrCodeUnprocessable, err.Error())
	case errors.As(err, &ce):
		fail(c, http.StatusServiceUnavailable, ErrCodeStorageMisconfigured, ce.Msg)
	case errors.Is(err, services.ErrUploadFailed):
		fail(c, http.StatusBadGateway, ErrCodeUploadFailed, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeSendFailed, err.Error())
	}
}

// UploadImage godoc
// @ID          uploadImage
// @Summary     Upload an image
// @Description Re-encodes the image as JPEG for the folder's profile (avatars are square).
// @Tags        Uploads
// @Accept      multipart/form-data
// @Produce     json
// @Param       X-User-ID  header    string  true   "Owner id"
// @Param       folder     query     string  false  "Destination folder"  default(avatars)
// @Param       file       formData  file    true   "Image"
// @Success     201  {object}  handlers.UploadResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     413  {object}  handlers.ErrorResponse  "Too large"
// @Failure     503  {object}  handlers.ErrorResponse  "Storage misconfigured"
// @Router      /uploads/images [post]
func (h *Handlers) UploadImage(c *gin.Context) {
	owner, okOwner := requireAgent(c)
	if !okOwner {
		return
	}
	f, okFile := readFile(c)
	if !okFile {
		return
	}
	folder := strings.TrimSpace(c.DefaultQuery("folder", services.FolderAvatars))
	url, err := h.d.Uploads.UploadImage(c.Request.Context(), f, folder, owner)
	if err != nil {
		uploadFail(c, err)
		return
	}
	ok(c, http.StatusCreated, UploadResponse{URL: url})
}

// UploadPDF godoc
// @ID          uploadPDF
// @Summary     Upload a PDF
// @Tags        Uploads
// @Accept      multipart/form-data
// @Produce     json
// @Param       X-User-ID  header    string  true   "Owner id"
// @Param       folder     query     string  false  "Destination folder"  default(pdfs)
// @Param       file       formData  file    true   "PDF"
// @Success     201  {object}  handlers.UploadResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     413  {object}  handlers.ErrorResponse  "Too large"
// @Failure     503  {object}  handlers.ErrorResponse  "Storage misconfigured"
// @Router      /uploads/pdfs [post]
func (h *Handlers) UploadPDF(c *gin.Context) {
	owner, okOwner := requireAgent(c)
	if !okOwner {
		return
	}
	f, okFile := readFile(c)
	if !okFile {
		return
	}
	url, err := h.d.Uploads.UploadPDF(c.Request.Context(), f, strings.TrimSpace(c.Query("folder")), owner)
	if err != nil {
		uploadFail(c, err)
		return
	}
	ok(c, http.StatusCreated, UploadResponse{URL: url})
}

// DeleteUpload godoc
// @ID          deleteUpload
// @Summary     Delete an uploaded image by its URL
// @Description Failures are logged server-side only.
// @Tags        Uploads
// @Param       url  query  string  true  "Public or signed object URL"
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /uploads [delete]
func (h *Handlers) DeleteUpload(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("url"))
	if raw == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "url required")
		return
	}
	h.d.Uploads.DeleteImage(c.Request.Context(), raw)
	noContent(c)
}
