package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tripmate/tripmate-backend/internal/service/upload"
)

// UploadFilesResponse lists the hosted files for a multipart upload.
type UploadFilesResponse struct {
	Files []upload.File `json:"files"`
}

// UploadFiles handles POST /files: forwards each multipart file to the
// hosting collaborator and returns the public URLs. Individual failures are
// logged and skipped; the response carries whatever succeeded.
func (s *Server) UploadFiles(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid multipart form"})
	}

	fileHeaders := form.File["file"]
	if len(fileHeaders) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no files provided"})
	}

	files := make([]upload.File, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		src, err := fh.Open()
		if err != nil {
			s.logger.WithError(err).WithField("filename", fh.Filename).Warn("failed to open uploaded file")
			continue
		}

		hosted, err := s.uploader.Upload(c.Request().Context(), fh.Filename, fh.Header.Get("Content-Type"), src)
		src.Close()
		if err != nil {
			s.logger.WithError(err).WithField("filename", fh.Filename).Warn("failed to upload file")
			continue
		}
		files = append(files, *hosted)
	}

	if len(files) == 0 {
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "all uploads failed"})
	}

	return c.JSON(http.StatusOK, UploadFilesResponse{Files: files})
}
