package handlers

import (
	"errors"
	"image"
	"io"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"

	// Dimension probing for the image types clients may attach.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/labstack/echo/v4"

	"github.com/craftlinkhq/craftlink-backend/internal/api/response"
	seclog "github.com/craftlinkhq/craftlink-backend/internal/logger"
	"github.com/craftlinkhq/craftlink-backend/internal/storage"
	"github.com/craftlinkhq/craftlink-backend/internal/validator"
)

// UploadHandler stores multipart uploads and hands back the attachment
// metadata a chat message needs
type UploadHandler struct {
	files   storage.FileStorage
	baseURL string
	sec     *seclog.SecurityLogger
}

// NewUploadHandler creates a new UploadHandler. publicBaseURL is the
// externally reachable origin under which /files/* is served.
func NewUploadHandler(files storage.FileStorage, publicBaseURL string, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{
		files:   files,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		sec:     seclog.NewSecurityLoggerWithHandler(logger.Handler()),
	}
}

// UploadResponse describes a stored upload, ready to attach to a message
type UploadResponse struct {
	URL       string `json:"url"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

// Upload handles POST /api/v1/uploads
//
// Accepts one multipart file field named "file". Images get their pixel
// dimensions probed so clients can reserve layout space before the file
// loads.
func (h *UploadHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "file is required")
	}

	// Sanitizing neutralizes traversal sequences, but the attempt itself is
	// worth an audit trail entry.
	if strings.Contains(fileHeader.Filename, "..") {
		h.sec.PathTraversalAttempt(c.RealIP(), c.Path(), fileHeader.Filename)
	}

	filename := validator.SanitizeFilename(fileHeader.Filename)
	if err := storage.ValidateFile(filename, fileHeader.Size); err != nil {
		switch {
		case errors.Is(err, storage.ErrBlockedExt):
			h.sec.BlockedFileUpload(c.RealIP(), filename, "blocked extension")
			return response.BadRequest(c, "file type is not allowed")
		case errors.Is(err, storage.ErrFileTooLarge):
			return response.BadRequest(c, "file exceeds the 25MB limit")
		default:
			h.sec.BlockedFileUpload(c.RealIP(), filename, "failed validation")
			return response.BadRequest(c, "invalid file")
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		return response.InternalError(c, "failed to read upload")
	}
	defer src.Close()

	// DecodeConfig reads only the header; non-images simply yield no
	// dimensions.
	var width, height int
	if cfg, _, err := image.DecodeConfig(src); err == nil {
		width, height = cfg.Width, cfg.Height
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return response.InternalError(c, "failed to read upload")
	}

	storedPath, err := h.files.Save(filename, src)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) {
			return response.BadRequest(c, "file exceeds the 25MB limit")
		}
		return response.InternalError(c, "failed to store file")
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return response.Created(c, UploadResponse{
		URL:       h.baseURL + path.Join("/files", filepath.ToSlash(storedPath)),
		MimeType:  mimeType,
		SizeBytes: fileHeader.Size,
		Width:     width,
		Height:    height,
	})
}
