package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/admin5fedu/duraval-app-sub010/common/errors"
	"github.com/admin5fedu/duraval-app-sub010/models"
	"github.com/admin5fedu/duraval-app-sub010/services"
	"github.com/gin-gonic/gin"
)

const DefaultMaxUploadSize = 10 << 20 // 10MB

// formOverhead allows for multipart boundaries and the option fields on top of the file.
const formOverhead = 1 << 20

// RequestValidator checks uploads and import form fields.
type RequestValidator struct {
	maxUploadSize int64
}

func NewRequestValidator(maxUploadSize int64) *RequestValidator {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &RequestValidator{maxUploadSize: maxUploadSize}
}

// UploadedFile returns the multipart "file" field after checking its type and
// size. The request body is capped before the form is parsed, so an oversized
// upload is refused without being read in full.
func (rv *RequestValidator) UploadedFile(c *gin.Context) (*multipart.FileHeader, error) {
	limit := rv.maxUploadSize + formOverhead
	if c.Request.ContentLength > limit {
		return nil, rv.tooLarge()
	}
	if c.Request.MultipartForm == nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	file, err := c.FormFile("file")
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return nil, rv.tooLarge()
	}
	if err != nil {
		return nil, apperrors.Withf(apperrors.ErrBadRequest, "file is required")
	}
	if !services.IsSupportedSheet(file.Filename) {
		return nil, apperrors.Withf(apperrors.ErrInvalidSheet, "invalid file type. Only .xlsx, .xlsm and .csv files are allowed")
	}
	if file.Size > rv.maxUploadSize {
		return nil, rv.tooLarge()
	}
	return file, nil
}

func (rv *RequestValidator) tooLarge() error {
	return apperrors.Withf(apperrors.ErrFileTooLarge, "file too large (max %dMB)", rv.maxUploadSize>>20)
}

// ParseOptions reads skip_empty_cells and upsert_mode from the form. It
// returns nil when neither is present so the module defaults apply.
func (rv *RequestValidator) ParseOptions(c *gin.Context, defaults models.ImportOptions) (*models.ImportOptions, error) {
	skip, hasSkip := c.GetPostForm("skip_empty_cells")
	mode, hasMode := c.GetPostForm("upsert_mode")
	if !hasSkip && !hasMode {
		return nil, nil
	}

	opts := defaults
	if hasSkip && strings.TrimSpace(skip) != "" {
		v, err := strconv.ParseBool(strings.TrimSpace(skip))
		if err != nil {
			return nil, apperrors.Withf(apperrors.ErrInvalidOptions, "invalid boolean value for 'skip_empty_cells'")
		}
		opts.SkipEmptyCells = v
	}
	if hasMode && strings.TrimSpace(mode) != "" {
		m, err := models.ParseUpsertMode(mode)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidOptions, err)
		}
		opts.UpsertMode = m
	}
	return &opts, nil
}

// IsAsync reports whether the caller asked for background processing.
func IsAsync(c *gin.Context) bool {
	v := c.Query("async")
	if v == "" {
		v = c.PostForm("async")
	}
	async, _ := strconv.ParseBool(strings.TrimSpace(v))
	return async
}

func attachmentName(base string) string {
	return fmt.Sprintf("attachment; filename=%q", base)
}
