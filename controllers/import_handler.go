package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/admin5fedu/duraval-app-sub010/common/errors"
	"github.com/admin5fedu/duraval-app-sub010/common/logger"
	"github.com/admin5fedu/duraval-app-sub010/common/middleware"
	"github.com/admin5fedu/duraval-app-sub010/models"
	"github.com/admin5fedu/duraval-app-sub010/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImportHandler serves the spreadsheet import endpoints.
type ImportHandler struct {
	service   ImportServiceAPI
	validator *RequestValidator
	timeout   time.Duration
}

func NewImportHandler(service ImportServiceAPI, validator *RequestValidator) *ImportHandler {
	return &ImportHandler{
		service:   service,
		validator: validator,
		timeout:   DefaultContextTimeout,
	}
}

// ListModules returns every importable module with its column descriptions.
func (h *ImportHandler) ListModules(c *gin.Context) {
	mods := h.service.Modules()
	out := make([]ModuleSummary, 0, len(mods))
	for _, m := range mods {
		out = append(out, summarize(m))
	}
	c.JSON(http.StatusOK, gin.H{"modules": out})
}

// Template downloads a blank workbook for the module.
func (h *ImportHandler) Template(c *gin.Context) {
	m, err := h.service.Module(c.Param("module"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	buf, err := services.BuildTemplate(m)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to build import template", err, zap.String("module", m.Name))
		apperrors.Respond(c, err)
		return
	}
	c.Header("Content-Disposition", attachmentName(m.Name+"-template.xlsx"))
	c.Data(http.StatusOK, services.XLSXContentType, buf.Bytes())
}

// Validate runs a dry import of the uploaded file and reports what would fail.
// It accepts the same option fields as Import.
func (h *ImportHandler) Validate(c *gin.Context) {
	m, err := h.service.Module(c.Param("module"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	file, err := h.validator.UploadedFile(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	opts, err := h.validator.ParseOptions(c, m.DefaultOptions)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	fileHandle, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open file"})
		return
	}
	defer fileHandle.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	report, err := h.service.PreviewFile(ctx, m.Name, fileHandle, file.Filename, opts)
	if err != nil {
		logger.Warn(ctx, "Import validation failed", zap.String("module", m.Name), zap.Error(err))
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Import processes the uploaded file, inline or as a queued job when async=true.
func (h *ImportHandler) Import(c *gin.Context) {
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}
	m, err := h.service.Module(c.Param("module"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	file, err := h.validator.UploadedFile(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	opts, err := h.validator.ParseOptions(c, m.DefaultOptions)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	fileHandle, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open file"})
		return
	}
	defer fileHandle.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	req := services.ImportRequest{Module: m.Name, ActorID: actorID, Options: opts}

	if IsAsync(c) {
		h.handleAsyncImport(ctx, c, fileHandle, file.Filename, req)
		return
	}

	result, err := h.service.ImportFile(ctx, fileHandle, file.Filename, req)
	if err != nil {
		logger.Error(ctx, "Import failed", err, zap.String("module", m.Name))
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) handleAsyncImport(ctx context.Context, c *gin.Context, r io.Reader, filename string, req services.ImportRequest) {
	data, err := io.ReadAll(r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}
	job, err := h.service.SubmitJob(ctx, data, filename, req)
	if err != nil {
		logger.Error(ctx, "Failed to queue import job", err, zap.String("module", req.Module))
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"job_id":  job.ID,
		"message": "Import queued for processing",
	})
}

// GetJob returns the status of a queued import owned by the caller.
func (h *ImportHandler) GetJob(c *gin.Context) {
	job, ok := h.ownJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, job)
}

// JobErrors downloads the error rows of a finished job as a workbook.
func (h *ImportHandler) JobErrors(c *gin.Context) {
	job, ok := h.ownJob(c)
	if !ok {
		return
	}
	result, err := h.service.JobErrors(c.Request.Context(), job.ID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	h.writeErrorWorkbook(c, *result, fmt.Sprintf("%s-%s-errors.xlsx", job.Module, job.ID))
}

// ExportErrors turns a posted ImportResult into a workbook of its error rows.
func (h *ImportHandler) ExportErrors(c *gin.Context) {
	var result models.ImportResult
	if err := c.ShouldBindJSON(&result); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid import result"})
		return
	}
	h.writeErrorWorkbook(c, result, "import-errors.xlsx")
}

func (h *ImportHandler) writeErrorWorkbook(c *gin.Context, result models.ImportResult, name string) {
	buf, err := services.BuildErrorWorkbook(result)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to build error workbook", err)
		apperrors.Respond(c, err)
		return
	}
	c.Header("Content-Disposition", attachmentName(name))
	c.Data(http.StatusOK, services.XLSXContentType, buf.Bytes())
}

// ownJob loads the job named in the path. Jobs of other users are reported
// as not found.
func (h *ImportHandler) ownJob(c *gin.Context) (*models.ImportJob, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job ID required"})
		return nil, false
	}
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	job, err := h.service.GetJob(ctx, id)
	if err != nil {
		apperrors.Respond(c, err)
		return nil, false
	}
	if job.ActorID != "" && job.ActorID != actorID {
		apperrors.Respond(c, apperrors.ErrJobNotFound)
		return nil, false
	}
	return job, true
}
