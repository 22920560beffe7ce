package handler

import (
	"errors"
	"io"
	"net/http"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/services/ingestion"
	"bank-reconciliation-backend/internal/services/matching"
	"bank-reconciliation-backend/internal/services/reconciliation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReconciliationHandler struct {
	service          *reconciliation.Service
	gate             *ingestion.Gate
	defaultThreshold int
}

func NewReconciliationHandler(service *reconciliation.Service, gate *ingestion.Gate, defaultThreshold int) *ReconciliationHandler {
	if defaultThreshold <= 0 {
		defaultThreshold = matching.DefaultAutoMatchThreshold
	}
	return &ReconciliationHandler{
		service:          service,
		gate:             gate,
		defaultThreshold: defaultThreshold,
	}
}

// UploadStatement accepts a multipart statement file for one bank account.
func (h *ReconciliationHandler) UploadStatement(c *gin.Context) {
	companyID, ok := parseUUIDField(c, c.PostForm("company_id"), "company_id")
	if !ok {
		return
	}
	accountID, ok := parseUUIDField(c, c.PostForm("account_id"), "account_id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, ingestion.DefaultMaxFileSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}

	result, err := h.gate.Upload(c.Request.Context(), companyID, accountID, fileHeader.Filename, content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ReconciliationHandler) GetImportJob(c *gin.Context) {
	jobID, ok := parseUUIDField(c, c.Param("jobId"), "job id")
	if !ok {
		return
	}
	job, err := h.gate.GetJob(jobID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"job_id":   job.ID,
		"status":   job.Status,
		"tier":     job.Tier,
		"filename": job.Filename,
	})
}

// RunAutoMatch kicks off one batch pass for a company.
func (h *ReconciliationHandler) RunAutoMatch(c *gin.Context) {
	var payload struct {
		CompanyID string `json:"company_id"`
		AccountID string `json:"account_id"`
		Threshold int    `json:"threshold"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	companyID, ok := parseUUIDField(c, payload.CompanyID, "company_id")
	if !ok {
		return
	}
	var accountID *uuid.UUID
	if payload.AccountID != "" {
		id, ok := parseUUIDField(c, payload.AccountID, "account_id")
		if !ok {
			return
		}
		accountID = &id
	}

	threshold := payload.Threshold
	if threshold == 0 {
		threshold = h.defaultThreshold
	}

	result, err := h.service.RunAutoMatch(c.Request.Context(), companyID, accountID, threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetRunStats reports the outcome of a past auto-match run of this process.
func (h *ReconciliationHandler) GetRunStats(c *gin.Context) {
	runID, ok := parseUUIDField(c, c.Param("runId"), "run id")
	if !ok {
		return
	}
	stats, found := h.service.GetRunStats(runID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ReconciliationHandler) ListCandidates(c *gin.Context) {
	txID, ok := parseUUIDField(c, c.Param("id"), "transaction id")
	if !ok {
		return
	}
	list, err := h.service.ListCandidates(txID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ReconciliationHandler) ManualLink(c *gin.Context) {
	txID, ok := parseUUIDField(c, c.Param("id"), "transaction id")
	if !ok {
		return
	}

	var payload struct {
		TargetID    string `json:"target_id"`
		Kind        string `json:"kind"`
		PerformedBy string `json:"performed_by"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	targetID, ok := parseUUIDField(c, payload.TargetID, "target_id")
	if !ok {
		return
	}

	rec, err := h.service.Link(txID, targetID, payload.Kind, payload.PerformedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction linked", "record": rec})
}

func (h *ReconciliationHandler) ManualUnlink(c *gin.Context) {
	txID, ok := parseUUIDField(c, c.Param("id"), "transaction id")
	if !ok {
		return
	}

	var payload struct {
		PerformedBy string `json:"performed_by"`
	}
	// body is optional
	_ = c.ShouldBindJSON(&payload)

	rec, err := h.service.Unlink(txID, payload.PerformedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction unlinked", "record": rec})
}

func (h *ReconciliationHandler) MarkIgnored(c *gin.Context) {
	txID, ok := parseUUIDField(c, c.Param("id"), "transaction id")
	if !ok {
		return
	}

	var payload struct {
		PerformedBy string `json:"performed_by"`
		Reason      string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&payload)

	rec, err := h.service.MarkIgnored(txID, payload.PerformedBy, payload.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction ignored", "record": rec})
}

func (h *ReconciliationHandler) Summary(c *gin.Context) {
	companyID, ok := parseUUIDField(c, c.Query("company_id"), "company_id")
	if !ok {
		return
	}
	var accountID *uuid.UUID
	if v := c.Query("account_id"); v != "" {
		id, ok := parseUUIDField(c, v, "account_id")
		if !ok {
			return
		}
		accountID = &id
	}

	summary, err := h.service.ReconciliationSummary(companyID, accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func parseUUIDField(c *gin.Context, raw, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	var vErr *apperrors.ValidationError
	var dupErr *apperrors.DuplicateUploadError

	switch {
	case errors.Is(err, apperrors.ErrEntityNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "entity not found"})
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.As(err, &dupErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":  "duplicate upload",
			"job_id": dupErr.JobID,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
