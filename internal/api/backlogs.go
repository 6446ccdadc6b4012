package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/backlog/internal/domain"
	"github.com/persistorai/backlog/internal/httputil"
	"github.com/persistorai/backlog/internal/middleware"
	"github.com/persistorai/backlog/internal/models"
)

// BacklogHandler serves backlog CRUD, lookup and history endpoints.
type BacklogHandler struct {
	svc    domain.BacklogService
	audits domain.AuditService
	log    *logrus.Logger
}

// NewBacklogHandler creates a BacklogHandler with the given services and logger.
func NewBacklogHandler(svc domain.BacklogService, audits domain.AuditService, log *logrus.Logger) *BacklogHandler {
	return &BacklogHandler{svc: svc, audits: audits, log: log}
}

// List handles GET /api/v1/backlogs.
func (h *BacklogHandler) List(c *gin.Context) {
	f := models.BacklogFilter{
		ProjectSlug:  c.Query("project"),
		Status:       c.Query("status"),
		Type:         c.Query("type"),
		AssigneeName: c.Query("assignee"),
		SprintNumber: parseOptionalInt(c.Query("sprint")),
		Limit:        parseInt(c.DefaultQuery("limit", "50"), 50),
		Offset:       parseOffset(c.DefaultQuery("offset", "0")),
	}

	backlogs, hasMore, err := h.svc.ListBacklogs(c.Request.Context(), f)
	if err != nil {
		respondServiceError(c, h.log, err, "listing backlogs")

		return
	}

	c.JSON(http.StatusOK, httputil.Page[models.Backlog]{Data: backlogs, HasMore: hasMore})
}

// ListByProject handles GET /api/v1/backlogs/project/:slug.
func (h *BacklogHandler) ListByProject(c *gin.Context) {
	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	backlogs, hasMore, err := h.svc.ListBacklogsByProject(c.Request.Context(), c.Param("slug"), limit, offset)
	if err != nil {
		respondServiceError(c, h.log, err, "listing project backlogs")

		return
	}

	c.JSON(http.StatusOK, httputil.Page[models.Backlog]{Data: backlogs, HasMore: hasMore})
}

// Get handles GET /api/v1/backlogs/:id.
func (h *BacklogHandler) Get(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	backlog, err := h.svc.GetBacklog(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err, "getting backlog")

		return
	}

	c.JSON(http.StatusOK, backlog)
}

// GetByRef handles GET /api/v1/backlogs/ref/:ref.
func (h *BacklogHandler) GetByRef(c *gin.Context) {
	backlog, err := h.svc.GetBacklogByRefID(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondServiceError(c, h.log, err, "getting backlog by ref")

		return
	}

	c.JSON(http.StatusOK, backlog)
}

// Create handles POST /api/v1/backlogs.
func (h *BacklogHandler) Create(c *gin.Context) {
	var req models.BacklogInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	backlog, err := h.svc.CreateBacklog(c.Request.Context(), req.ToModel())
	if err != nil {
		respondServiceError(c, h.log, err, "creating backlog")

		return
	}

	middleware.Logger(c, h.log).WithFields(logrus.Fields{
		"action":     "backlog.create",
		"backlog_id": backlog.ID,
		"ref_id":     backlog.RefID,
	}).Info("audit")

	c.JSON(http.StatusCreated, backlog)
}

// Update handles PUT /api/v1/backlogs/:id.
func (h *BacklogHandler) Update(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	var req models.BacklogInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	backlog, err := h.svc.UpdateBacklog(c.Request.Context(), id, req.ToModel())
	if err != nil {
		respondServiceError(c, h.log, err, "updating backlog")

		return
	}

	middleware.Logger(c, h.log).WithFields(logrus.Fields{"action": "backlog.update", "backlog_id": id}).Info("audit")

	c.JSON(http.StatusOK, backlog)
}

// Delete handles DELETE /api/v1/backlogs/:id and returns the removed backlog.
func (h *BacklogHandler) Delete(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	backlog, err := h.svc.DeleteBacklog(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err, "deleting backlog")

		return
	}

	middleware.Logger(c, h.log).WithFields(logrus.Fields{"action": "backlog.delete", "backlog_id": id}).Info("audit")

	c.JSON(http.StatusOK, backlog)
}

// Audits handles GET /api/v1/backlogs/:id/audits.
func (h *BacklogHandler) Audits(c *gin.Context) {
	listAudits(c, h.audits, h.log, models.EntityBacklog)
}
