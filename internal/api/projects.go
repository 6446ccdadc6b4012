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

// ProjectHandler serves project CRUD and history endpoints.
type ProjectHandler struct {
	svc    domain.ProjectService
	audits domain.AuditService
	log    *logrus.Logger
}

// NewProjectHandler creates a ProjectHandler with the given services and logger.
func NewProjectHandler(svc domain.ProjectService, audits domain.AuditService, log *logrus.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, audits: audits, log: log}
}

// List handles GET /api/v1/projects.
func (h *ProjectHandler) List(c *gin.Context) {
	f := models.ProjectFilter{
		Pinned: parseOptionalBool(c.Query("pinned")),
		Limit:  parseInt(c.DefaultQuery("limit", "50"), 50),
		Offset: parseOffset(c.DefaultQuery("offset", "0")),
	}

	projects, hasMore, err := h.svc.ListProjects(c.Request.Context(), f)
	if err != nil {
		respondServiceError(c, h.log, err, "listing projects")

		return
	}

	c.JSON(http.StatusOK, httputil.Page[models.Project]{Data: projects, HasMore: hasMore})
}

// Get handles GET /api/v1/projects/:id.
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	project, err := h.svc.GetProject(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err, "getting project")

		return
	}

	c.JSON(http.StatusOK, project)
}

// Create handles POST /api/v1/projects.
func (h *ProjectHandler) Create(c *gin.Context) {
	var req models.ProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	project, err := h.svc.CreateProject(c.Request.Context(), req.ToModel())
	if err != nil {
		respondServiceError(c, h.log, err, "creating project")

		return
	}

	middleware.Logger(c, h.log).WithFields(logrus.Fields{"action": "project.create", "project_id": project.ID}).Info("audit")

	c.JSON(http.StatusCreated, project)
}

// Update handles PUT /api/v1/projects/:id.
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	var req models.ProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	project, err := h.svc.UpdateProject(c.Request.Context(), id, req.ToModel())
	if err != nil {
		respondServiceError(c, h.log, err, "updating project")

		return
	}

	middleware.Logger(c, h.log).WithFields(logrus.Fields{"action": "project.update", "project_id": id}).Info("audit")

	c.JSON(http.StatusOK, project)
}

// Delete handles DELETE /api/v1/projects/:id and returns the removed project.
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	project, err := h.svc.DeleteProject(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err, "deleting project")

		return
	}

	middleware.Logger(c, h.log).WithFields(logrus.Fields{"action": "project.delete", "project_id": id}).Info("audit")

	c.JSON(http.StatusOK, project)
}

// Audits handles GET /api/v1/projects/:id/audits.
func (h *ProjectHandler) Audits(c *gin.Context) {
	listAudits(c, h.audits, h.log, models.EntityProject)
}

// listAudits serves the field history of the entity named by :id.
func listAudits(c *gin.Context, svc domain.AuditService, log *logrus.Logger, kind models.EntityKind) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	opts := models.AuditQueryOpts{
		FieldName: c.Query("field"),
		Limit:     parseInt(c.DefaultQuery("limit", "50"), 50),
		Offset:    parseOffset(c.DefaultQuery("offset", "0")),
	}

	records, hasMore, err := svc.ListAudits(c.Request.Context(), kind, id, opts)
	if err != nil {
		respondServiceError(c, log, err, "listing audits")

		return
	}

	c.JSON(http.StatusOK, httputil.Page[models.AuditRecord]{Data: records, HasMore: hasMore})
}
