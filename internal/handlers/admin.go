package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"userhub/internal/httpx"
)

func (h HandlerSet) ExportUsers(c *gin.Context) {
	data, err := h.exportService.RenderCSV(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	h.metrics.Exports.WithLabelValues("sync").Inc()
	c.Header("Content-Disposition", "attachment; filename=users.csv")
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportUsersQueued hands the export to the worker; when the queue is down
// it degrades to the synchronous response rather than failing.
func (h HandlerSet) ExportUsersQueued(c *gin.Context) {
	jobID, err := h.exportService.Enqueue(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if jobID == "" {
		h.ExportUsers(c)
		return
	}

	h.metrics.Exports.WithLabelValues("queued").Inc()
	httpx.OK(c, http.StatusAccepted, gin.H{"job_id": jobID})
}

func (h HandlerSet) ExportJobStatus(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		httpx.Error(c, http.StatusNotFound, httpx.CodeNotFound, "Resource not found")
		return
	}

	httpx.OK(c, http.StatusOK, h.exportService.JobStatus(c.Request.Context(), jobID))
}
