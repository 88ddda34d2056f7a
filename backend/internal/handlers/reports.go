package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reports services.ReportService
}

func NewReportHandler(reports services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) ExportTasks(c *gin.Context) {
	h.export(c, "tasks_report.csv", h.reports.ExportTasks)
}

func (h *ReportHandler) ExportUsers(c *gin.Context) {
	h.export(c, "users_report.csv", h.reports.ExportUsers)
}

// export renders the report into memory first so a failure can still be
// answered with a JSON error.
func (h *ReportHandler) export(c *gin.Context, filename string, write func(context.Context, auth.Identity, io.Writer) error) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := write(c.Request.Context(), identity, &buf); err != nil {
		handleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
