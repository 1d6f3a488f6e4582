package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/pdf"
	"taskflow/internal/services"
	"taskflow/internal/spreadsheet"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

type ReportHandler struct {
	service services.ReportService
	pdf     *pdf.ReportGenerator
	log     logrus.FieldLogger
}

func NewReportHandler(service services.ReportService, gen *pdf.ReportGenerator, log logrus.FieldLogger) *ReportHandler {
	return &ReportHandler{service: service, pdf: gen, log: log}
}

func reportQueryFromRequest(c *gin.Context) (services.ReportQuery, error) {
	var q services.ReportQuery
	f, err := taskFilterFromQuery(c)
	if err != nil {
		return q, err
	}
	q.Status, q.Priority, q.TypeID, q.AssignedToID = f.Status, f.Priority, f.TypeID, f.AssignedToID
	q.From, q.To = f.DeadlineFrom, f.DeadlineTo

	for _, v := range c.QueryArray("columns") {
		for _, col := range strings.Split(v, ",") {
			if col = strings.TrimSpace(col); col != "" {
				q.Columns = append(q.Columns, col)
			}
		}
	}
	q.Page = 1
	if s := c.Query("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, errBadQuery("page", s)
		}
		q.Page = n
	}
	return q, nil
}

// @Summary      Tasks report
// @Description  One page of report rows. Quick logs appear as completed rows.
// @Tags         Reports
// @Produce      json
// @Security     BearerAuth
// @Param        status          query  string  false  "Task status"
// @Param        priority        query  string  false  "Task priority"
// @Param        type_id         query  int     false  "Task type"
// @Param        assigned_to_id  query  int     false  "Assignee"
// @Param        from_date       query  string  false  "Deadline from (YYYY-MM-DD)"
// @Param        to_date         query  string  false  "Deadline to (YYYY-MM-DD)"
// @Param        columns         query  string  false  "Comma separated column keys"
// @Param        page            query  int     false  "Page, from 1"
// @Success      200  {object}  services.Report
// @Router       /reports [get]
func (h *ReportHandler) Screen(c *gin.Context) {
	q, err := reportQueryFromRequest(c)
	if err != nil {
		fail(c, h.log, "[report][screen]", err)
		return
	}
	rep, err := h.service.Screen(c.Request.Context(), currentUser(c), q)
	if err != nil {
		fail(c, h.log, "[report][screen]", err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// @Summary   Export tasks report as a spreadsheet
// @Tags      Reports
// @Produce   application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security  BearerAuth
// @Success   200  {file}  binary
// @Failure   403  {object}  map[string]string
// @Router    /reports/export/xlsx [get]
func (h *ReportHandler) ExportXLSX(c *gin.Context) {
	h.export(c, "xlsx", xlsxContentType, spreadsheet.WriteReport)
}

// @Summary   Export tasks report as PDF
// @Tags      Reports
// @Produce   application/pdf
// @Security  BearerAuth
// @Success   200  {file}  binary
// @Failure   403  {object}  map[string]string
// @Router    /reports/export/pdf [get]
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	h.export(c, "pdf", pdfContentType, h.pdf.Write)
}

func (h *ReportHandler) export(c *gin.Context, ext, contentType string, write func(io.Writer, *services.Report) error) {
	tag := "[report][export][" + ext + "]"
	q, err := reportQueryFromRequest(c)
	if err != nil {
		fail(c, h.log, tag, err)
		return
	}
	rep, err := h.service.Export(c.Request.Context(), currentUser(c), q)
	if err != nil {
		fail(c, h.log, tag, err)
		return
	}
	var buf bytes.Buffer
	if err := write(&buf, rep); err != nil {
		fail(c, h.log, tag, fmt.Errorf("render: %w", err))
		return
	}
	name := fmt.Sprintf("tasks_report_%s.%s", rep.GeneratedAt.Format("20060102_1504"), ext)
	h.log.Infof("%s[ok] rows=%d by=%d", tag, len(rep.Rows), currentUser(c).ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
