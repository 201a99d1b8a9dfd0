package ui

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dataprobe/adapters/excel"
	"dataprobe/domain/core"
	"dataprobe/domain/filter"
	"dataprobe/domain/summary"
	"dataprobe/domain/table"
	"dataprobe/internal/analysis/charts"
	"dataprobe/internal/analysis/report"
	apperrors "dataprobe/internal/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExportCSV downloads the filtered rows as CSV
func (s *Server) handleExportCSV(c *gin.Context) {
	st := currentSession(c).State()
	var buf bytes.Buffer
	if err := excel.WriteCSV(&buf, st.Outcome.Result.Table); err != nil {
		s.renderError(c, apperrors.Wrap(err, "export csv"), "Falha ao exportar CSV.")
		return
	}
	s.metrics.IncrementCounter("exports_total", "format", "csv")
	attachment(c, excel.ExportCSVName)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// handleExportXLSX downloads the filtered rows as a single-sheet workbook
func (s *Server) handleExportXLSX(c *gin.Context) {
	st := currentSession(c).State()
	var buf bytes.Buffer
	if err := excel.WriteXLSX(&buf, st.Outcome.Result.Table); err != nil {
		s.renderError(c, apperrors.Wrap(err, "export xlsx"), "Falha ao exportar Excel.")
		return
	}
	s.metrics.IncrementCounter("exports_total", "format", "xlsx")
	attachment(c, excel.ExportXLSXName)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// handleReportMarkdown downloads the statistics report of the filtered rows
func (s *Server) handleReportMarkdown(c *gin.Context) {
	st := currentSession(c).State()
	s.metrics.IncrementCounter("exports_total", "format", "markdown")
	attachment(c, report.FileName)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(reportMarkdown(st.Dataset, st.Outcome)))
}

// handleChart renders /charts/{hist|bar}/{column}.svg over the filtered rows
func (s *Server) handleChart(c *gin.Context) {
	kind := c.Param("kind")
	name, ok := strings.CutSuffix(c.Param("file"), ".svg")
	if !ok || (kind != "hist" && kind != "bar") {
		s.renderError(c, core.NewNotFoundError("chart", c.Param("file")), "Gráfico não encontrado.")
		return
	}

	st := currentSession(c).State()
	col, found := st.Outcome.Result.Table.Column(name)
	if !found {
		s.renderError(c, core.NewNotFoundError("column", name), "Coluna não encontrada.")
		return
	}
	if (kind == "hist") != (col.Kind == table.KindNumeric) {
		s.renderError(c, core.NewNotFoundError("chart", kind+"/"+name), "Gráfico não encontrado.")
		return
	}

	var buf bytes.Buffer
	drawn, err := charts.RenderColumnSVG(&buf, col)
	if err != nil {
		s.renderError(c, apperrors.Wrap(err, "render chart"), "Falha ao desenhar o gráfico.")
		return
	}
	if !drawn {
		s.renderError(c, core.NewNotFoundError("chart", kind+"/"+name), "Sem dados para o gráfico.")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

type stateResponse struct {
	File       string          `json:"file"`
	SourceRows int             `json:"source_rows"`
	Rows       int             `json:"rows"`
	Status     filter.Status   `json:"status"`
	Active     []string        `json:"active"`
	Warning    string          `json:"warning,omitempty"`
	Filters    []filterState   `json:"filters"`
	Report     *summary.Report `json:"report"`
}

type filterState struct {
	Column    string           `json:"column"`
	Kind      filter.SpecKind  `json:"kind"`
	Allowed   []string         `json:"allowed,omitempty"`
	Low       *float64         `json:"low,omitempty"`
	High      *float64         `json:"high,omitempty"`
	Start     *time.Time       `json:"start,omitempty"`
	End       *time.Time       `json:"end,omitempty"`
	Selection filter.Selection `json:"selection,omitempty"`
}

// handleState returns the plan, the current selections and the summary as JSON
func (s *Server) handleState(c *gin.Context) {
	st := currentSession(c).State()
	res := st.Outcome.Result

	resp := stateResponse{
		File:       st.Dataset.Name,
		SourceRows: res.SourceRows,
		Rows:       res.Table.NumRows(),
		Status:     res.Status(),
		Active:     res.Active,
		Report:     st.Outcome.Report,
	}
	if resp.Active == nil {
		resp.Active = []string{}
	}
	if w := res.Warning(); w != nil {
		resp.Warning = w.Error()
	}
	for _, cp := range st.Dataset.Plan.Columns {
		fs := filterState{Column: cp.Column, Kind: cp.Spec.Kind(), Selection: st.Selections[cp.Column]}
		switch spec := cp.Spec.(type) {
		case filter.CategoricalChoice:
			fs.Allowed = spec.Keys()
		case filter.NumericRange:
			fs.Low, fs.High = &spec.Low, &spec.High
		case filter.DateRange:
			fs.Start, fs.End = &spec.Start, &spec.End
		}
		resp.Filters = append(resp.Filters, fs)
	}
	c.JSON(http.StatusOK, resp)
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
}
