package ui

import (
	"html/template"
	"net/url"

	"dataprobe/app"
	"dataprobe/domain/filter"
	"dataprobe/domain/table"
	"dataprobe/internal/analysis/charts"
	filterengine "dataprobe/internal/analysis/filter"
	"dataprobe/internal/analysis/report"
	"dataprobe/internal/session"
)

// PreviewRows is how many source rows the preview shows
const PreviewRows = 5

type pageView struct {
	Error       string
	MaxUploadMB int64
	Session     *sessionView
}

type sessionView struct {
	FileName   string
	SourceRows int
	Columns    int

	Preview tableView
	Filters []filterView

	Status  string
	Warning string
	Result  tableView

	ReportHTML template.HTML
	Charts     []chartView
	Heatmap    *charts.Heatmap
}

type tableView struct {
	Headers   []string
	Rows      [][]string
	Total     int
	Truncated int
}

type filterView struct {
	Column string
	Kind   string // categorical, numeric_range, date_range or unfilterable
	Field  string

	Options []optionView

	Low, High string
	Min, Max  string
	Step      string
}

type optionView struct {
	Key      string
	Label    string
	Selected bool
}

type chartView struct {
	Column string
	Kind   string
	URL    string
}

func newTableView(t *table.Table, limit int) tableView {
	view := tableView{Headers: t.ColumnNames(), Total: t.NumRows()}
	n := t.NumRows()
	if limit > 0 && n > limit {
		view.Truncated = n - limit
		n = limit
	}
	columns := t.Columns()
	view.Rows = make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(columns))
		for j, col := range columns {
			row[j] = col.Key(i)
		}
		view.Rows[i] = row
	}
	return view
}

func newFilterViews(plan filter.Plan, selections filter.Selections) []filterView {
	views := make([]filterView, 0, len(plan.Columns))
	for _, cp := range plan.Columns {
		fv := filterView{Column: cp.Column, Kind: cp.Spec.Kind().String()}
		sel := selections[cp.Column]

		switch spec := cp.Spec.(type) {
		case filter.CategoricalChoice:
			fv.Field = filterengine.FieldCategory + cp.Column
			chosen := map[string]bool{}
			if cs, ok := sel.(filter.CategorySelection); ok {
				for _, k := range cs.Keys {
					chosen[k] = true
				}
			}
			for _, k := range spec.Keys() {
				fv.Options = append(fv.Options, optionView{Key: k, Label: k, Selected: chosen[k]})
			}

		case filter.NumericRange:
			fv.Min, fv.Max = table.FormatNumber(spec.Low), table.FormatNumber(spec.High)
			fv.Low, fv.High = fv.Min, fv.Max
			if ns, ok := sel.(filter.NumericSelection); ok {
				fv.Low, fv.High = table.FormatNumber(ns.Low), table.FormatNumber(ns.High)
			}
			fv.Step = "any"

		case filter.DateRange:
			fv.Min, fv.Max = spec.Start.UTC().Format(table.DateLayout), spec.End.UTC().Format(table.DateLayout)
			fv.Low, fv.High = fv.Min, fv.Max
			if ds, ok := sel.(filter.DateSelection); ok {
				fv.Low, fv.High = ds.Start.UTC().Format(table.DateLayout), ds.End.UTC().Format(table.DateLayout)
			}
		}
		views = append(views, fv)
	}
	return views
}

func (s *Server) newSessionView(st session.State) *sessionView {
	ds := st.Dataset
	view := &sessionView{
		FileName:   ds.Name,
		SourceRows: ds.Table.NumRows(),
		Columns:    ds.Table.NumColumns(),
		Preview:    newTableView(ds.Table.Head(PreviewRows), 0),
		Filters:    newFilterViews(ds.Plan, st.Selections),
	}
	if st.Outcome == nil {
		return view
	}

	res := st.Outcome.Result
	view.Status = res.Status().String()
	if w := res.Warning(); w != nil {
		view.Warning = "Nenhum dado encontrado após aplicar os filtros."
	}
	view.Result = newTableView(res.Table, s.options.MaxDisplayRows)
	view.ReportHTML = template.HTML(report.HTML(reportMarkdown(ds, st.Outcome)))

	set := charts.Build(res.Table, st.Outcome.Report)
	for _, h := range set.Histograms {
		view.Charts = append(view.Charts, chartView{Column: h.Column, Kind: "hist", URL: chartURL("hist", h.Column)})
	}
	for _, b := range set.Bars {
		view.Charts = append(view.Charts, chartView{Column: b.Column, Kind: "bar", URL: chartURL("bar", b.Column)})
	}
	view.Heatmap = set.Heatmap
	return view
}

func reportMarkdown(ds *app.Dataset, outcome *app.Outcome) string {
	return report.Markdown(report.Header{
		Source:     ds.Name,
		SourceRows: outcome.Result.SourceRows,
		Status:     outcome.Result.Status(),
		Active:     outcome.Result.Active,
	}, outcome.Report)
}

func chartURL(kind, column string) string {
	return "/charts/" + kind + "/" + url.PathEscape(column) + ".svg"
}
