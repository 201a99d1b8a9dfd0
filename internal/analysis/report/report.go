// Package report renders a statistics report as a markdown document and as HTML.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"dataprobe/domain/filter"
	"dataprobe/domain/summary"
	"dataprobe/domain/table"
)

// FileName is the download name of the markdown report
const FileName = "relatorio.md"

// NoNullsMessage is shown instead of the null table when no cell is missing
const NoNullsMessage = "Nenhum valor nulo encontrado"

// Header describes where the report data came from
type Header struct {
	Source     string
	SourceRows int
	Status     filter.Status
	Active     []string
}

// Markdown writes the report document: basic statistics of numeric columns, duplicates,
// extremes, central tendency, dispersion and unique counts, then missing values.
func Markdown(h Header, r *summary.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Relatório de %s\n\n", escape(orDefault(h.Source, "dados")))
	fmt.Fprintf(&b, "Linhas filtradas: **%d** de %d", r.Rows, h.SourceRows)
	if len(h.Active) > 0 {
		fmt.Fprintf(&b, " (filtros: %s)", escape(strings.Join(h.Active, ", ")))
	}
	b.WriteString("\n\n")
	if h.Status == filter.StatusEmpty {
		b.WriteString("> Nenhum dado encontrado após aplicar os filtros.\n\n")
	}

	numeric := numericStats(r)
	if len(numeric) > 0 {
		b.WriteString("## Estatísticas básicas\n\n")
		writeTable(&b, []string{"Coluna", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}, numeric,
			func(c summary.ColumnStats) []string {
				return []string{
					fmt.Sprint(c.Count), c.Mean.String(), c.StdDev.String(), c.Min.String(),
					c.Q1.String(), c.Median.String(), c.Q3.String(), c.Max.String(),
				}
			})
	}

	b.WriteString("## Valores duplicados por coluna\n\n")
	writeTable(&b, []string{"Coluna", "Duplicados"}, r.Columns, func(c summary.ColumnStats) []string {
		return []string{fmt.Sprint(c.Duplicates)}
	})

	if len(numeric) > 0 {
		b.WriteString("## Valores máximos e mínimos\n\n")
		writeTable(&b, []string{"Coluna", "Máximo", "Mínimo"}, numeric, func(c summary.ColumnStats) []string {
			return []string{c.Max.String(), c.Min.String()}
		})

		b.WriteString("## Média, Mediana e Moda\n\n")
		writeTable(&b, []string{"Coluna", "Média", "Mediana", "Moda"}, numeric, func(c summary.ColumnStats) []string {
			return []string{c.Mean.String(), c.Median.String(), c.Mode.String()}
		})
	}

	b.WriteString("## Desvio padrão e valores únicos\n\n")
	writeTable(&b, []string{"Coluna", "Desvio Padrão", "Valores Únicos"}, r.Columns, func(c summary.ColumnStats) []string {
		std := ""
		if c.Kind == table.KindNumeric {
			std = c.StdDev.String()
		}
		return []string{std, fmt.Sprint(c.Distinct)}
	})

	b.WriteString("## Valores em branco por coluna\n\n")
	var withNulls []summary.ColumnStats
	for _, c := range r.Columns {
		if c.Nulls > 0 {
			withNulls = append(withNulls, c)
		}
	}
	if len(withNulls) == 0 {
		b.WriteString(NoNullsMessage + "\n")
	} else {
		writeTable(&b, []string{"Coluna", "Nulos"}, withNulls, func(c summary.ColumnStats) []string {
			return []string{fmt.Sprint(c.Nulls)}
		})
	}
	return b.String()
}

// HTML converts a markdown document with the common extensions (tables included)
func HTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}

func numericStats(r *summary.Report) []summary.ColumnStats {
	var out []summary.ColumnStats
	for _, c := range r.Columns {
		if c.Kind == table.KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

func writeTable(b *strings.Builder, headers []string, rows []summary.ColumnStats, cells func(summary.ColumnStats) []string) {
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, c := range rows {
		b.WriteString("| " + escape(c.Name))
		for _, cell := range cells(c) {
			b.WriteString(" | " + cell)
		}
		b.WriteString(" |\n")
	}
	b.WriteString("\n")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`", "<", "&lt;", ">", "&gt;", "\n", " ",
)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
