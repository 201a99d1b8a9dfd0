package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dataprobe/adapters/excel"
	"dataprobe/app"
	"dataprobe/domain/filter"
	"dataprobe/domain/table"
	"dataprobe/internal"
	"dataprobe/internal/analysis/report"
)

type loadOptions struct {
	delimiter string
	logLevel  string
}

func (o *loadOptions) explorer() (*app.ExplorerService, error) {
	cfg := excel.DefaultLoaderConfig()
	switch o.delimiter {
	case `\t`, "\t":
		cfg.Delimiter = '\t'
	default:
		runes := []rune(o.delimiter)
		if len(runes) != 1 {
			return nil, fmt.Errorf("delimiter must be a single character, got %q", o.delimiter)
		}
		cfg.Delimiter = runes[0]
	}
	logger := internal.NewLoggerWithWriter(internal.ParseLogLevel(o.logLevel), os.Stderr)
	return app.NewExplorerService(excel.NewDataReader(cfg, logger), nil, logger), nil
}

func (o *loadOptions) load(cmd *cobra.Command, path string) (*app.ExplorerService, *app.Dataset, error) {
	svc, err := o.explorer()
	if err != nil {
		return nil, nil, err
	}
	format, err := excel.DetectFormat(path, "")
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	ds, err := svc.Load(cmd.Context(), path, f, format)
	if err != nil {
		return nil, nil, err
	}
	return svc, ds, nil
}

func newProfileCmd(opts *loadOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile [file]",
		Short: "Show the inferred column kinds and the filter each column offers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ds, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows, %d columns\n\n", args[0], ds.Table.NumRows(), ds.Table.NumColumns())
			return writePlan(cmd.OutOrStdout(), ds.Plan)
		},
	}
}

func newSummaryCmd(opts *loadOptions) *cobra.Command {
	flags := &filterFlags{}
	cmd := &cobra.Command{
		Use:   "summary [file]",
		Short: "Print the statistics report of the (filtered) rows as markdown",
		Long: `Print the statistics report of the rows that pass the filters.

Example: dataprobe-cli summary vendas.csv --in regiao=Sul,Norte --range valor=10:500 --dates data=2024-01-01:2024-03-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, ds, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}
			selections, err := flags.selections(ds.Plan)
			if err != nil {
				return err
			}
			outcome, err := svc.Recompute(ds.Table, ds.Plan, selections)
			if err != nil {
				return err
			}
			if w := outcome.Result.Warning(); w != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			md := report.Markdown(report.Header{
				Source:     ds.Name,
				SourceRows: outcome.Result.SourceRows,
				Status:     outcome.Result.Status(),
				Active:     outcome.Result.Active,
			}, outcome.Report)
			_, err = io.WriteString(cmd.OutOrStdout(), md)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newExportCmd(opts *loadOptions) *cobra.Command {
	flags := &filterFlags{}
	var out string

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the filtered rows to a CSV or XLSX file",
		Long: `Write the rows that pass the filters to OUT. The output format follows the
extension of OUT (.csv or .xlsx).

Example: dataprobe-cli export vendas.xlsx -o dados_filtrados.csv --in regiao=Sul`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := excel.DetectFormat(out, "")
			if err != nil {
				return fmt.Errorf("output %s: %w", out, err)
			}
			svc, ds, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}
			selections, err := flags.selections(ds.Plan)
			if err != nil {
				return err
			}
			outcome, err := svc.Recompute(ds.Table, ds.Plan, selections)
			if err != nil {
				return err
			}
			if err := writeTable(out, format, outcome.Result.Table); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d of %d rows to %s\n", outcome.Result.Table.NumRows(), outcome.Result.SourceRows, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", excel.ExportCSVName, "Output file (.csv or .xlsx)")
	flags.register(cmd)
	return cmd
}

func writeTable(path string, format excel.Format, t *table.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if format == excel.FormatXLSX {
		return excel.WriteXLSX(f, t)
	}
	return excel.WriteCSV(f, t)
}

func writePlan(w io.Writer, plan filter.Plan) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tKIND\tFILTER\tDISTINCT\tNULLS\tVALUES")
	for _, cp := range plan.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			cp.Column, cp.Kind, cp.Spec.Kind(), cp.Profile.DistinctCount(), cp.Profile.Nulls, describeSpec(cp.Spec))
	}
	return tw.Flush()
}

func describeSpec(spec filter.Spec) string {
	switch s := spec.(type) {
	case filter.CategoricalChoice:
		return strings.Join(s.Keys(), ", ")
	case filter.NumericRange:
		return table.FormatNumber(s.Low) + " .. " + table.FormatNumber(s.High)
	case filter.DateRange:
		return table.FormatTime(s.Start) + " .. " + table.FormatTime(s.End)
	}
	return "-"
}
