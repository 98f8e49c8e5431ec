package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/JonMunkholm/importme/internal/core"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type parseOptions struct {
	schema     string
	headerRows int
	sheet      string
	delimiter  string
	jobs       int
	asJSON     bool
	records    bool
}

// fileReport is the outcome of one file. Exactly one of Summary and Fatal is set.
type fileReport struct {
	File    string          `json:"file"`
	Summary *core.Summary   `json:"summary,omitempty"`
	Records []core.Record   `json:"records,omitempty"`
	Errors  []core.RowError `json:"errors,omitempty"`
	Fatal   string          `json:"fatal,omitempty"`
	Code    string          `json:"code,omitempty"`
}

func newParseCmd(root *rootOptions) *cobra.Command {
	opts := &parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse FILE...",
		Short: "Parse files with a registered schema",
		Long: `Parse one or more CSV, TSV or XLSX files with a registered schema.

Files are parsed concurrently. A summary and every row error are printed;
with --json a report per file is printed instead. The exit status is 1 when
any file could not be read at all.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := core.Lookup(opts.schema)
			if err != nil {
				return err
			}

			cfg := schema.Config
			if cmd.Flags().Changed("header-rows") {
				cfg.HeaderRows = opts.headerRows
			}
			if opts.sheet != "" {
				cfg.Source.Sheet = opts.sheet
			}
			if opts.delimiter != "" {
				r := []rune(opts.delimiter)
				if len(r) != 1 {
					return fmt.Errorf("delimiter must be a single character, got %q", opts.delimiter)
				}
				cfg.Source.Delimiter = r[0]
			}

			reports, err := parseFiles(cmd.Context(), root, cfg, args, opts.jobs)
			if err != nil {
				return err
			}

			if !opts.records {
				for i := range reports {
					reports[i].Records = nil
				}
			}

			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(reports); err != nil {
					return err
				}
			} else {
				writeSummary(cmd.OutOrStdout(), reports)
				writeErrors(cmd.OutOrStdout(), reports)
			}

			var fatal int
			for _, r := range reports {
				if r.Fatal != "" {
					fatal++
				}
			}
			if fatal > 0 {
				return fmt.Errorf("%d of %d files could not be parsed", fatal, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.schema, "schema", "s", "", "schema key (see 'importme schemas')")
	cmd.Flags().IntVar(&opts.headerRows, "header-rows", 0, "leading rows to skip, overriding the schema")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "workbook sheet name (default first sheet)")
	cmd.Flags().StringVar(&opts.delimiter, "delimiter", "", "CSV field delimiter (default ',' or tab for .tsv)")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "files parsed at once")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print a JSON report")
	cmd.Flags().BoolVar(&opts.records, "records", false, "include records in the JSON report")
	cmd.MarkFlagRequired("schema")

	return cmd
}

// parseFiles runs one parser per file, at most jobs at a time. A fatal error
// in one file is reported and does not stop the others; the returned error
// is only set when ctx is cancelled.
func parseFiles(ctx context.Context, root *rootOptions, cfg core.Config, files []string, jobs int) ([]fileReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if jobs < 1 {
		jobs = 1
	}

	reports := make([]fileReport, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, file := range files {
		g.Go(func() error {
			reports[i] = parseFile(gctx, root, cfg, file)
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func parseFile(ctx context.Context, root *rootOptions, cfg core.Config, file string) fileReport {
	report := fileReport{File: file}

	var opts []core.Option
	if root.logger != nil {
		opts = append(opts, core.WithLogger(root.logger))
	}

	p, err := core.New(file, cfg, opts...)
	if err == nil {
		var result *core.ParseResult
		result, err = p.Run(ctx)
		if err == nil {
			summary := result.Summary()
			report.Summary = &summary
			report.Records = result.Records
			report.Errors = result.Errors
			return report
		}
	}

	report.Fatal = err.Error()
	report.Code = core.MapError(err).Code
	return report
}

func writeSummary(w io.Writer, reports []fileReport) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Rows", "Skipped", "Records", "Errors", "Status"})
	table.SetAutoWrapText(false)

	for _, r := range reports {
		name := filepath.Base(r.File)
		if r.Fatal != "" {
			table.Append([]string{name, "-", "-", "-", "-", core.FormatUserError(errors.New(r.Fatal))})
			continue
		}
		status := "ok"
		if r.Summary.Errors > 0 {
			status = "row errors"
		}
		table.Append([]string{
			name,
			strconv.Itoa(r.Summary.Rows),
			strconv.Itoa(r.Summary.Skipped),
			strconv.Itoa(r.Summary.Records),
			strconv.Itoa(r.Summary.Errors),
			status,
		})
	}
	table.Render()
}

// writeErrors prints one line per column error and per row-level message.
func writeErrors(w io.Writer, reports []fileReport) {
	var rows [][]string
	for _, r := range reports {
		name := filepath.Base(r.File)
		for _, re := range r.Errors {
			row := strconv.Itoa(re.Row)
			if re.Message != "" {
				rows = append(rows, []string{name, row, "", "", re.Message, core.MapError(errors.New(re.Message)).Code})
			}
			for _, ce := range re.Columns {
				rows = append(rows, []string{name, row, ce.Column, cast.ToString(ce.Value), ce.Message, core.MapColumnError(ce).Code})
			}
		}
	}
	if len(rows) == 0 {
		return
	}

	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Row", "Column", "Value", "Message", "Code"})
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}
