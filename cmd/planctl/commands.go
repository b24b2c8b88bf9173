package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ifs-actionplan/internal/actionplan"
	"ifs-actionplan/internal/bootstrap"
	"ifs-actionplan/internal/export"
	"ifs-actionplan/internal/extract"
	"ifs-actionplan/internal/profile"
	"ifs-actionplan/internal/shared/config"
	"ifs-actionplan/internal/shared/telemetry"
)

const cliUser = "guest:planctl"

type globalFlags struct {
	profilePath string
	guidePath   string
	verbose     bool
}

func rootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:           "planctl",
		Short:         "IFS Food action plan assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !g.verbose {
				telemetry.SetOutput(io.Discard)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&g.profilePath, "profile", "", "Profile YAML (defaults to the built-in IFS Food v8 profile)")
	cmd.PersistentFlags().StringVar(&g.guidePath, "guide", "", "Guide CSV path (defaults to GUIDE_PATH or GUIDE_URL)")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Print structured logs to stdout")

	cmd.AddCommand(rowsCmd(&g), guideCmd(&g), recommendCmd(&g), inspectCmd())
	return cmd
}

func rowsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rows <workbook.xlsx>",
		Short: "List the non-conformities found in a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(g.profilePath)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := actionplan.Parse(f, actionplan.LayoutFor(p))
			if err != nil {
				return err
			}
			return printRows(cmd.OutOrStdout(), rows)
		},
	}
}

func guideCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "guide <requirement>",
		Short: "Show the guide entry used for a requirement number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(g)
			if err != nil {
				return err
			}
			row, err := app.Guide.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "NUM_REQ: %s\n\n", row.Requirement)
			fmt.Fprintf(out, "Good practice:\n%s\n\n", row.GoodPractice)
			fmt.Fprintf(out, "Elements to check:\n%s\n\n", row.ElementsToCheck)
			fmt.Fprintf(out, "Example questions:\n%s\n", row.ExampleQuestions)
			return nil
		},
	}
}

func recommendCmd(g *globalFlags) *cobra.Command {
	var (
		rows    []int
		format  string
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "recommend <workbook.xlsx>",
		Short: "Generate recommendations for a workbook and optionally export them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var f export.Format
			if outPath != "" {
				parsed, err := export.ParseFormat(formatFor(format, outPath))
				if err != nil {
					return err
				}
				f = parsed
			}

			app, err := buildApp(g)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			planID, err := uploadFile(ctx, app, args[0])
			if err != nil {
				return err
			}

			batch, err := app.RecommendationsService.GenerateMany(ctx, cliUser, planID, rows, false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, res := range batch.Results {
				rec := res.Recommendation
				fmt.Fprintf(out, "=== %s (row %d, guide %s) ===\n%s\n\n", rec.RequirementNo, rec.RowIndex, rec.GuideRequirement, rec.Text)
			}
			for _, fail := range batch.Failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "row %d: %v\n", fail.Row, fail.Err)
			}
			if outPath == "" {
				return nil
			}

			doc, err := app.PlansService.Export(ctx, cliUser, planID, f, rows)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, doc.Body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s (%d bytes)\n", outPath, len(doc.Body))
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&rows, "row", nil, "Row index to process (repeatable, default all rows)")
	cmd.Flags().StringVar(&format, "format", "", "Export format: csv, txt, docx or pdf (default from --out extension)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the export to this file")
	return cmd
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the text of an exported PDF or DOCX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			text, err := extract.Text(cmd.Context(), data, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func buildApp(g *globalFlags) (*bootstrap.App, error) {
	cfg := config.Load()
	cfg.Env = "local"
	cfg.DatabaseURL = ""
	if g.profilePath != "" {
		cfg.ProfilePath = g.profilePath
	}
	if g.guidePath != "" {
		cfg.GuidePath = g.guidePath
	}
	return bootstrap.Build(cfg)
}

func loadProfile(path string) (profile.Profile, error) {
	if strings.TrimSpace(path) == "" {
		return profile.Default(), nil
	}
	return profile.Load(path)
}

func uploadFile(ctx context.Context, app *bootstrap.App, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	plan, err := app.PlansService.Upload(ctx, cliUser, filepath.Base(path), bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return plan.ID, nil
}

func formatFor(flag, outPath string) string {
	if strings.TrimSpace(flag) != "" {
		return flag
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(outPath)), ".")
}

func printRows(w io.Writer, rows []actionplan.Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tREQUIREMENT\tSCORE\tTEXT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Index, r.RequirementNo, r.Score, truncate(r.RequirementText, 60))
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
