package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom/internal/analyzer"
	"github.com/KaramelBytes/tabloom/internal/ingest"
	"github.com/KaramelBytes/tabloom/internal/utils"
	"github.com/KaramelBytes/tabloom/internal/viz"
)

var (
	anaOutputPath string
	anaFormat     string
	anaNoAI       bool
	anaSheetName  string
	anaDelimiter  string
	anaChartsDir  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/XLSX/XLS file and print the JSON report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		c, err := requireConfig()
		if err != nil {
			return err
		}
		format, err := parseFormat(anaFormat)
		if err != nil {
			return err
		}
		delim, err := parseDelimiter(anaDelimiter)
		if err != nil {
			return err
		}

		a, closeFn := buildAnalyzer(cmd.Context(), c, anaNoAI, ingest.Options{Sheet: anaSheetName, Delimiter: delim})
		defer closeFn()

		rep, err := a.AnalyzeFile(cmd.Context(), path)
		if err != nil {
			return err
		}
		out, err := render(rep, format, filepath.Base(path))
		if err != nil {
			return err
		}
		if anaChartsDir != "" {
			n, err := saveCharts(rep, anaChartsDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Rendered %d chart(s) to %s\n", n, anaChartsDir)
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func parseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", "json":
		return "json", nil
	case "md", "markdown":
		return "markdown", nil
	case "html":
		return "html", nil
	default:
		return "", fmt.Errorf("unsupported --format: %s (use json|markdown|html)", s)
	}
}

func render(rep *analyzer.Report, format, name string) ([]byte, error) {
	switch format {
	case "markdown":
		return []byte(rep.Markdown(name)), nil
	case "html":
		return rep.HTML(name), nil
	default:
		return utils.PrettyJSON(rep)
	}
}

// saveCharts renders every visualization in the report as a PNG.
func saveCharts(rep *analyzer.Report, dir string) (int, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return 0, err
	}
	for i, entry := range rep.Visualizations {
		c, err := viz.FromEntry(entry)
		if err != nil {
			return i, err
		}
		if err := c.SavePNG(filepath.Join(dir, viz.FileName(c.XAxis, i))); err != nil {
			return i, err
		}
	}
	return len(rep.Visualizations), nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "json", "report format: json | markdown | html")
	analyzeCmd.Flags().BoolVar(&anaNoAI, "no-ai", false, "skip the AI insight call")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet", "", "XLSX/XLS: sheet name to analyze (default first sheet)")
	analyzeCmd.Flags().StringVar(&anaChartsDir, "charts-dir", "", "also render histogram PNGs into this directory")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe'")
}
