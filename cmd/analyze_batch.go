package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tabloom/internal/analyzer"
	"github.com/KaramelBytes/tabloom/internal/ingest"
	"github.com/KaramelBytes/tabloom/internal/utils"
)

var (
	abOutputDir   string
	abFormat      string
	abNoAI        bool
	abSheetName   string
	abDelimiter   string
	abConcurrency int
	abFailFast    bool
	abQuiet       bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/XLSX/XLS files concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		format, err := parseFormat(abFormat)
		if err != nil {
			return err
		}
		delim, err := parseDelimiter(abDelimiter)
		if err != nil {
			return err
		}
		if abOutputDir != "" {
			if err := utils.EnsureDir(abOutputDir); err != nil {
				return err
			}
		}
		limit := c.BatchConcurrency
		if cmd.Flags().Changed("concurrency") && abConcurrency > 0 {
			limit = abConcurrency
		}

		// One Analyzer serves every file; it holds no per-run state.
		a, closeFn := buildAnalyzer(cmd.Context(), c, abNoAI, ingest.Options{Sheet: abSheetName, Delimiter: delim})
		defer closeFn()

		out := cmd.OutOrStdout()
		names := reportNames(files, format)
		reports := make([]*analyzer.Report, len(files))
		var (
			mu       sync.Mutex
			failures error
		)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(limit)
		total := len(files)
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				if !abQuiet {
					mu.Lock()
					fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
					mu.Unlock()
				}
				rep, err := a.AnalyzeFile(ctx, path)
				if err != nil {
					err = fmt.Errorf("%s: %w", path, err)
					if abFailFast {
						return err
					}
					logger.Warn("batch item failed", zap.String("path", path), zap.Error(err))
					mu.Lock()
					failures = multierr.Append(failures, err)
					mu.Unlock()
					return nil
				}
				reports[i] = rep
				if abOutputDir == "" {
					return nil
				}
				body, err := render(rep, format, filepath.Base(path))
				if err != nil {
					return err
				}
				dest := filepath.Join(abOutputDir, names[i])
				if err := utils.SafeWriteFile(dest, body); err != nil {
					return fmt.Errorf("write %s: %w", dest, err)
				}
				if !abQuiet {
					mu.Lock()
					fmt.Fprintf(out, "✓ Wrote analysis to %s\n", dest)
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if abOutputDir == "" {
			if err := printBatch(cmd, files, reports, format); err != nil {
				return err
			}
		}
		return failures
	},
}

// expandInputs resolves globs, keeps literal paths that exist, and drops
// duplicates. The result is sorted.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// reportName keeps the source extension in the name so data.csv and
// data.xlsx in one batch do not collide.
func reportName(path, format string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	ext := ingest.Extension(base)
	suffix := map[string]string{"json": ".json", "markdown": ".md", "html": ".html"}[format]
	if ext == "" {
		return stem + ".report" + suffix
	}
	return stem + "." + ext + ".report" + suffix
}

// reportNames suffixes repeated names (same file name in different
// directories) with __2, __3, ... in input order.
func reportNames(files []string, format string) []string {
	out := make([]string, len(files))
	used := map[string]int{}
	for i, f := range files {
		name := reportName(f, format)
		used[name]++
		if n := used[name]; n > 1 {
			ext := filepath.Ext(name)
			name = fmt.Sprintf("%s__%d%s", strings.TrimSuffix(name, ext), n, ext)
		}
		out[i] = name
	}
	return out
}

func printBatch(cmd *cobra.Command, files []string, reports []*analyzer.Report, format string) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		byFile := map[string]*analyzer.Report{}
		for i, rep := range reports {
			if rep != nil {
				byFile[files[i]] = rep
			}
		}
		b, err := utils.PrettyJSON(byFile)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	}
	for i, rep := range reports {
		if rep == nil {
			continue
		}
		b, err := render(rep, format, filepath.Base(files[i]))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVarP(&abOutputDir, "output-dir", "o", "", "directory to write one report per file (default prints to stdout)")
	analyzeBatchCmd.Flags().StringVarP(&abFormat, "format", "f", "json", "report format: json | markdown | html")
	analyzeBatchCmd.Flags().BoolVar(&abNoAI, "no-ai", false, "skip the AI insight call")
	analyzeBatchCmd.Flags().StringVar(&abSheetName, "sheet", "", "XLSX/XLS: sheet name to analyze (default first sheet)")
	analyzeBatchCmd.Flags().StringVar(&abDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe'")
	analyzeBatchCmd.Flags().IntVar(&abConcurrency, "concurrency", 0, "files analyzed in parallel (default from config batch_concurrency)")
	analyzeBatchCmd.Flags().BoolVar(&abFailFast, "fail-fast", false, "stop at the first file that cannot be analyzed")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
