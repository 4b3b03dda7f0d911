package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ytalbum/internal/services"
	"ytalbum/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect and clean leftover downloads",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List run directories in the staging area",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stagingDir := strings.TrimSpace(cfg.Paths.StagingDir)
			dirs, err := staging.ListDirectories(stagingDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No staging directories found")
				return nil
			}
			fmt.Fprintf(out, "Staging directory: %s\n\n", stagingDir)

			var totalSize int64
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				totalSize += dir.Size
				rows = append(rows, []string{dir.Name, humanize.Time(dir.ModTime), humanize.Bytes(uint64(dir.Size))})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Directory", "Modified", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
				shouldColorize(out),
			))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), humanize.Bytes(uint64(totalSize)))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var cleanAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover downloads",
		Long: `Remove run directories left behind by interrupted runs.

By default only directories older than staging.stale_after_hours are removed.
Use --all to remove every run directory. Cleaning takes the staging lock, so
it refuses to run while a split is in progress.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			lock, err := staging.AcquireLock(cfg.Paths.StagingDir)
			if err != nil {
				return services.Wrap(services.ErrTransient, "staging", "lock", cfg.Paths.StagingDir, err)
			}
			defer lock.Release()

			var result staging.CleanStaleResult
			if cleanAll {
				result = removeAllRuns(cfg.Paths.StagingDir)
			} else {
				result = staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, cfg.StaleAfter(), logger)
			}
			printStagingCleanResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove all run directories regardless of age")

	return cmd
}

func removeAllRuns(stagingDir string) staging.CleanStaleResult {
	var result staging.CleanStaleResult
	dirs, err := staging.ListDirectories(stagingDir)
	if err != nil {
		result.Errors = append(result.Errors, staging.CleanupError{Path: stagingDir, Error: err})
		return result
	}
	for _, dir := range dirs {
		if err := os.RemoveAll(dir.Path); err != nil {
			result.Errors = append(result.Errors, staging.CleanupError{Path: dir.Path, Error: err})
			continue
		}
		result.Removed = append(result.Removed, dir.Path)
	}
	return result
}

func printStagingCleanResult(cmd *cobra.Command, result staging.CleanStaleResult) {
	out := cmd.OutOrStdout()
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintln(out, "No staging directories to clean")
		return
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "Removed %d directories, %d errors\n", len(result.Removed), len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
		}
		return
	}
	fmt.Fprintf(out, "Removed %d directories\n", len(result.Removed))
}

// staleCutoff is shown by check so users know when leftovers disappear.
func staleCutoff(hours int) string {
	if hours <= 0 {
		return "disabled"
	}
	return (time.Duration(hours) * time.Hour).String()
}
