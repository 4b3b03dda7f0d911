package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytalbum/internal/deps"
	"ytalbum/internal/preflight"
	"ytalbum/internal/services"
	"ytalbum/internal/services/command"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var network bool
	var reachURL string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify external tools and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg, command.Exec{})
			fmt.Fprintln(out, renderSectionHeader("Dependencies", colorize))
			for _, line := range dependencyLines(statuses, colorize) {
				fmt.Fprintln(out, line)
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			if network {
				results = append(results, preflight.CheckReachable(cmd.Context(), "Video site", reachURL, cfg.Source.UserAgent, cfg.RequestTimeout()))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Environment", colorize))
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			historyDetail := cfg.Paths.HistoryDB
			if historyDetail == "" {
				historyDetail = "disabled"
			}
			fmt.Fprintln(out, renderStatusLine("Run history", statusInfo, historyDetail, colorize))
			fmt.Fprintln(out, renderStatusLine("Stale downloads", statusInfo, "removed after "+staleCutoff(cfg.Staging.StaleAfterHours), colorize))

			if missing := deps.Missing(statuses); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, m := range missing {
					names = append(names, m.Name)
				}
				return services.Wrap(services.ErrExternalTool, "check", "dependencies", "missing "+strings.Join(names, ", "), nil)
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "check", "environment", fmt.Sprintf("%d checks failed", len(failed)), nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&network, "network", false, "Also check that the video site is reachable")
	cmd.Flags().StringVar(&reachURL, "url", preflight.DefaultReachabilityURL, "URL probed by --network")
	return cmd
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses))
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Version != "" {
				message = dep.Version
			}
			if dep.Path != "" {
				message = fmt.Sprintf("%s (%s)", message, dep.Path)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	return lines
}
