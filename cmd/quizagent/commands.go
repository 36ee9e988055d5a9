package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cft-yamuna/quiz-agent/internal/app"
	"github.com/cft-yamuna/quiz-agent/internal/audit"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/project"
	"github.com/cft-yamuna/quiz-agent/internal/snapshot"
	"github.com/cft-yamuna/quiz-agent/internal/ui"
)

func newWebCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "web",
		Short: "Launch the web interface API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWeb(cmd.Context())
		},
	}
}

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List generated projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			defer logging.Close()

			projects, err := project.List(cfg.Path(cfg.Paths.Output))
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No projects yet.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTECH\tMODIFIED")
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Tech, p.ModTime.Format(time.DateTime))
			}
			return w.Flush()
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <project>",
		Short: "Start the dev server for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(context.Background())
			if err != nil {
				return err
			}
			defer logging.Close()
			defer a.Close()

			console := ui.NewConsole(os.Stdin, os.Stdout)
			ctx, stop := app.InterruptContext(context.Background())
			defer stop()

			status, err := a.RunProject(ctx, args[0])
			if err != nil {
				return err
			}
			if status.Status != "running" {
				console.Info("%s", status.Message)
				return nil
			}
			console.Success("Dev server running on %s. Press Ctrl+C to stop.", status.URL)
			<-ctx.Done()
			console.Info("\nDev server stopped.")
			return nil
		},
	}
}

func newSnapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List, diff and restore project snapshots",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <project>",
			Short: "List snapshots of a project, newest first",
			Args:  cobra.ExactArgs(1),
			RunE: withSnapshots(func(m *snapshot.Manager, args []string) error {
				list, err := m.List(args[0])
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Printf("No snapshots for %s.\n", args[0])
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTIME\tPROMPT")
				for _, s := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.ISOTime, s.PromptPreview)
				}
				return w.Flush()
			}),
		},
		&cobra.Command{
			Use:   "diff <project> <id>",
			Short: "Show which files changed since a snapshot",
			Args:  cobra.ExactArgs(2),
			RunE: withSnapshots(func(m *snapshot.Manager, args []string) error {
				diffs, err := m.Diff(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Print(snapshot.FormatDiff(diffs))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "revert <project> <id>",
			Short: "Restore a project to a snapshot",
			Args:  cobra.ExactArgs(2),
			RunE: withSnapshots(func(m *snapshot.Manager, args []string) error {
				if err := m.Revert(args[0], args[1]); err != nil {
					return app.NewAppError(app.ErrCodeNotFound, "revert failed", err)
				}
				fmt.Printf("Restored %s to snapshot %s.\n", args[0], args[1])
				return nil
			}),
		},
	)
	return cmd
}

func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit [session]",
		Short: "List build trails, or show the tool calls of one build",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			defer logging.Close()
			dir := filepath.Join(cfg.Path(cfg.Paths.LogDir), "audit")

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			if len(args) == 0 {
				sessions, err := audit.Sessions(dir)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					fmt.Println("No build trails yet.")
					return nil
				}
				fmt.Fprintln(w, "SESSION\tMODIFIED\tSIZE")
				for _, s := range sessions {
					fmt.Fprintf(w, "%s\t%s\t%d\n", s.ID, s.ModTime.Format(time.DateTime), s.Size)
				}
				return w.Flush()
			}

			entries, err := audit.Read(dir, args[0])
			if err != nil {
				return app.NewAppError(app.ErrCodeNotFound, "no trail for session "+args[0], err)
			}
			fmt.Fprintln(w, "TIME\tTOOL\tOK\tDURATION\tRESULT")
			for _, e := range entries {
				result := strings.ReplaceAll(audit.Truncate(e.Result, 60), "\n", " ")
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", e.Timestamp.Format(time.TimeOnly), e.Tool, e.Success, e.Duration, result)
			}
			return w.Flush()
		},
	}
}

// withSnapshots runs fn with a snapshot manager for the configured output
// directory. No model client is needed.
func withSnapshots(fn func(*snapshot.Manager, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		defer logging.Close()
		return fn(snapshot.NewManager(cfg.Path(cfg.Paths.Output), cfg.Snapshots.Max), args)
	}
}
