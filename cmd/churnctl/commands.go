package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ak0605-AI/Customer-Churn-System/internal/analysis"
	"github.com/ak0605-AI/Customer-Churn-System/pkg/sampledata"
)

func newSubmitCmd(ctx context.Context, a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "submit <file.csv>",
		Short: "Submit a dataset file for churn analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			defer file.Close()

			if err := a.ctrl.Submit(ctx, filepath.Base(path), file); err != nil {
				return err
			}

			snap := a.ctrl.Snapshot()
			fmt.Printf("Submitted %s as analysis %s\n", snap.CurrentJob.Filename, snap.CurrentJob.ID)

			if watch {
				return watchCurrent(ctx, a)
			}
			fmt.Printf("Run 'churnctl status %s' to check progress.\n", snap.CurrentJob.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Wait for the analysis to finish and print the result")
	return cmd
}

func newStatusCmd(ctx context.Context, a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status <analysis-id>",
		Short: "Show the status and result of an analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctrl.Start(ctx); err != nil {
				fmt.Fprintln(os.Stderr, "warning: could not refresh history:", err)
			}
			if err := a.ctrl.Select(args[0]); err != nil {
				return err
			}

			if watch {
				return watchCurrent(ctx, a)
			}
			renderAnalysis(os.Stdout, a.ctrl.Snapshot().CurrentJob)
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep polling until the analysis reaches a terminal state")
	return cmd
}

func newListCmd(ctx context.Context, a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List prior analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctrl.Start(ctx); err != nil {
				return fmt.Errorf("fetching analyses: %w", err)
			}

			entries := a.ctrl.Snapshot().History
			if len(entries) == 0 {
				fmt.Println("No analyses yet.")
				return nil
			}
			renderList(os.Stdout, entries)
			return nil
		},
	}
}

func newDeleteCmd(ctx context.Context, a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <analysis-id>",
		Short: "Delete an analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctrl.Start(ctx); err != nil {
				fmt.Fprintln(os.Stderr, "warning: could not refresh history:", err)
			}
			if err := a.ctrl.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("deletion failed, nothing changed: %w", err)
			}
			fmt.Println("Analysis deleted.")
			return nil
		},
	}
}

func newSampleCmd(ctx context.Context, a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Download the sample dataset as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := a.client.FetchSample(ctx)
			if err != nil {
				return err
			}

			if output == "" {
				return sampledata.WriteCSV(os.Stdout, cols)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			if err := sampledata.WriteCSV(f, cols); err != nil {
				return err
			}
			fmt.Printf("Sample dataset written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the CSV to a file instead of stdout")
	return cmd
}

func newHealthCmd(ctx context.Context, a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the analysis service is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			response := a.checker.Check(ctx)
			if !response.IsHealthy() {
				return fmt.Errorf("service unhealthy: %s", response.Message)
			}
			fmt.Printf("Service at %s is healthy.\n", a.cfg.BaseURL)
			return nil
		},
	}
}

// watchCurrent renders snapshots until the tracked analysis reaches a
// terminal state or polling is abandoned.
func watchCurrent(ctx context.Context, a *app) error {
	lastStatus := ""
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		snap := a.ctrl.Snapshot()
		if snap.PollStalled {
			return fmt.Errorf("status unknown: polling stopped after repeated failures: %s", snap.LastPollError)
		}
		job := snap.CurrentJob
		if job == nil {
			return fmt.Errorf("no analysis selected")
		}

		if job.Status != lastStatus {
			lastStatus = job.Status
			fmt.Printf("status: %s\n", job.Status)
		}
		if analysis.IsTerminal(job.Status) {
			renderAnalysis(os.Stdout, job)
			return nil
		}
	}
}
