package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ak0605-AI/Customer-Churn-System/internal/analysis"
)

// renderList prints the analysis history as a table, in service order.
func renderList(w io.Writer, entries []analysis.Analysis) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tSTATUS\tCREATED\tRETENTION")
	for _, entry := range entries {
		created := ""
		if !entry.CreatedAt.IsZero() {
			created = entry.CreatedAt.Format("2006-01-02 15:04")
		}
		retention := "-"
		if entry.Status == analysis.StatusCompleted {
			retention = fmt.Sprintf("%d%%", entry.RetentionRate())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", entry.ID, entry.Filename, entry.Status, created, retention)
	}
	tw.Flush()
}

// renderAnalysis prints one analysis with its summary and predictions.
func renderAnalysis(w io.Writer, job *analysis.Analysis) {
	if job == nil {
		fmt.Fprintln(w, "No analysis selected.")
		return
	}

	fmt.Fprintf(w, "Analysis %s (%s)\n", job.ID, job.Filename)
	fmt.Fprintf(w, "Status: %s\n", job.Status)

	if job.Status == analysis.StatusFailed {
		fmt.Fprintf(w, "Error: %s\n", job.Error)
		return
	}
	if job.Status == analysis.StatusProcessing {
		return
	}

	if job.TotalCustomers != nil && job.HighRiskCount != nil {
		fmt.Fprintf(w, "Customers: %d total, %d high risk, retention %d%%\n",
			*job.TotalCustomers, *job.HighRiskCount, job.RetentionRate())
	}
	if job.Error != "" {
		fmt.Fprintf(w, "Warning: %s\n", job.Error)
	}

	if len(job.Predictions) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CUSTOMER\tCHURN\tRISK")
		for _, p := range job.Predictions {
			name := p.CustomerID
			if p.CustomerName != "" {
				name = fmt.Sprintf("%s (%s)", p.CustomerName, p.CustomerID)
			}
			risk := analysis.NormalizeRiskLevel(p.RiskLevel, p.ChurnProbability)
			fmt.Fprintf(tw, "%s\t%.0f%%\t%s\n", name, p.ChurnProbability*100, risk)
		}
		tw.Flush()
	}

	if job.Insights != "" {
		fmt.Fprintf(w, "\nInsights:\n%s\n", job.Insights)
	}
	if job.Recommendations != "" {
		fmt.Fprintf(w, "\nRecommendations:\n%s\n", job.Recommendations)
	}
}
