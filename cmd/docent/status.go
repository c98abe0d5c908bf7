package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/docent/internal/batches"
	"github.com/JaimeStill/docent/internal/documents"
	"github.com/JaimeStill/docent/pkg/pagination"
)

const recentBatches = 5

// statusReport is the processor summary printed by the status command.
type statusReport struct {
	ProcessorID string                   `json:"processor_id"`
	Documents   map[documents.Status]int `json:"documents"`
	Active      *batches.Batch           `json:"active_batch,omitempty"`
	Recent      []batches.Batch          `json:"recent_batches"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show document counts and recent batches for a processor",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			pid, err := ctx.processor(a)
			if err != nil {
				return err
			}

			counts, err := a.domain.Documents.CountByStatus(cmd.Context(), pid)
			if err != nil {
				return err
			}
			active, err := a.domain.Batches.Active(cmd.Context(), pid)
			if err != nil {
				return err
			}
			recent, err := a.domain.Batches.List(
				cmd.Context(),
				pagination.PageRequest{Page: 1, PageSize: recentBatches},
				batches.Filters{ProcessorID: &pid},
			)
			if err != nil {
				return err
			}

			report := statusReport{
				ProcessorID: pid,
				Documents:   counts,
				Active:      active,
				Recent:      recent.Data,
			}

			out := cmd.OutOrStdout()
			if !ctx.wantTable(out) {
				return writeJSON(out, report)
			}
			fmt.Fprintln(out, renderStatus(report))
			return nil
		},
	}
}

func renderStatus(r statusReport) string {
	var b strings.Builder

	rows := make([][]string, 0, len(documents.Statuses))
	for _, s := range documents.Statuses {
		rows = append(rows, []string{string(s), strconv.Itoa(r.Documents[s])})
	}
	b.WriteString(renderTable(
		"Documents: "+r.ProcessorID,
		[]string{"Status", "Count"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
	b.WriteString("\n")

	if r.Active != nil {
		fmt.Fprintf(&b, "Active batch: %s (%s, %s)\n", r.Active.BatchID, r.Active.Kind, r.Active.Status)
	} else {
		b.WriteString("Active batch: none\n")
	}

	if len(r.Recent) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}

	rows = make([][]string, 0, len(r.Recent))
	for _, batch := range r.Recent {
		rows = append(rows, batchRow(batch))
	}
	b.WriteString(renderTable(
		"Recent batches",
		batchHeaders,
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	))
	return b.String()
}

var batchHeaders = []string{"Batch", "Kind", "Status", "Docs", "Accuracy", "Version", "Started"}

func batchRow(b batches.Batch) []string {
	accuracy := "-"
	if b.AccuracyScore != nil {
		accuracy = strconv.FormatFloat(*b.AccuracyScore, 'f', 3, 64)
	}
	return []string{
		b.BatchID,
		string(b.Kind),
		string(b.Status),
		strconv.Itoa(len(b.DocumentIDs)),
		accuracy,
		orDash(b.ProcessorVersion),
		b.StartedAt.UTC().Format("2006-01-02 15:04"),
	}
}
