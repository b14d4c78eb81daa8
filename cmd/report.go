package cmd

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/spigell/interview-automator/internal/dispatch"
	"github.com/spigell/interview-automator/internal/reconcile"
	"github.com/spigell/interview-automator/internal/sheet"
)

func renderTable(w io.Writer, headers []any, rows [][]any) error {
	table := tablewriter.NewTable(w)
	table.Header(headers...)

	for _, row := range rows {
		if err := table.Append(row...); err != nil {
			return err
		}
	}

	return table.Render()
}

// renderSteps prints one line per heuristic run.
func renderSteps(w io.Writer, reports []reconcile.Report) error {
	if len(reports) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(reports))
	for _, r := range reports {
		if r.Skipped != "" {
			rows = append(rows, []any{r.Name, "-", "-", "-", "-", "skipped: " + r.Skipped})
			continue
		}
		rows = append(rows, []any{
			r.Name,
			strconv.Itoa(r.Step.Examined),
			strconv.Itoa(r.Step.Matched),
			strconv.Itoa(r.Step.Written),
			strconv.Itoa(r.Step.Conflicts),
			"done",
		})
	}

	return renderTable(w, []any{"Heuristic", "Examined", "Matched", "Written", "Conflicts", "Status"}, rows)
}

// renderResults prints the dispatch outcome of every eligible row.
func renderResults(w io.Writer, results []dispatch.Result) error {
	if len(results) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(results))
	for _, r := range results {
		slot, note := "", ""
		if !r.Slot.IsZero() {
			slot = r.Slot.Format(dispatch.TimeLayout)
		}
		if r.Err != nil {
			note = r.Err.Error()
		}
		rows = append(rows, []any{
			strconv.Itoa(sheet.SheetRow(r.Row)),
			r.Name,
			r.State.String(),
			slot,
			strconv.Itoa(r.Attempts),
			note,
		})
	}

	return renderTable(w, []any{"Row", "Name", "State", "Slot", "Attempts", "Error"}, rows)
}

// renderChanges prints the writes held by a dry-run overlay.
func renderChanges(w io.Writer, overlay changeSet) error {
	var rows [][]any
	for _, table := range overlay.Tables() {
		for _, c := range overlay.Changes(table) {
			rows = append(rows, []any{table, c.A1(), c.Value})
		}
	}

	if len(rows) == 0 {
		_, err := io.WriteString(w, "dry run: no changes\n")
		return err
	}

	return renderTable(w, []any{"Table", "Cell", "Value"}, rows)
}

// changeSet is the part of the dry-run overlay the report needs.
type changeSet interface {
	Tables() []string
	Changes(table string) []sheet.Cell
}
