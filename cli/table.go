package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/saylorsolutions/tispbuild/task"
	"io"
	"strings"
	"time"
)

// WriteTasks renders a listing of tasks with their dependencies.
func WriteTasks(w io.Writer, tasks []task.Task) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Task", "Depends On", "Description"})
	for _, tk := range tasks {
		t.AppendRow(table.Row{tk.Name, strings.Join(tk.Deps, ", "), tk.Description})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

// WriteResults renders the outcome of a task run.
// Tasks that only group dependencies are left out.
func WriteResults(w io.Writer, results []task.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Run Summary")
	t.AppendHeader(table.Row{"Task", "Status", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Duration", Align: text.AlignRight},
	})
	var total time.Duration
	for _, r := range results {
		if r.Group {
			continue
		}
		status := "ok"
		if r.Err != nil {
			status = "FAILED"
		}
		total += r.Duration
		t.AppendRow(table.Row{r.Task, status, r.Duration.Round(time.Millisecond)})
	}
	t.AppendFooter(table.Row{"Total", "", total.Round(time.Millisecond)})
	t.SetStyle(table.StyleLight)
	t.Render()
}
