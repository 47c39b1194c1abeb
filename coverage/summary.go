package coverage

import (
	"fmt"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/tools/cover"
	"io"
	"sort"
)

// FileSummary is statement coverage for one source file.
type FileSummary struct {
	File       string
	Statements int
	Covered    int
}

// Ratio is the fraction of statements covered, or zero if the file has no statements.
func (f FileSummary) Ratio() float64 {
	if f.Statements == 0 {
		return 0
	}
	return float64(f.Covered) / float64(f.Statements)
}

// Summary is statement coverage across a merged report.
type Summary struct {
	Mode  string
	Files []FileSummary
	Total FileSummary
}

// Summarize parses a merged report and totals its statement coverage, sorted by file name.
func Summarize(reportPath string) (*Summary, error) {
	profiles, err := cover.ParseProfiles(reportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse coverage report: %w", err)
	}
	summary := &Summary{Total: FileSummary{File: "total"}}
	for _, profile := range profiles {
		if len(summary.Mode) == 0 {
			summary.Mode = profile.Mode
		}
		fs := FileSummary{File: profile.FileName}
		for _, block := range profile.Blocks {
			fs.Statements += block.NumStmt
			if block.Count > 0 {
				fs.Covered += block.NumStmt
			}
		}
		summary.Total.Statements += fs.Statements
		summary.Total.Covered += fs.Covered
		summary.Files = append(summary.Files, fs)
	}
	sort.Slice(summary.Files, func(i, j int) bool {
		return summary.Files[i].File < summary.Files[j].File
	})
	return summary, nil
}

// WriteSummary renders a [Summary] as a table.
func WriteSummary(w io.Writer, summary *Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Coverage")
	t.AppendHeader(table.Row{"File", "Statements", "Covered", "Coverage"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Statements", Align: text.AlignRight},
		{Name: "Covered", Align: text.AlignRight},
		{Name: "Coverage", Align: text.AlignRight},
	})
	for _, f := range summary.Files {
		t.AppendRow(table.Row{f.File, f.Statements, f.Covered, percent(f.Ratio())})
	}
	t.AppendFooter(table.Row{"Total", summary.Total.Statements, summary.Total.Covered, percent(summary.Total.Ratio())})
	t.SetStyle(table.StyleLight)
	t.Render()
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}
