package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"framegrab/models"
)

func newTable(title string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}
	return tw
}

// renderPairs prints a two-column field/value table.
func renderPairs(title string, pairs [][2]string) string {
	tw := newTable(title)
	tw.AppendHeader(table.Row{"Field", "Value"})
	for _, p := range pairs {
		tw.AppendRow(table.Row{p[0], p[1]})
	}
	return tw.Render()
}

// renderFrames lists a projected frame set, one row per frame.
func renderFrames(title string, frames []models.Frame) string {
	tw := newTable(title)
	tw.AppendHeader(table.Row{"#", "Timestamp", "File", "Lock"})
	for i, f := range frames {
		lock := ""
		if f.IsLocked {
			lock = "locked"
		}
		tw.AppendRow(table.Row{i + 1, f.Timestamp, f.DownloadName(), lock})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})
	return tw.Render()
}
