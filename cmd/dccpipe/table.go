package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"dccpipe/internal/project"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderTree draws the project outline as an indented list.
func renderTree(tree project.Tree) string {
	lw := list.NewWriter()
	lw.SetStyle(list.StyleConnectedRounded)

	lw.AppendItem(tree.Project)
	lw.Indent()
	lw.AppendItem("Shots")
	lw.Indent()
	for _, shot := range tree.Shots {
		lw.AppendItem(fmt.Sprintf("%s [%d-%d]", shot.Name, shot.Start, shot.End))
	}
	lw.UnIndent()
	lw.AppendItem("Renders")
	lw.Indent()
	for _, version := range tree.Renders {
		label := version.ID
		if version.Shot != "" {
			label += " " + version.Shot
		}
		lw.AppendItem(fmt.Sprintf("%s (%s) frames: %s", label, version.Renderer, formatFrames(version.Frames)))
	}
	return lw.Render()
}

// formatFrames collapses consecutive frames into ranges: 1-3,7,9-10.
func formatFrames(frames []int) string {
	if len(frames) == 0 {
		return "none"
	}
	var parts []string
	start, prev := frames[0], frames[0]
	flush := func() {
		if start == prev {
			parts = append(parts, fmt.Sprint(start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for _, frame := range frames[1:] {
		if frame == prev+1 {
			prev = frame
			continue
		}
		flush()
		start, prev = frame, frame
	}
	flush()
	return strings.Join(parts, ",")
}
