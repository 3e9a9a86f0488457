package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column is one table column. Numeric columns are right-aligned.
type column struct {
	title   string
	numeric bool
}

func col(title string) column { return column{title: title} }

func num(title string) column { return column{title: title, numeric: true} }

// listing renders rows under cols with an optional footer line.
type listing struct {
	cols   []column
	rows   []table.Row
	footer table.Row
}

func newListing(cols ...column) *listing {
	return &listing{cols: cols}
}

func (l *listing) add(cells ...string) {
	l.rows = append(l.rows, l.row(cells))
}

func (l *listing) total(cells ...string) {
	l.footer = l.row(cells)
}

func (l *listing) row(cells []string) table.Row {
	r := make(table.Row, len(l.cols))
	for i := range r {
		r[i] = ""
		if i < len(cells) {
			r[i] = cells[i]
		}
	}
	return r
}

func (l *listing) String() string {
	if len(l.cols) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, len(l.cols))
	configs := make([]table.ColumnConfig, len(l.cols))
	for i, c := range l.cols {
		header[i] = c.title
		align := text.AlignLeft
		if c.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignFooter: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.AppendRows(l.rows)
	if l.footer != nil {
		tw.AppendFooter(l.footer)
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
