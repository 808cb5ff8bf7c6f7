package churn

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/scrapegoat/internal/dom"
	"github.com/GriffinCanCode/scrapegoat/internal/record"
)

// Table converts each selected <table> into one record per data row.
// The first row supplies the column names; later rows are matched to
// them by cell position, with missing cells left empty. Rows of nested
// tables belong to the nested table. Other elements are skipped.
func (e *Extractor) Table(sel []dom.Node) []record.Record {
	var records []record.Record
	for _, n := range sel {
		if n.Tag() != "table" {
			e.log.Debug("skipping non-table element", zap.String("tag", n.Tag()))
			continue
		}
		rows := tableRows(n)
		if len(rows) == 0 {
			continue
		}
		headers := columnNames(cells(rows[0]))
		for _, row := range rows[1:] {
			values := cells(row)
			var r record.Record
			for i, h := range headers {
				var v string
				if i < len(values) {
					v = values[i].Text()
				}
				r.Set(h, v)
			}
			records = append(records, r)
		}
	}
	return records
}

func tableRows(table dom.Node) []dom.Node {
	var rows []dom.Node
	table.Descendants(func(n dom.Node) bool {
		if n.Tag() == "tr" && owner(n) == table.Index() {
			rows = append(rows, n)
		}
		return true
	})
	return rows
}

// owner is the index of the closest enclosing table.
func owner(n dom.Node) int {
	for p, ok := n.Parent(); ok; p, ok = p.Parent() {
		if p.Tag() == "table" {
			return p.Index()
		}
	}
	return -1
}

func cells(row dom.Node) []dom.Node {
	var out []dom.Node
	for _, c := range row.Children() {
		if c.Tag() == "td" || c.Tag() == "th" {
			out = append(out, c)
		}
	}
	return out
}

// columnNames uses each header cell's text. Blank headers become
// column_<n> and repeats get a _<k> suffix so no column is lost.
func columnNames(header []dom.Node) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, c := range header {
		name := c.Text()
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		if k := seen[name]; k > 0 {
			seen[name] = k + 1
			name += "_" + strconv.Itoa(k+1)
		}
		seen[name]++
		names[i] = name
	}
	return names
}
