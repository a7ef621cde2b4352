package flatten

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderSummary renders a per-county row-count table for operator output.
func RenderSummary(rows []Row) string {
	if len(rows) == 0 {
		return ""
	}

	type countyCount struct {
		fips   string
		county string
		rows   int
	}
	counts := map[string]*countyCount{}
	for _, r := range rows {
		c, ok := counts[r.FIPS]
		if !ok {
			c = &countyCount{fips: r.FIPS, county: r.County}
			counts[r.FIPS] = c
		}
		c.rows++
	}

	ordered := make([]*countyCount, 0, len(counts))
	for _, c := range counts {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].fips < ordered[j].fips })

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"FIPS", "County", "Insights"})
	for _, c := range ordered {
		tw.AppendRow(table.Row{c.fips, c.county, c.rows})
	}
	tw.AppendFooter(table.Row{"", "Total", len(rows)})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}
