package present

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/limaJavier/timetabling-planner/pkg/model"
)

// Markers printed for cells without lectures
const (
	EmptyMarker = "FREE"
	LunchMarker = "LUNCH"
)

// Render prints one table per section with a row per day and a column per slot
func Render(w io.Writer, grouping Grouping) error {
	table := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for i, section := range grouping.Sections {
		if i > 0 {
			fmt.Fprintln(table)
		}
		fmt.Fprintf(table, "== %v ==\n", section.Section)
		fmt.Fprintf(table, "Day\t%v\t\n", strings.Join(grouping.Slots, "\t"))

		for _, day := range section.Days {
			row := make([]string, 0, len(day.Cells)+1)
			row = append(row, day.Day)
			for _, cell := range day.Cells {
				row = append(row, CellText(cell))
			}
			fmt.Fprintf(table, "%v\t\n", strings.Join(row, "\t"))
		}
	}

	return table.Flush()
}

// CellText is the single-line rendition of a cell: workshops first, then labs, then theory lectures
func CellText(cell Cell) string {
	switch cell.Kind {
	case CellLunch:
		return LunchMarker
	case CellEmpty:
		return EmptyMarker
	}

	parts := make([]string, 0, len(cell.Entries))
	for _, entry := range cell.Workshops {
		parts = append(parts, entryText(entry))
	}
	for _, entry := range cell.Labs {
		parts = append(parts, entryText(entry))
	}
	for _, entry := range cell.Theory {
		parts = append(parts, entryText(entry))
	}
	return strings.Join(parts, " | ")
}

func entryText(entry model.ScheduleEntry) string {
	var builder strings.Builder
	builder.WriteString(entry.Subject)
	if entry.Group != "" {
		fmt.Fprintf(&builder, " [%v]", entry.Group)
	}

	details := make([]string, 0, 2)
	if entry.Teacher != "" {
		details = append(details, entry.Teacher)
	}
	if entry.Room != "" {
		details = append(details, entry.Room)
	}
	if len(details) > 0 {
		fmt.Fprintf(&builder, " (%v)", strings.Join(details, ", "))
	}

	if entry.Moved {
		fmt.Fprintf(&builder, " (moved from %v)", entry.MovedFrom)
	}
	return builder.String()
}
