package present

import (
	"slices"

	"github.com/limaJavier/timetabling-planner/pkg/model"

	"github.com/samber/lo"
)

type CellKind int

const (
	// CellEmpty is a teaching slot without entries
	CellEmpty CellKind = iota
	// CellLunch is any slot named "Lunch Break", whatever it holds
	CellLunch
	CellFilled
)

var cellKinds = map[CellKind]string{
	CellEmpty:  "empty",
	CellLunch:  "lunch",
	CellFilled: "filled",
}

func (kind CellKind) String() string { return cellKinds[kind] }

// Cell holds the entries of one (section, day, slot). Entries keeps the input order; Workshops, Labs and Theory
// partition it.
type Cell struct {
	Slot      string
	Kind      CellKind
	Entries   []model.ScheduleEntry
	Workshops []model.ScheduleEntry
	Labs      []model.ScheduleEntry
	Theory    []model.ScheduleEntry
}

type DaySchedule struct {
	Day   string
	Cells []Cell
}

type SectionSchedule struct {
	Section string
	Days    []DaySchedule
}

// Grouping is a complete section -> day -> slot grid: every section has every day, every day has every slot
type Grouping struct {
	Days     []string
	Slots    []string
	Sections []SectionSchedule
}

// Group arranges entries for display. Sections, days and slots follow the order of config; values that only appear
// in entries are appended in first-seen order.
func Group(entries []model.ScheduleEntry, config model.Config) Grouping {
	sections := config.Sections()
	labs := make(map[string][]string)
	for _, section := range sections {
		labs[section.Name] = section.LabSubjects
	}

	sectionNames := extend(lo.Map(sections, func(section model.FlatSection, _ int) string { return section.Name }), entries,
		func(entry model.ScheduleEntry) string { return entry.Section })
	days := extend(config.Days, entries, func(entry model.ScheduleEntry) string { return entry.Day })
	slots := extend(config.Slots, entries, func(entry model.ScheduleEntry) string { return entry.Slot })

	cells := lo.GroupBy(entries, func(entry model.ScheduleEntry) [3]string {
		return [3]string{entry.Section, entry.Day, entry.Slot}
	})

	grouping := Grouping{Days: days, Slots: slots, Sections: make([]SectionSchedule, 0, len(sectionNames))}
	for _, section := range sectionNames {
		schedule := SectionSchedule{Section: section, Days: make([]DaySchedule, 0, len(days))}
		for _, day := range days {
			daySchedule := DaySchedule{Day: day, Cells: make([]Cell, 0, len(slots))}
			for _, slot := range slots {
				daySchedule.Cells = append(daySchedule.Cells, classify(slot, cells[[3]string{section, day, slot}], labs[section]))
			}
			schedule.Days = append(schedule.Days, daySchedule)
		}
		grouping.Sections = append(grouping.Sections, schedule)
	}
	return grouping
}

func classify(slot string, entries []model.ScheduleEntry, labs []string) Cell {
	cell := Cell{
		Slot:      slot,
		Entries:   entries,
		Workshops: []model.ScheduleEntry{},
		Labs:      []model.ScheduleEntry{},
		Theory:    []model.ScheduleEntry{},
	}
	if cell.Entries == nil {
		cell.Entries = []model.ScheduleEntry{}
	}

	switch {
	case slot == model.LunchBreak:
		cell.Kind = CellLunch
	case len(entries) == 0:
		cell.Kind = CellEmpty
	default:
		cell.Kind = CellFilled
	}

	for _, entry := range entries {
		switch {
		case entry.Subject == model.Workshop:
			cell.Workshops = append(cell.Workshops, entry)
		case slices.Contains(labs, entry.Subject):
			cell.Labs = append(cell.Labs, entry)
		default:
			cell.Theory = append(cell.Theory, entry)
		}
	}
	return cell
}

// extend appends to known the values of entries missing from it, in first-seen order
func extend(known []string, entries []model.ScheduleEntry, value func(model.ScheduleEntry) string) []string {
	values := slices.Clone(known)
	for _, entry := range entries {
		if v := value(entry); !slices.Contains(values, v) {
			values = append(values, v)
		}
	}
	return values
}
