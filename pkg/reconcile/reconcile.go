package reconcile

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/limaJavier/timetabling-planner/pkg/model"

	"github.com/samber/lo"
)

// MapKind identifies one of the derived maps whose keys follow a canonical set
type MapKind int

const (
	TeacherRoster MapKind = iota
	LabTeacherRoster
	LabRoomAssignment
	LectureRequirements
)

var mapKinds = map[MapKind]string{
	TeacherRoster:       "teachers",
	LabTeacherRoster:    "lab_teachers",
	LabRoomAssignment:   "lab_rooms",
	LectureRequirements: "lecture_requirements",
}

func (kind MapKind) String() string { return mapKinds[kind] }

type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
)

// Change is one key to add to or remove from a derived map
type Change struct {
	Map  MapKind
	Kind ChangeKind
	Key  string
}

func (change Change) String() string {
	return fmt.Sprintf("%v%v%v", change.Map, lo.Ternary(change.Kind == Added, " +", " -"), change.Key)
}

// DerivedMaps are the configuration maps keyed by canonical subject names
type DerivedMaps struct {
	Teachers            map[string][]string
	LabTeachers         map[string][]string
	LabRooms            map[string][]string
	LectureRequirements map[string]int
}

func FromConfig(config model.Config) DerivedMaps {
	return DerivedMaps{
		Teachers:            config.Teachers,
		LabTeachers:         config.LabTeachers,
		LabRooms:            config.LabRooms,
		LectureRequirements: config.LectureRequirements,
	}
}

func (derived DerivedMaps) ApplyTo(config *model.Config) {
	config.Teachers = derived.Teachers
	config.LabTeachers = derived.LabTeachers
	config.LabRooms = derived.LabRooms
	config.LectureRequirements = derived.LectureRequirements
}

// Plan lists the changes that bring the keys of existing in line with sets: theory subjects key the
// teacher roster and lecture requirements, lab subjects key the lab roster and lab rooms.
// Changes are ordered by map, then kind, then key.
func Plan(sets CanonicalSets, existing DerivedMaps) []Change {
	changes := make([]Change, 0)
	changes = append(changes, diff(TeacherRoster, sets.Theory, existing.Teachers)...)
	changes = append(changes, diff(LabTeacherRoster, sets.Lab, existing.LabTeachers)...)
	changes = append(changes, diff(LabRoomAssignment, sets.Lab, existing.LabRooms)...)
	changes = append(changes, diff(LectureRequirements, sets.Theory, existing.LectureRequirements)...)
	return changes
}

// Apply builds the derived maps resulting from changes. Maps without changes are returned as they are,
// maps with changes are rebuilt as new maps sharing every untouched value with existing.
func Apply(existing DerivedMaps, changes []Change) DerivedMaps {
	byMap := lo.GroupBy(changes, func(change Change) MapKind { return change.Map })

	return DerivedMaps{
		Teachers:            apply(existing.Teachers, byMap[TeacherRoster], newRoster),
		LabTeachers:         apply(existing.LabTeachers, byMap[LabTeacherRoster], newRoster),
		LabRooms:            apply(existing.LabRooms, byMap[LabRoomAssignment], newRoomSelection),
		LectureRequirements: apply(existing.LectureRequirements, byMap[LectureRequirements], newLectureRequirement),
	}
}

// Reconcile adds an entry for every canonical subject missing from existing and deletes every entry
// whose subject is no longer canonical. Values of removed subjects are lost.
func Reconcile(sets CanonicalSets, existing DerivedMaps) DerivedMaps {
	return Apply(existing, Plan(sets, existing))
}

func newRoster() []string { return []string{""} }

func newRoomSelection() []string { return []string{} }

func newLectureRequirement() int { return model.DefaultLectureRequirement }

func diff[V any](kind MapKind, keys []string, existing map[string]V) []Change {
	canonical := lo.Keyify(keys)

	added := lo.Filter(keys, func(key string, _ int) bool {
		_, ok := existing[key]
		return !ok
	})
	removed := lo.Filter(lo.Keys(existing), func(key string, _ int) bool {
		_, ok := canonical[key]
		return !ok
	})

	changes := make([]Change, 0, len(added)+len(removed))
	for _, key := range added {
		changes = append(changes, Change{Map: kind, Kind: Added, Key: key})
	}
	for _, key := range removed {
		changes = append(changes, Change{Map: kind, Kind: Removed, Key: key})
	}
	slices.SortFunc(changes, func(a, b Change) int {
		return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.Key, b.Key))
	})
	return changes
}

func apply[V any](existing map[string]V, changes []Change, fresh func() V) map[string]V {
	if len(changes) == 0 {
		if existing == nil {
			return make(map[string]V)
		}
		return existing
	}

	next := maps.Clone(existing)
	if next == nil {
		next = make(map[string]V, len(changes))
	}
	for _, change := range changes {
		switch change.Kind {
		case Added:
			next[change.Key] = fresh()
		case Removed:
			delete(next, change.Key)
		}
	}
	return next
}
