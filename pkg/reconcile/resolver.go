package reconcile

import (
	"slices"
	"strings"

	"github.com/limaJavier/timetabling-planner/pkg/model"

	"github.com/samber/lo"
)

// CanonicalSets holds the deduplicated, non-blank subject names referenced by any class
type CanonicalSets struct {
	Theory []string
	Lab    []string
}

// Resolve computes the canonical theory and lab subject sets of classes. Both sets are sorted so
// that the result depends only on the set of names, never on the order classes were edited in.
func Resolve(classes []model.ClassDefinition) CanonicalSets {
	theory := lo.FlatMap(classes, func(class model.ClassDefinition, _ int) []string { return class.Subjects })
	lab := lo.FlatMap(classes, func(class model.ClassDefinition, _ int) []string { return class.LabSubjects })

	return CanonicalSets{
		Theory: canonical(theory),
		Lab:    canonical(lab),
	}
}

// Teachers returns every teacher named in the theory and lab rosters of config
func Teachers(config model.Config) []string {
	names := make([]string, 0)
	for _, roster := range []map[string][]string{config.Teachers, config.LabTeachers} {
		for _, teachers := range roster {
			names = append(names, teachers...)
		}
	}
	return canonical(names)
}

// canonical trims names before deduplicating them, so "OS" and "OS " name the same subject
func canonical(names []string) []string {
	set := lo.Uniq(lo.Compact(lo.Map(names, func(name string, _ int) string {
		return strings.TrimSpace(name)
	})))
	slices.Sort(set)
	return set
}
