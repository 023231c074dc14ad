package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/limaJavier/timetabling-planner/pkg/localsolver"
	"github.com/limaJavier/timetabling-planner/pkg/model"
	"github.com/limaJavier/timetabling-planner/pkg/solver"
	"github.com/limaJavier/timetabling-planner/pkg/variants"

	"github.com/samber/lo"
)

const MB float32 = 1024 * 1024

type ResultType int

const (
	solved ResultType = iota
	partial
	failed
)

var resultTypes = map[ResultType]string{
	solved:  "solved",
	partial: "partial",
	failed:  "failed",
}

// TestMetadata describes one synthetic department
type TestMetadata struct {
	Name        string
	Classes     int
	Sections    int
	Subjects    int
	LabSubjects int
	Teachers    int
	Rooms       int
}

type BenchmarkResult struct {
	Test        TestMetadata
	Concurrency int
	Variants    int
	Produced    int
	Duration    int64
	Memory      float32
	Unfulfilled int
	Utilization float64
	Result      ResultType
}

func main() {
	solverURL := flag.String("url", "", "Base url of a solver service; if empty, the in-process solver is used")
	variantCount := flag.Int("n", 3, "Variants generated per run")
	outFile := flag.String("out", "benchmark_results.csv", "Path to the CSV file with the results")
	flag.Parse()

	var s solver.Solver = localsolver.New(nil)
	if *solverURL != "" {
		s = solver.NewHTTPSolver(*solverURL, 5*time.Minute, nil)
	}

	tests := getTests()
	concurrencies := []int{1, 2, 4}
	results := make([]BenchmarkResult, 0, len(tests)*len(concurrencies))

	for _, test := range tests {
		config := departmentConfig(test)
		for _, concurrency := range concurrencies {
			fmt.Printf("Benchmarking test \"%v\" with %d variant(s) and concurrency %d\n", test.Name, *variantCount, concurrency)
			results = append(results, measure(s, test, config, *variantCount, concurrency))
		}
	}

	file, err := os.Create(*outFile)
	if err != nil {
		log.Fatalf("cannot create CSV file: %v", err)
	}
	defer file.Close()
	if err := toCsv(file, results); err != nil {
		log.Fatalf("cannot write CSV file: %v", err)
	}
}

func getTests() []TestMetadata {
	return []TestMetadata{
		{Name: "small", Classes: 1, Sections: 2, Subjects: 4, LabSubjects: 1, Teachers: 2, Rooms: 2},
		{Name: "medium", Classes: 3, Sections: 2, Subjects: 5, LabSubjects: 2, Teachers: 2, Rooms: 6},
		{Name: "large", Classes: 6, Sections: 3, Subjects: 6, LabSubjects: 2, Teachers: 3, Rooms: 18},
	}
}

// departmentConfig builds a complete configuration of the size described by test. Every class shares the same
// subjects, so rosters are shared between classes as in a real department.
func departmentConfig(test TestMetadata) model.Config {
	config := model.DefaultConfig()

	subjects := lo.Times(test.Subjects, func(i int) string { return fmt.Sprintf("Subject %d", i+1) })
	labs := lo.Times(test.LabSubjects, func(i int) string { return fmt.Sprintf("Lab %d", i+1) })

	config.Classes = lo.Times(test.Classes, func(i int) model.ClassDefinition {
		return model.ClassDefinition{
			Name:        fmt.Sprintf("Year %d", i+1),
			Subjects:    subjects,
			LabSubjects: labs,
			Sections: lo.Times(test.Sections, func(j int) model.Section {
				return model.Section{Name: string(rune('A' + j)), StudentCount: 60}
			}),
		}
	})
	config.Rooms = lo.Times(test.Rooms, func(i int) string { return fmt.Sprintf("R%d", i+1) })

	for _, subject := range subjects {
		config.Teachers[subject] = lo.Times(test.Teachers, func(i int) string { return fmt.Sprintf("%v Teacher %d", subject, i+1) })
		config.LectureRequirements[subject] = model.DefaultLectureRequirement
	}
	for _, lab := range labs {
		config.LabTeachers[lab] = lo.Times(test.Teachers, func(i int) string { return fmt.Sprintf("%v Teacher %d", lab, i+1) })
		config.LabRooms[lab] = lo.Times(2, func(i int) string { return fmt.Sprintf("%v Room %d", lab, i+1) })
	}
	return config
}

func measure(s solver.Solver, test TestMetadata, config model.Config, variantCount, concurrency int) BenchmarkResult {
	orchestrator := variants.NewOrchestrator(s, variants.NewStore(nil, nil), variants.Options{Concurrency: concurrency})

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	start := time.Now()

	batch, err := orchestrator.Generate(context.Background(), model.Snapshot{Config: config}, variantCount)

	duration := time.Since(start).Milliseconds()
	runtime.ReadMemStats(&after)

	result := BenchmarkResult{
		Test:        test,
		Concurrency: concurrency,
		Variants:    variantCount,
		Produced:    len(batch.Variants),
		Duration:    duration,
		Memory:      float32(after.TotalAlloc-before.TotalAlloc) / MB,
		Result:      failed,
	}
	if err != nil {
		log.Printf("test \"%v\" failed: %v", test.Name, err)
		return result
	}

	result.Unfulfilled = lo.SumBy(batch.Variants, unfulfilledLectures)
	result.Utilization = lo.SumBy(batch.Variants, func(variant model.Variant) float64 {
		return variant.Statistics.UtilizationPercentage
	}) / float64(len(batch.Variants))
	result.Result = lo.Ternary(result.Unfulfilled == 0 && len(batch.Errors) == 0, solved, partial)
	return result
}

func unfulfilledLectures(variant model.Variant) int {
	total := 0
	for _, subjects := range variant.Unfulfilled {
		for _, lectures := range subjects {
			total += lectures
		}
	}
	return total
}

func toCsv(w io.Writer, results []BenchmarkResult) error {
	writer := csv.NewWriter(w)

	header := []string{"Test", "Classes", "Sections", "Subjects", "Labs", "Teachers", "Rooms", "Concurrency", "Variants", "Produced", "Duration(ms)", "Memory(MB)", "Unfulfilled", "Utilization(%)", "Result"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}

	for _, result := range results {
		record := []string{
			result.Test.Name,
			fmt.Sprintf("%d", result.Test.Classes),
			fmt.Sprintf("%d", result.Test.Sections),
			fmt.Sprintf("%d", result.Test.Subjects),
			fmt.Sprintf("%d", result.Test.LabSubjects),
			fmt.Sprintf("%d", result.Test.Teachers),
			fmt.Sprintf("%d", result.Test.Rooms),
			fmt.Sprintf("%d", result.Concurrency),
			fmt.Sprintf("%d", result.Variants),
			fmt.Sprintf("%d", result.Produced),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.Unfulfilled),
			fmt.Sprintf("%.1f", result.Utilization),
			resultTypes[result.Result],
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("cannot write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
