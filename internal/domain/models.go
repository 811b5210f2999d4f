package domain

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Task is one unit of work: OCR exactly one input document
type Task struct {
	InputPath  string
	OutputPath string
	ForceOCR   bool
	Language   string
}

// Result is the outcome of one Task. It is either a Success or a Failure.
type Result interface {
	Input() string
	Elapsed() time.Duration
	isResult()
}

// Success records a completed conversion
type Success struct {
	InputPath  string
	OutputPath string
	Pages      int // 0 when the output was not probed
	TextChars  int
	Duration   time.Duration
}

func (s Success) Input() string          { return s.InputPath }
func (s Success) Elapsed() time.Duration { return s.Duration }
func (Success) isResult()                {}

// Failure records a conversion that did not produce an output document
type Failure struct {
	InputPath string
	Kind      ErrorType
	Message   string
	Duration  time.Duration
}

func (f Failure) Input() string          { return f.InputPath }
func (f Failure) Elapsed() time.Duration { return f.Duration }
func (Failure) isResult()                {}

// Description formats the failure the way the summary lists it
func (f Failure) Description() string {
	return fmt.Sprintf("- File: %s, Error: %s", filepath.Base(f.InputPath), f.Message)
}

// Summary aggregates the results of one batch run
type Summary struct {
	OutputDir string
	Total     int
	Succeeded int
	Pages     int
	Failures  []Failure
	Duration  time.Duration
}

// Summarize partitions results, preserving their order
func Summarize(outputDir string, results []Result) *Summary {
	s := &Summary{
		OutputDir: outputDir,
		Total:     len(results),
		Failures:  make([]Failure, 0),
	}
	for _, r := range results {
		switch v := r.(type) {
		case Success:
			s.Succeeded++
			s.Pages += v.Pages
		case Failure:
			s.Failures = append(s.Failures, v)
		}
	}
	return s
}

// Failed returns the number of failed tasks
func (s *Summary) Failed() int {
	return len(s.Failures)
}

// AllSucceeded is true when no task failed
func (s *Summary) AllSucceeded() bool {
	return len(s.Failures) == 0
}

// Descriptions returns one line per failure, in submission order
func (s *Summary) Descriptions() []string {
	out := make([]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		out = append(out, f.Description())
	}
	return out
}

// DocumentInfo is what the pre-flight inspection learned about an input
type DocumentInfo struct {
	Path  string
	Pages int
}

// TextLayer describes the searchable text of an output document
type TextLayer struct {
	Pages int
	Chars int
}

// Run identifies one batch execution for the journal
type Run struct {
	ID         uuid.UUID
	InputDir   string
	OutputDir  string
	Language   string
	ForceOCR   bool
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
	Failed     int
}
