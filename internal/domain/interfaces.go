package domain

import "context"

// Engine defines the external OCR collaborator
type Engine interface {
	// Convert OCRs task.InputPath and writes a searchable PDF to task.OutputPath.
	// Failures are DomainErrors typed encrypted, input_file or engine.
	Convert(ctx context.Context, task Task) error
}

// Inspector checks a document before it is handed to the Engine
type Inspector interface {
	Inspect(ctx context.Context, path string) (*DocumentInfo, error)
}

// Prober reads the text layer of a finished output document
type Prober interface {
	Probe(ctx context.Context, path string) (*TextLayer, error)
}

// Progress receives one notification per completed task
type Progress interface {
	Add(n int)
	Finish()
}

// Recorder persists the outcome of a batch run
type Recorder interface {
	RecordRun(ctx context.Context, run *Run, results []Result) error
}
