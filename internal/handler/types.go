package handler

// Stage names one step of the per-batch pipeline.
type Stage string

const (
	StagePreprocess  Stage = "preprocess"
	StageInference   Stage = "inference"
	StagePostprocess Stage = "postprocess"
)

// Metric names recorded for each stage.
const (
	MetricPreprocessTime  = "PreprocessTime"
	MetricInferenceTime   = "InferenceTime"
	MetricPostprocessTime = "PostprocessTime"
)

// Phase is the lifecycle position of a handler instance.
type Phase string

const (
	PhaseUninitialized  Phase = "uninitialized"
	PhaseReady          Phase = "ready"
	PhasePreprocessing  Phase = "preprocessing"
	PhaseInferring      Phase = "inferring"
	PhasePostprocessing Phase = "postprocessing"
	PhaseError          Phase = "error"
)

func (s Stage) phase() Phase {
	switch s {
	case StagePreprocess:
		return PhasePreprocessing
	case StageInference:
		return PhaseInferring
	case StagePostprocess:
		return PhasePostprocessing
	}
	return PhaseReady
}

// State is a read-only snapshot of a handler instance.
type State struct {
	Phase       Phase
	Initialized bool
	BatchSize   int
	// LastError is the text of the error raised by the most recent Handle, or empty.
	LastError string
}
