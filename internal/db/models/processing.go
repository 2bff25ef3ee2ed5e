package models

// ProcessingStep is a stage of the media pipeline.
type ProcessingStep string

const (
	StepUploading    ProcessingStep = "uploading"
	StepExtracting   ProcessingStep = "extracting"
	StepTranscribing ProcessingStep = "transcribing"
	StepCleaning     ProcessingStep = "cleaning"
	StepReady        ProcessingStep = "ready"
)

// ProcessingState is the transient progress of a pipeline run. It is never
// persisted; only the resulting transcript, cuts and status are.
type ProcessingState struct {
	Step     ProcessingStep `json:"step"`
	Progress int            `json:"progress"` // 0-100
	Message  string         `json:"message"`
	Error    string         `json:"error,omitempty"`
}

// Terminal reports whether no further states follow this one.
func (s ProcessingState) Terminal() bool {
	return s.Step == StepReady || s.Error != ""
}
