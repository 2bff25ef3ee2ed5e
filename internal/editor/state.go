package editor

import (
	"github.com/video-stream/editor/internal/db/models"
)

// Section is the visible stage of the editing flow.
type Section string

const (
	SectionUpload     Section = "upload"
	SectionProcessing Section = "processing"
	SectionEditor     Section = "editor"
)

// State is one editing session: the loaded project, pipeline progress,
// playback and UI flags. Reducers return a new State and leave the receiver
// untouched, so a State can be shared by value.
type State struct {
	Project         *models.VideoProject    `json:"project"`
	Processing      *models.ProcessingState `json:"processing,omitempty"`
	Playback        Playback                `json:"playback"`
	Section         Section                 `json:"section"`
	ShowExportModal bool                    `json:"showExportModal"`
}

func NewState() State {
	return State{Playback: NewPlayback(), Section: SectionUpload}
}

// SetProject loads a project and switches to the editor.
func (s State) SetProject(p *models.VideoProject) State {
	if p == nil {
		s.Project = nil
		return s
	}
	s.Project = p.Clone()
	s.Playback = s.Playback.SetDuration(float64(p.Duration))
	s.Section = SectionEditor
	return s
}

// Resume rebuilds the session for a stored project. latest is the most
// recent pipeline state, if a run exists.
func Resume(p *models.VideoProject, latest *models.ProcessingState) State {
	s := NewState().SetProject(p)
	if p == nil {
		return s
	}
	switch p.Status {
	case models.StatusUploading:
		s.Section = SectionUpload
	case models.StatusProcessing:
		s = s.StartProcessing()
		if latest != nil {
			s = s.ApplyProcessing(*latest)
		}
	}
	return s
}

// StartProcessing enters the processing section.
func (s State) StartProcessing() State {
	s.Section = SectionProcessing
	s.Processing = &models.ProcessingState{Step: models.StepUploading}
	return s
}

// ApplyProcessing records a pipeline state. Reaching ready switches to the
// editor. Progress never moves backwards.
func (s State) ApplyProcessing(ps models.ProcessingState) State {
	if s.Processing != nil && ps.Progress < s.Processing.Progress && ps.Error == "" {
		ps.Progress = s.Processing.Progress
	}
	s.Processing = &ps
	if ps.Step == models.StepReady {
		s.Section = SectionEditor
	}
	return s
}

// ToggleWord flips the deletion flag of one word in the active project. With
// no project or an empty transcript it does nothing.
func (s State) ToggleWord(index int) (State, error) {
	if s.Project == nil || len(s.Project.Transcript) == 0 {
		return s, nil
	}
	t, err := ToggleWordDeletion(s.Project.Transcript, index)
	if err != nil {
		return s, err
	}
	s.Project = s.Project.Clone()
	s.Project.Transcript = t
	return s, nil
}

func (s State) UpdateTranscript(t models.Transcript) State {
	if s.Project == nil {
		return s
	}
	s.Project = s.Project.Clone()
	s.Project.Transcript = UpdateTranscript(t)
	return s
}

func (s State) RestoreAll() State {
	if s.Project == nil {
		return s
	}
	s.Project = s.Project.Clone()
	s.Project.Transcript = RestoreAll(s.Project.Transcript)
	return s
}

func (s State) Stats() Stats {
	if s.Project == nil {
		return Stats{}
	}
	return ComputeStats(s.Project.Transcript)
}

func (s State) ShowExport(show bool) State {
	s.ShowExportModal = show
	return s
}

func (s State) WithPlayback(p Playback) State {
	s.Playback = p
	return s
}
