package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ProjectStatus is the lifecycle status of a video project.
type ProjectStatus string

const (
	StatusUploading  ProjectStatus = "uploading"
	StatusProcessing ProjectStatus = "processing"
	StatusReady      ProjectStatus = "ready"
	StatusExporting  ProjectStatus = "exporting"
)

type VideoProject struct {
	ID               string        `json:"id"`
	UserID           int64         `json:"userId"`
	Name             string        `json:"name"`
	OriginalFileName string        `json:"originalFileName"`
	Duration         int           `json:"duration"` // seconds
	Transcript       Transcript    `json:"transcript"`
	Cuts             Cuts          `json:"cuts"`
	Settings         VideoSettings `json:"settings"`
	Status           ProjectStatus `json:"status"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (p *VideoProject) Clone() *VideoProject {
	c := *p
	c.Transcript = p.Transcript.Clone()
	c.Cuts = append(Cuts{}, p.Cuts...)
	return &c
}

// TranscriptSegment is one timed word of a transcript.
type TranscriptSegment struct {
	Start      float64  `json:"start" validate:"gte=0"`
	End        float64  `json:"end" validate:"gtefield=Start"`
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	IsDeleted  bool     `json:"isDeleted"`
	IsFiller   bool     `json:"isFiller"`
}

// Transcript is the ordered word sequence of a project.
type Transcript []TranscriptSegment

func (t Transcript) Clone() Transcript {
	out := make(Transcript, len(t))
	for i, s := range t {
		out[i] = s
		if s.Confidence != nil {
			c := *s.Confidence
			out[i].Confidence = &c
		}
	}
	return out
}

func (t Transcript) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *Transcript) Scan(src interface{}) error {
	return scanJSON(src, t)
}

// CutType records the origin of a cut.
type CutType string

const (
	CutSilence CutType = "silence"
	CutFiller  CutType = "filler"
	CutManual  CutType = "manual"
)

type CutSegment struct {
	Start float64 `json:"start" validate:"gte=0"`
	End   float64 `json:"end" validate:"gtefield=Start"`
	Type  CutType `json:"type" validate:"oneof=silence filler manual"`
}

type Cuts []CutSegment

func (c Cuts) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *Cuts) Scan(src interface{}) error {
	return scanJSON(src, c)
}

type VideoSettings struct {
	ShowCaptions    bool   `json:"showCaptions"`
	CropMode        string `json:"cropMode" validate:"oneof=16:9 9:16 1:1"`
	CaptionStyle    string `json:"captionStyle" validate:"oneof=youtube tiktok instagram custom"`
	FontSize        int    `json:"fontSize" validate:"gt=0"`
	CaptionPosition string `json:"captionPosition" validate:"oneof=top middle bottom"`
}

// DefaultSettings are applied when a project is created without settings.
func DefaultSettings() VideoSettings {
	return VideoSettings{
		ShowCaptions:    false,
		CropMode:        "16:9",
		CaptionStyle:    "youtube",
		FontSize:        24,
		CaptionPosition: "bottom",
	}
}

func (s VideoSettings) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *VideoSettings) Scan(src interface{}) error {
	return scanJSON(src, s)
}
