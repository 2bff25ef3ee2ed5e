package editor

import (
	"math"
	"testing"

	"github.com/video-stream/editor/internal/db/models"
)

func TestDeriveCuts(t *testing.T) {
	tr := sampleTranscript()
	tr[0].IsDeleted = true // um
	tr[2].IsDeleted = true // uh
	tr[3].IsDeleted = true // world

	existing := models.Cuts{
		{Start: 5, End: 6, Type: models.CutSilence},
		{Start: 0, End: 9, Type: models.CutManual}, // stale, replaced
	}
	got := DeriveCuts(tr, existing)
	want := models.Cuts{
		{Start: 0, End: 0.3, Type: models.CutFiller},
		{Start: 0.8, End: 1.6, Type: models.CutManual},
		{Start: 5, End: 6, Type: models.CutSilence},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d cuts %+v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cut %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDeriveCuts_NothingDeleted(t *testing.T) {
	got := DeriveCuts(sampleTranscript(), nil)
	if got == nil || len(got) != 0 {
		t.Errorf("DeriveCuts = %#v, want empty", got)
	}
}

func TestKeptDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		cuts     models.Cuts
		want     float64
	}{
		{"no cuts", 60, nil, 60},
		{"disjoint", 60, models.Cuts{{Start: 1, End: 2}, {Start: 10, End: 13}}, 56},
		{"overlapping", 60, models.Cuts{{Start: 1, End: 5}, {Start: 3, End: 8}}, 53},
		{"past end", 10, models.Cuts{{Start: 8, End: 20}}, 8},
		{"zero duration", 0, models.Cuts{{Start: 0, End: 1}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeptDuration(tt.duration, tt.cuts); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("KeptDuration = %v, want %v", got, tt.want)
			}
		})
	}
}
