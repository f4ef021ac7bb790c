package compose

import (
	"testing"

	"storyboard/server/internal/model"
)

func TestCameraPrompt(t *testing.T) {
	tests := []struct {
		name       string
		shot       model.ShotType
		movement   model.CameraMovement
		transition model.TransitionStyle
		want       string
	}{
		{
			name:     "shot and movement, transition none",
			shot:     model.ShotWide,
			movement: model.MovementZoomIn,
			want:     "a wide shot, zoom in: a dog runs",
		},
		{
			name: "all none leaves prompt untouched",
			want: "a dog runs",
		},
		{
			name:       "all three directives",
			shot:       model.ShotCloseUp,
			movement:   model.MovementPanLeft,
			transition: model.TransitionHardCut,
			want:       "a close up, pan left, with a hard cut transition: a dog runs",
		},
		{
			name: "movement only",
			movement: model.MovementTracking,
			want: "tracking shot: a dog runs",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shot, movement, transition := tt.shot, tt.movement, tt.transition
			if shot == "" {
				shot = model.ShotNone
			}
			if movement == "" {
				movement = model.MovementNone
			}
			if transition == "" {
				transition = model.TransitionNone
			}
			got := CameraPrompt("a dog runs", shot, movement, transition)
			if got != tt.want {
				t.Fatalf("CameraPrompt = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrailerWrapsCameraPrompt(t *testing.T) {
	p := Params{
		Prompt:          "a dog runs",
		AdvancedMode:    model.AdvancedModeAssets,
		ShotType:        model.ShotWide,
		CameraMovement:  model.MovementZoomIn,
		Transition:      model.TransitionNone,
		Trailer:         true,
		ReferenceImages: []model.ImageBlob{{Data: "xx", MimeType: "image/png"}},
	}
	req, err := Compose(model.ModeAdvancedVideo, p)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	want := "trailer cut, fast-paced, high-energy: a wide shot, zoom in: a dog runs"
	if req.Video.Prompt != want {
		t.Fatalf("prompt = %q, want %q", req.Video.Prompt, want)
	}
}

func TestStylePrompt(t *testing.T) {
	base := "a city at night"
	if got := StylePrompt(base, false, false); got != base {
		t.Fatalf("no styles: got %q", got)
	}
	if got := StylePrompt(base, true, false); got != "cinematic shot, high detail, realistic physics, a city at night" {
		t.Fatalf("cinematic: got %q", got)
	}
	// Trailer wraps the cinematic-prefixed prompt.
	want := "trailer cut, fast-paced, high-energy, cinematic shot, high detail, realistic physics, a city at night"
	if got := StylePrompt(base, true, true); got != want {
		t.Fatalf("both: got %q, want %q", got, want)
	}
}

func TestThumbnailPrompt(t *testing.T) {
	got := ThumbnailPrompt("a dog runs")
	want := `A cinematic, high-impact thumbnail for a video about: "a dog runs". Epic lighting, bold text style, high contrast.`
	if got != want {
		t.Fatalf("ThumbnailPrompt = %q, want %q", got, want)
	}
}
