package compose

import (
	"fmt"
	"strings"

	"storyboard/server/internal/model"
)

// Fixed style clauses. Camera directives are applied first, then the
// trailer clause wraps the already-camera-prefixed prompt.
const (
	TrailerPrefix   = "trailer cut, fast-paced, high-energy"
	CinematicPrefix = "cinematic shot, high detail, realistic physics"
)

// CameraPrompt converts the symbolic camera directives into natural
// language and prepends them as a single comma-joined clause followed
// by a colon. Directives set to "none" are omitted; with no directives
// the base prompt is returned unchanged.
func CameraPrompt(base string, shot model.ShotType, movement model.CameraMovement, transition model.TransitionStyle) string {
	var directives []string
	if shot != model.ShotNone && shot != "" {
		directives = append(directives, "a "+spell(string(shot)))
	}
	if movement != model.MovementNone && movement != "" {
		directives = append(directives, spell(string(movement)))
	}
	if transition != model.TransitionNone && transition != "" {
		directives = append(directives, "with a "+spell(string(transition))+" transition")
	}
	if len(directives) == 0 {
		return base
	}
	return strings.Join(directives, ", ") + ": " + base
}

// StylePrompt applies the plain-video style toggles. Cinematic is
// prepended first so that the trailer clause, when enabled, wraps it.
func StylePrompt(base string, cinematic, trailer bool) string {
	if cinematic {
		base = CinematicPrefix + ", " + base
	}
	if trailer {
		base = TrailerPrefix + ", " + base
	}
	return base
}

// ThumbnailPrompt builds the synthesized thumbnail prompt around the
// original prompt rather than composing via prefixes.
func ThumbnailPrompt(prompt string) string {
	return fmt.Sprintf("A cinematic, high-impact thumbnail for a video about: %q. Epic lighting, bold text style, high contrast.", prompt)
}

// spell turns a hyphenated directive token into its spoken form. Only
// the first hyphen separates words; later ones are part of the phrase
// ("extreme-close-up" reads as "extreme close-up").
func spell(token string) string {
	return strings.Replace(token, "-", " ", 1)
}
