package storyboard

import (
	"bytes"
	"errors"
	"html/template"
	"strings"

	"storyboard/server/internal/model"
)

// ErrIncomplete gates export on a finished board.
var ErrIncomplete = errors.New("Waiting for all images to generate before saving...")

// panel is the template's view of a scene. The image is a data URI, so
// it is pre-vetted here instead of letting the template's URL filter
// reject the scheme.
type panel struct {
	SceneNumber int
	Location    string
	Characters  string
	Prompt      string
	Image       template.URL
}

var exportTmpl = template.Must(template.New("storyboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Storyboard AI - Saved Storyboard</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background-color: #111827; color: #f3f4f6; margin: 0; padding: 2rem; }
        h1 { text-align: center; color: #d1d5db; border-bottom: 1px solid #374151; padding-bottom: 1rem; margin-bottom: 2rem; }
        .storyboard { display: grid; grid-template-columns: repeat(auto-fill, minmax(350px, 1fr)); gap: 2rem; }
        .panel { background-color: #1f2937; border: 1px solid #374151; border-radius: 0.5rem; overflow: hidden; display: flex; flex-direction: column; }
        .panel img { width: 100%; height: auto; display: block; background-color: #111827; aspect-ratio: 16/9; object-fit: cover; }
        .panel-details { padding: 1rem; flex-grow: 1; display: flex; flex-direction: column; }
        .panel h2 { margin: 0 0 0.5rem; font-size: 1.125rem; color: #e5e7eb; }
        .panel .location { font-family: monospace; font-size: 0.875rem; color: #9ca3af; margin-bottom: 0.5rem; }
        .panel .characters-wrapper { margin-bottom: 1rem; }
        .panel .characters-title { font-size: 0.875rem; font-weight: 600; color: #d1d5db; }
        .panel .characters { font-size: 0.875rem; color: #a78bfa; }
        .panel .prompt { font-size: 0.875rem; color: #d1d5db; background-color: #374151; padding: 0.75rem; border-radius: 0.25rem; line-height: 1.5; margin-top: auto; }
    </style>
</head>
<body>
    <h1>Storyboard</h1>
    <div class="storyboard">
{{- range .}}
        <div class="panel">
            <img src="{{.Image}}" alt="Scene {{.SceneNumber}}">
            <div class="panel-details">
                <div>
                    <h2>Scene {{.SceneNumber}}</h2>
                    <p class="location">{{.Location}}</p>
                    {{- if .Characters}}
                    <div class="characters-wrapper"><span class="characters-title">Characters:</span> <span class="characters">{{.Characters}}</span></div>
                    {{- end}}
                </div>
                <p class="prompt">{{.Prompt}}</p>
            </div>
        </div>
{{- end}}
    </div>
</body>
</html>
`))

// ExportHTML renders the finished board as a standalone page. Every
// scene must already carry an image.
func ExportHTML(scenes []model.StoryboardScene) ([]byte, error) {
	if len(scenes) == 0 {
		return nil, ErrIncomplete
	}
	panels := make([]panel, 0, len(scenes))
	for _, sc := range scenes {
		if sc.Image == nil || sc.Image.Locator == "" {
			return nil, ErrIncomplete
		}
		panels = append(panels, panel{
			SceneNumber: sc.SceneNumber,
			Location:    sc.Location,
			Characters:  strings.Join(sc.Characters, ", "),
			Prompt:      sc.Prompt,
			Image:       template.URL(sc.Image.Locator),
		})
	}
	var buf bytes.Buffer
	if err := exportTmpl.Execute(&buf, panels); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
