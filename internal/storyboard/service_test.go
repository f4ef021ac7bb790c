package storyboard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"storyboard/server/internal/asset"
	"storyboard/server/internal/compose"
	"storyboard/server/internal/model"
)

type fakeClient struct {
	mu        sync.Mutex
	scenes    []model.ParsedScene
	parseErr  error
	failWords []string
	prompts   []string
}

func (f *fakeClient) ParseScript(ctx context.Context, script string) ([]model.ParsedScene, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.scenes, nil
}

func (f *fakeClient) GenerateImages(ctx context.Context, req compose.ImageRequest) ([]model.ImageBlob, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, req.Prompt)
	f.mu.Unlock()
	for _, w := range f.failWords {
		if strings.Contains(req.Prompt, w) {
			return nil, errors.New("image generation failed")
		}
	}
	return []model.ImageBlob{{Data: "aW1n", MimeType: "image/jpeg"}}, nil
}

func newTestService(client ImageClient) *Service {
	mat := asset.NewMaterializer(asset.NewStore(), "k", slog.Default())
	return NewService(client, mat, 2, slog.Default())
}

func threeScenes() []model.ParsedScene {
	return []model.ParsedScene{
		{SceneNumber: 2, Location: "EXT. STREET - NIGHT", Characters: []string{"MARK"}, PromptForImage: "rain-soaked street, broken neon"},
		{SceneNumber: 1, Location: "INT. SPACESHIP - DAY", Characters: []string{"JANE", "MARK"}, PromptForImage: "astronaut at a blinking console"},
		{SceneNumber: 3, Location: "INT. HANGAR - DAY", Characters: nil, PromptForImage: "empty hangar, shafts of light"},
	}
}

func TestGenerateOrdersAndFillsScenes(t *testing.T) {
	client := &fakeClient{scenes: threeScenes()}
	svc := newTestService(client)

	scenes, err := svc.Generate(context.Background(), "SCENE 1 ...", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(scenes) != 3 {
		t.Fatalf("scenes = %d, want 3", len(scenes))
	}
	for i, want := range []int{1, 2, 3} {
		if scenes[i].SceneNumber != want {
			t.Fatalf("scene order = %v", scenes)
		}
	}
	for _, sc := range scenes {
		if sc.IsLoading {
			t.Fatalf("scene %d still loading", sc.SceneNumber)
		}
		if sc.Image == nil || !strings.HasPrefix(sc.Image.Locator, "data:image/jpeg;base64,") {
			t.Fatalf("scene %d image = %+v", sc.SceneNumber, sc.Image)
		}
		if sc.ID == "" {
			t.Fatalf("scene %d has no id", sc.SceneNumber)
		}
	}
}

// One scene failing must not disturb the others.
func TestGeneratePartialFailure(t *testing.T) {
	client := &fakeClient{scenes: threeScenes(), failWords: []string{"neon"}}
	svc := newTestService(client)

	scenes, err := svc.Generate(context.Background(), "SCENE 1 ...", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, sc := range scenes {
		if sc.IsLoading {
			t.Fatalf("scene %d still loading", sc.SceneNumber)
		}
		if sc.SceneNumber == 2 {
			if sc.Image != nil {
				t.Fatalf("failed scene has image")
			}
			continue
		}
		if sc.Image == nil {
			t.Fatalf("scene %d missing image", sc.SceneNumber)
		}
	}
}

func TestGenerateEmptyScript(t *testing.T) {
	svc := newTestService(&fakeClient{})
	if _, err := svc.Generate(context.Background(), "   \n", nil); !errors.Is(err, ErrEmptyScript) {
		t.Fatalf("err = %v, want ErrEmptyScript", err)
	}
}

func TestGenerateNoScenes(t *testing.T) {
	svc := newTestService(&fakeClient{scenes: nil})
	if _, err := svc.Generate(context.Background(), "not a script", nil); !errors.Is(err, ErrNoScenes) {
		t.Fatalf("err = %v, want ErrNoScenes", err)
	}
}

func TestGenerateNotifiesProgress(t *testing.T) {
	client := &fakeClient{scenes: threeScenes()}
	svc := newTestService(client)

	var mu sync.Mutex
	var snapshots [][]model.StoryboardScene
	_, err := svc.Generate(context.Background(), "SCENE 1 ...", func(s []model.StoryboardScene) {
		mu.Lock()
		snapshots = append(snapshots, s)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// One snapshot after the parse, one per settled scene.
	if len(snapshots) != 4 {
		t.Fatalf("snapshots = %d, want 4", len(snapshots))
	}
	first := snapshots[0]
	for _, sc := range first {
		if !sc.IsLoading || sc.Image != nil {
			t.Fatalf("initial snapshot already settled: %+v", sc)
		}
	}
}

func TestExportHTML(t *testing.T) {
	img := model.AssetReference{Locator: "data:image/jpeg;base64,aW1n", Kind: model.MediaImage}
	scenes := []model.StoryboardScene{
		{SceneNumber: 1, Location: "INT. SPACESHIP - DAY", Characters: []string{"JANE", "MARK"}, Prompt: "console", Image: &img},
		{SceneNumber: 2, Location: "EXT. STREET - NIGHT", Prompt: "street", Image: &img},
	}
	out, err := ExportHTML(scenes)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		"<title>Storyboard AI - Saved Storyboard</title>",
		`src="data:image/jpeg;base64,aW1n"`,
		"<h2>Scene 1</h2>",
		`<span class="characters">JANE, MARK</span>`,
		`<p class="location">EXT. STREET - NIGHT</p>`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("export missing %q", want)
		}
	}
	// Scene 2 has no characters; its wrapper is omitted entirely.
	if strings.Count(html, "characters-wrapper") != 1 {
		t.Fatalf("characters wrapper rendered for empty cast")
	}
}

func TestExportHTMLGatedOnImages(t *testing.T) {
	scenes := []model.StoryboardScene{
		{SceneNumber: 1, Prompt: "a", Image: &model.AssetReference{Locator: "data:x"}},
		{SceneNumber: 2, Prompt: "b"},
	}
	if _, err := ExportHTML(scenes); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
	if _, err := ExportHTML(nil); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("empty board err = %v, want ErrIncomplete", err)
	}
}
