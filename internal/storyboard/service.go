package storyboard

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"storyboard/server/internal/asset"
	"storyboard/server/internal/compose"
	"storyboard/server/internal/model"
	"storyboard/server/internal/provider"

	"github.com/google/uuid"
)

var (
	ErrEmptyScript = errors.New("Please enter a script.")
	ErrNoScenes    = errors.New("The AI could not identify any scenes in your script. Please check the formatting.")
)

const defaultSceneWorkers = 4

// sceneAspect is fixed for storyboard panels.
const sceneAspect = model.ImageAspectWide

// ImageClient is the slice of the generation client the storyboard
// flow needs.
type ImageClient interface {
	GenerateImages(ctx context.Context, req compose.ImageRequest) ([]model.ImageBlob, error)
	ParseScript(ctx context.Context, script string) ([]model.ParsedScene, error)
}

// Service turns a script into an illustrated storyboard: one
// schema-constrained parse, then one image per scene, generated in
// parallel under a worker cap. A scene whose image fails stays in the
// board without a panel; the rest are unaffected.
type Service struct {
	client  ImageClient
	mat     *asset.Materializer
	workers int
	log     *slog.Logger
}

func NewService(client ImageClient, mat *asset.Materializer, workers int, logger *slog.Logger) *Service {
	if workers < 1 {
		workers = defaultSceneWorkers
	}
	return &Service{client: client, mat: mat, workers: workers, log: logger}
}

// Generate parses the script and fills in scene images. onUpdate, when
// set, receives a snapshot of the full board after the parse and after
// every scene settles; each snapshot is a fresh copy.
func (s *Service) Generate(ctx context.Context, script string, onUpdate func([]model.StoryboardScene)) ([]model.StoryboardScene, error) {
	if strings.TrimSpace(script) == "" {
		return nil, ErrEmptyScript
	}
	parsed, err := s.client.ParseScript(ctx, script)
	if err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return nil, ErrNoScenes
	}

	scenes := make([]model.StoryboardScene, 0, len(parsed))
	for _, p := range parsed {
		scenes = append(scenes, model.StoryboardScene{
			ID:          uuid.NewString(),
			SceneNumber: p.SceneNumber,
			Location:    p.Location,
			Characters:  p.Characters,
			Prompt:      p.PromptForImage,
			IsLoading:   true,
		})
	}
	sort.SliceStable(scenes, func(i, j int) bool { return scenes[i].SceneNumber < scenes[j].SceneNumber })

	var mu sync.Mutex
	notify := func() {
		if onUpdate == nil {
			return
		}
		onUpdate(append([]model.StoryboardScene(nil), scenes...))
	}
	notify()

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i := range scenes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			ref, err := s.sceneImage(ctx, scenes[i].Prompt)
			mu.Lock()
			if err != nil {
				s.log.Error("scene_image_failed", "scene", scenes[i].SceneNumber, "error", err)
			} else {
				scenes[i].Image = &ref
			}
			scenes[i].IsLoading = false
			notify()
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	return append([]model.StoryboardScene(nil), scenes...), nil
}

func (s *Service) sceneImage(ctx context.Context, prompt string) (model.AssetReference, error) {
	req, err := compose.Compose(model.ModeImage, compose.Params{
		Prompt:           prompt,
		ImageAspectRatio: sceneAspect,
		Count:            1,
	})
	if err != nil {
		return model.AssetReference{}, err
	}
	blobs, err := s.client.GenerateImages(ctx, *req.Image)
	if err != nil {
		return model.AssetReference{}, err
	}
	if len(blobs) == 0 {
		return model.AssetReference{}, &provider.Error{Op: "storyboard", Message: "image generation failed to produce images"}
	}
	return s.mat.Image(blobs[0]), nil
}
