package compose

import (
	"errors"
	"testing"

	"storyboard/server/internal/model"
)

func blob(data string) model.ImageBlob {
	return model.ImageBlob{Data: data, MimeType: "image/png"}
}

func blobPtr(data string) *model.ImageBlob {
	b := blob(data)
	return &b
}

func TestComposeImageRequiresPrompt(t *testing.T) {
	_, err := Compose(model.ModeImage, Params{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestComposeImageDefaults(t *testing.T) {
	req, err := Compose(model.ModeImage, Params{Prompt: "a fox"})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if req.Image == nil || req.Video != nil || req.Search != nil {
		t.Fatalf("want image variant only, got %+v", req)
	}
	if req.Image.AspectRatio != model.ImageAspectSquare || req.Image.Count != 1 {
		t.Fatalf("defaults = %+v", req.Image)
	}
}

func TestComposeVariationsDefaultCount(t *testing.T) {
	req, err := ComposeVariations(Params{Prompt: "a fox", ImageAspectRatio: model.ImageAspectWide})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if req.Image.Count != 4 {
		t.Fatalf("count = %d, want 4", req.Image.Count)
	}
}

func TestComposeThumbnailFixedAspect(t *testing.T) {
	req, err := ComposeThumbnail("a fox")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if req.Image.AspectRatio != model.ImageAspectWide {
		t.Fatalf("aspect = %q, want 16:9", req.Image.AspectRatio)
	}
	if req.Image.Prompt == "a fox" {
		t.Fatalf("thumbnail prompt must be synthesized, got base prompt")
	}
}

// Every valid video variant must carry exactly the source its mode
// implies: nil for plain video, exactly one variant otherwise.
func TestVideoSourceVariants(t *testing.T) {
	plain, err := Compose(model.ModeVideo, Params{Prompt: "waves"})
	if err != nil {
		t.Fatalf("plain video: %v", err)
	}
	if plain.Video.Source != nil {
		t.Fatalf("plain video must not carry a source")
	}

	animate, err := Compose(model.ModeAnimate, Params{SourceImage: blobPtr("img")})
	if err != nil {
		t.Fatalf("animate: %v", err)
	}
	if _, ok := animate.Video.Source.(SourceImage); !ok {
		t.Fatalf("animate source = %T, want SourceImage", animate.Video.Source)
	}

	frames, err := Compose(model.ModeAdvancedVideo, Params{
		AdvancedMode: model.AdvancedModeFrames,
		StartFrame:   blobPtr("s"),
		EndFrame:     blobPtr("e"),
	})
	if err != nil {
		t.Fatalf("frames: %v", err)
	}
	if _, ok := frames.Video.Source.(FramePair); !ok {
		t.Fatalf("frames source = %T, want FramePair", frames.Video.Source)
	}

	assets, err := Compose(model.ModeAdvancedVideo, Params{
		Prompt:          "robot walks",
		AdvancedMode:    model.AdvancedModeAssets,
		ReferenceImages: []model.ImageBlob{blob("r1"), blob("r2")},
	})
	if err != nil {
		t.Fatalf("assets: %v", err)
	}
	if _, ok := assets.Video.Source.(ReferenceAssets); !ok {
		t.Fatalf("assets source = %T, want ReferenceAssets", assets.Video.Source)
	}
}

// The toggle, not the populated fields, selects the sub-mode.
func TestAdvancedModeHonorsToggle(t *testing.T) {
	p := Params{
		Prompt:          "robot walks",
		AdvancedMode:    model.AdvancedModeFrames,
		StartFrame:      blobPtr("s"),
		EndFrame:        blobPtr("e"),
		ReferenceImages: []model.ImageBlob{blob("r1")},
	}
	req, err := Compose(model.ModeAdvancedVideo, p)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if _, ok := req.Video.Source.(FramePair); !ok {
		t.Fatalf("source = %T, want FramePair despite populated reference images", req.Video.Source)
	}
}

func TestReferenceAssetsPinConstraints(t *testing.T) {
	req, err := Compose(model.ModeAdvancedVideo, Params{
		Prompt:          "robot walks",
		AdvancedMode:    model.AdvancedModeAssets,
		AspectRatio:     model.Aspect9x16,
		Resolution:      model.Resolution1080p,
		ReferenceImages: []model.ImageBlob{blob("r1")},
	})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if req.Video.AspectRatio != model.Aspect16x9 || req.Video.Resolution != model.Resolution720p {
		t.Fatalf("constraints not pinned: %q / %q", req.Video.AspectRatio, req.Video.Resolution)
	}
}

func TestAdvancedValidation(t *testing.T) {
	if _, err := Compose(model.ModeAdvancedVideo, Params{Prompt: "x", AdvancedMode: model.AdvancedModeAssets}); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero reference assets: err = %v, want ErrValidation", err)
	}
	if _, err := Compose(model.ModeAdvancedVideo, Params{AdvancedMode: model.AdvancedModeFrames, StartFrame: blobPtr("s")}); !errors.Is(err, ErrValidation) {
		t.Fatalf("incomplete frame pair: err = %v, want ErrValidation", err)
	}
	if _, err := Compose(model.ModeAnimate, Params{Prompt: "x"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("animate without image: err = %v, want ErrValidation", err)
	}
}

func TestComposeSearchValidation(t *testing.T) {
	if _, err := Compose(model.ModeSearch, Params{SearchImages: []model.ImageBlob{blob("a")}}); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty query: err = %v, want ErrValidation", err)
	}
	if _, err := Compose(model.ModeSearch, Params{Prompt: "what is this"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("no images: err = %v, want ErrValidation", err)
	}
}

// Blobs must pass through composition untouched.
func TestSearchPreservesBlobs(t *testing.T) {
	in := []model.ImageBlob{{Data: "payload-1", MimeType: "image/jpeg"}, {Data: "payload-2", MimeType: "image/webp"}}
	req, err := Compose(model.ModeSearch, Params{Prompt: "what breed is this", SearchImages: in})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if len(req.Search.Images) != 2 {
		t.Fatalf("len = %d, want 2", len(req.Search.Images))
	}
	for i := range in {
		if req.Search.Images[i].Data != in[i].Data || req.Search.Images[i].MimeType != in[i].MimeType {
			t.Fatalf("blob %d mutated: %+v", i, req.Search.Images[i])
		}
	}
}
