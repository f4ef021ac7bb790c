package compose

import (
	"errors"
	"fmt"

	"storyboard/server/internal/model"
)

// ErrValidation is the sentinel for every unmet precondition. Callers
// match with errors.Is and surface the message as-is.
var ErrValidation = errors.New("validation")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// GenerationRequest is the tagged union over the three request
// families. Exactly one field is non-nil; Compose is the only
// constructor, so an invalid combination cannot exist even transiently.
type GenerationRequest struct {
	Image  *ImageRequest
	Video  *VideoRequest
	Search *SearchRequest
}

type ImageRequest struct {
	Prompt      string
	AspectRatio model.ImageAspectRatio
	Count       int
}

// VideoRequest carries the final prompt and media constraints. Source
// holds the attachment variant; it is nil for plain text-to-video and
// otherwise exactly one of SourceImage, FramePair or ReferenceAssets.
type VideoRequest struct {
	Prompt      string
	AspectRatio model.AspectRatio
	Resolution  model.Resolution
	Source      VideoSource
}

// VideoSource is the closed set of mutually exclusive attachment
// variants for a video request.
type VideoSource interface{ videoSource() }

// SourceImage animates a single existing image.
type SourceImage struct {
	Image model.ImageBlob
}

// FramePair interpolates between an explicit start and end frame.
type FramePair struct {
	Start model.ImageBlob
	End   model.ImageBlob
}

// ReferenceAssets guides generation with example images of characters,
// objects or scenes that must stay consistent.
type ReferenceAssets struct {
	Images []model.ImageBlob
}

func (SourceImage) videoSource()     {}
func (FramePair) videoSource()       {}
func (ReferenceAssets) videoSource() {}

type SearchRequest struct {
	Query  string
	Images []model.ImageBlob
}

// Params carries every mode-scoped UI selection the composer may need.
// Compose reads only the fields relevant to the requested mode.
type Params struct {
	Prompt string

	// Image mode.
	ImageAspectRatio model.ImageAspectRatio
	Count            int

	// Video modes.
	AspectRatio model.AspectRatio
	Resolution  model.Resolution
	Cinematic   bool
	Trailer     bool

	// Animate mode.
	SourceImage *model.ImageBlob

	// Advanced video. AdvancedMode is the explicit sub-mode toggle.
	AdvancedMode    model.AdvancedVideoMode
	StartFrame      *model.ImageBlob
	EndFrame        *model.ImageBlob
	ReferenceImages []model.ImageBlob
	ShotType        model.ShotType
	CameraMovement  model.CameraMovement
	Transition      model.TransitionStyle

	// Multimodal search.
	SearchImages []model.ImageBlob
}

const defaultVariationCount = 4

// Compose maps the active generation mode and its parameters onto a
// single well-formed request descriptor. It is a pure function of its
// arguments: no network, no stored state.
func Compose(mode model.GenerationMode, p Params) (GenerationRequest, error) {
	switch mode {
	case model.ModeImage:
		return composeImage(p)
	case model.ModeVideo:
		return composeVideo(p)
	case model.ModeAnimate:
		return composeAnimate(p)
	case model.ModeAdvancedVideo:
		return composeAdvancedVideo(p)
	case model.ModeSearch:
		return composeSearch(p)
	default:
		return GenerationRequest{}, validationError("mode %q cannot be composed", mode)
	}
}

func composeImage(p Params) (GenerationRequest, error) {
	if p.Prompt == "" {
		return GenerationRequest{}, validationError("a prompt is required to generate an image")
	}
	aspect := p.ImageAspectRatio
	if aspect == "" {
		aspect = model.ImageAspectSquare
	}
	if !aspect.Valid() {
		return GenerationRequest{}, validationError("unsupported image aspect ratio %q", aspect)
	}
	count := p.Count
	if count < 1 {
		count = 1
	}
	return GenerationRequest{Image: &ImageRequest{
		Prompt:      p.Prompt,
		AspectRatio: aspect,
		Count:       count,
	}}, nil
}

// ComposeVariations is the secondary image flow: same prompt and aspect
// ratio as the primary image request, multiple candidates.
func ComposeVariations(p Params) (GenerationRequest, error) {
	if p.Count < 1 {
		p.Count = defaultVariationCount
	}
	return composeImage(p)
}

// ComposeThumbnail synthesizes an entirely new prompt embedding the
// user's prompt as a quoted substring; aspect ratio is fixed to 16:9.
func ComposeThumbnail(prompt string) (GenerationRequest, error) {
	if prompt == "" {
		return GenerationRequest{}, validationError("a prompt is required to generate a thumbnail")
	}
	return GenerationRequest{Image: &ImageRequest{
		Prompt:      ThumbnailPrompt(prompt),
		AspectRatio: model.ImageAspectWide,
		Count:       1,
	}}, nil
}

func composeVideo(p Params) (GenerationRequest, error) {
	if p.Prompt == "" {
		return GenerationRequest{}, validationError("a prompt is required to generate a video")
	}
	aspect, resolution, err := videoConstraints(p)
	if err != nil {
		return GenerationRequest{}, err
	}
	return GenerationRequest{Video: &VideoRequest{
		Prompt:      StylePrompt(p.Prompt, p.Cinematic, p.Trailer),
		AspectRatio: aspect,
		Resolution:  resolution,
	}}, nil
}

func composeAnimate(p Params) (GenerationRequest, error) {
	if p.SourceImage == nil || p.SourceImage.Empty() {
		return GenerationRequest{}, validationError("please upload an image to animate")
	}
	aspect, resolution, err := videoConstraints(p)
	if err != nil {
		return GenerationRequest{}, err
	}
	// The prompt is optional here: the image drives the generation.
	return GenerationRequest{Video: &VideoRequest{
		Prompt:      p.Prompt,
		AspectRatio: aspect,
		Resolution:  resolution,
		Source:      SourceImage{Image: *p.SourceImage},
	}}, nil
}

func composeAdvancedVideo(p Params) (GenerationRequest, error) {
	prompt := CameraPrompt(p.Prompt, p.ShotType, p.CameraMovement, p.Transition)
	if p.Trailer {
		prompt = TrailerPrefix + ": " + prompt
	}

	// The sub-mode toggle decides the variant; populated-but-inactive
	// attachments are ignored rather than inferred.
	switch p.AdvancedMode {
	case model.AdvancedModeAssets:
		if len(p.ReferenceImages) == 0 {
			return GenerationRequest{}, validationError("please upload at least one asset image")
		}
		if p.Prompt == "" {
			return GenerationRequest{}, validationError("a prompt is required for asset-guided video")
		}
		// Hard policy constraint of reference-asset mode, not a default:
		// user selections for aspect ratio and resolution are overridden.
		return GenerationRequest{Video: &VideoRequest{
			Prompt:      prompt,
			AspectRatio: model.Aspect16x9,
			Resolution:  model.Resolution720p,
			Source:      ReferenceAssets{Images: append([]model.ImageBlob(nil), p.ReferenceImages...)},
		}}, nil
	case model.AdvancedModeFrames:
		if p.StartFrame == nil || p.StartFrame.Empty() || p.EndFrame == nil || p.EndFrame.Empty() {
			return GenerationRequest{}, validationError("please upload both a start and end frame")
		}
		aspect, resolution, err := videoConstraints(p)
		if err != nil {
			return GenerationRequest{}, err
		}
		return GenerationRequest{Video: &VideoRequest{
			Prompt:      prompt,
			AspectRatio: aspect,
			Resolution:  resolution,
			Source:      FramePair{Start: *p.StartFrame, End: *p.EndFrame},
		}}, nil
	default:
		return GenerationRequest{}, validationError("unknown advanced video sub-mode %q", p.AdvancedMode)
	}
}

func composeSearch(p Params) (GenerationRequest, error) {
	if p.Prompt == "" {
		return GenerationRequest{}, validationError("please enter a search query")
	}
	if len(p.SearchImages) == 0 {
		return GenerationRequest{}, validationError("please upload at least one image for multimodal search")
	}
	return GenerationRequest{Search: &SearchRequest{
		Query:  p.Prompt,
		Images: append([]model.ImageBlob(nil), p.SearchImages...),
	}}, nil
}

func videoConstraints(p Params) (model.AspectRatio, model.Resolution, error) {
	aspect := p.AspectRatio
	if aspect == "" {
		aspect = model.Aspect16x9
	}
	if !aspect.Valid() {
		return "", "", validationError("unsupported video aspect ratio %q", aspect)
	}
	resolution := p.Resolution
	if resolution == "" {
		resolution = model.Resolution720p
	}
	if !resolution.Valid() {
		return "", "", validationError("unsupported resolution %q", resolution)
	}
	return aspect, resolution, nil
}
