package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"storyboard/server/internal/compose"
	"storyboard/server/internal/model"

	"google.golang.org/genai"
)

// Models names the provider model for each operation family. Plain
// video and advanced video (frame pair, reference assets) use distinct
// Veo variants.
type Models struct {
	Image         string
	Video         string
	AdvancedVideo string
	Text          string
}

func DefaultModels() Models {
	return Models{
		Image:         "imagen-4.0-generate-001",
		Video:         "veo-3.1-fast-generate-preview",
		AdvancedVideo: "veo-3.1-generate-preview",
		Text:          "gemini-2.5-pro",
	}
}

// Gemini implements Client on top of the Google GenAI SDK.
type Gemini struct {
	client *genai.Client
	models Models
	log    *slog.Logger
}

func NewGemini(ctx context.Context, apiKey string, models Models, logger *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errorf("init", "API key is not set")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errorf("init", "create genai client: %v", err)
	}
	return &Gemini{client: c, models: models, log: logger}, nil
}

var _ Client = (*Gemini)(nil)

func (g *Gemini) GenerateImages(ctx context.Context, req compose.ImageRequest) ([]model.ImageBlob, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.models.Image, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(req.Count),
		OutputMIMEType: "image/jpeg",
		AspectRatio:    string(req.AspectRatio),
	})
	if err != nil {
		return nil, errorf("generate_images", "%v", err)
	}
	if len(resp.GeneratedImages) == 0 {
		return nil, errorf("generate_images", "image generation failed to produce images")
	}
	out := make([]model.ImageBlob, 0, len(resp.GeneratedImages))
	for i, gi := range resp.GeneratedImages {
		if gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
			return nil, errorf("generate_images", "generated image %d has no data", i)
		}
		mime := gi.Image.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		out = append(out, model.ImageBlob{
			Data:     base64.StdEncoding.EncodeToString(gi.Image.ImageBytes),
			MimeType: mime,
		})
	}
	return out, nil
}

func (g *Gemini) SubmitVideo(ctx context.Context, req compose.VideoRequest) (model.JobHandle, error) {
	cfg := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    string(req.AspectRatio),
		Resolution:     string(req.Resolution),
	}

	modelID := g.models.Video
	var image *genai.Image
	switch src := req.Source.(type) {
	case nil:
	case compose.SourceImage:
		img, err := toImage(src.Image)
		if err != nil {
			return model.JobHandle{}, err
		}
		image = img
	case compose.FramePair:
		modelID = g.models.AdvancedVideo
		start, err := toImage(src.Start)
		if err != nil {
			return model.JobHandle{}, err
		}
		end, err := toImage(src.End)
		if err != nil {
			return model.JobHandle{}, err
		}
		image = start
		cfg.LastFrame = end
	case compose.ReferenceAssets:
		modelID = g.models.AdvancedVideo
		for _, b := range src.Images {
			img, err := toImage(b)
			if err != nil {
				return model.JobHandle{}, err
			}
			cfg.ReferenceImages = append(cfg.ReferenceImages, &genai.VideoGenerationReferenceImage{
				Image:         img,
				ReferenceType: genai.VideoGenerationReferenceTypeAsset,
			})
		}
	default:
		return model.JobHandle{}, errorf("submit_video", "unknown video source %T", req.Source)
	}

	op, err := g.client.Models.GenerateVideos(ctx, modelID, req.Prompt, image, cfg)
	if err != nil {
		return model.JobHandle{}, errorf("submit_video", "%v", err)
	}
	g.log.Info("video_job_submitted", "model", modelID, "operation", op.Name)
	return handleFromOperation(op), nil
}

func (g *Gemini) PollVideo(ctx context.Context, h model.JobHandle) (model.JobHandle, error) {
	op, err := g.client.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: h.Token}, nil)
	if err != nil {
		return model.JobHandle{}, errorf("poll_video", "%v", err)
	}
	return handleFromOperation(op), nil
}

func (g *Gemini) Search(ctx context.Context, req compose.SearchRequest) (string, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for i, b := range req.Images {
		data, err := base64.StdEncoding.DecodeString(b.Data)
		if err != nil {
			return "", errorf("search", "decode image %d: %v", i, err)
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: b.MimeType, Data: data}})
	}
	parts = append(parts, &genai.Part{
		Text: fmt.Sprintf("Analyze the following image(s) and answer the user's query. Query: %q", req.Query),
	})

	resp, err := g.client.Models.GenerateContent(ctx, g.models.Text, []*genai.Content{
		{Role: genai.RoleUser, Parts: parts},
	}, nil)
	if err != nil {
		return "", errorf("search", "%v", err)
	}
	answer := resp.Text()
	if answer == "" {
		return "", errorf("search", "search returned an empty answer")
	}
	return answer, nil
}

const scriptPromptFormat = `Analyze the following script and break it down into distinct scenes. For each scene, identify its number, location (e.g., INT. COFFEE SHOP - DAY), the characters present, and generate a concise, visually descriptive prompt suitable for an AI image generator to create a storyboard panel.

Script:
---
%s
---`

func (g *Gemini) ParseScript(ctx context.Context, script string) ([]model.ParsedScene, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.models.Text, []*genai.Content{
		{Role: genai.RoleUser, Parts: []*genai.Part{{Text: fmt.Sprintf(scriptPromptFormat, script)}}},
	}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   sceneListSchema(),
	})
	if err != nil {
		return nil, errorf("parse_script", "%v", err)
	}

	var parsed struct {
		Scenes []model.ParsedScene `json:"scenes"`
	}
	raw := strings.TrimSpace(resp.Text())
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		g.log.Warn("script_parse_invalid_json", "error", err)
		return nil, errorf("parse_script", "The AI failed to return a valid storyboard structure. Please try refining your script.")
	}
	return parsed.Scenes, nil
}

func sceneListSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"scenes": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"sceneNumber": {Type: genai.TypeNumber, Description: "The scene number."},
						"location":    {Type: genai.TypeString, Description: "The location of the scene (e.g., INT. COFFEE SHOP - DAY)."},
						"characters": {
							Type:        genai.TypeArray,
							Items:       &genai.Schema{Type: genai.TypeString},
							Description: "A list of characters in the scene.",
						},
						"promptForImage": {Type: genai.TypeString, Description: "A detailed, visual prompt for an AI image generator, describing the key action or mood of the scene."},
					},
					Required: []string{"sceneNumber", "location", "characters", "promptForImage"},
				},
			},
		},
		Required: []string{"scenes"},
	}
}

func toImage(b model.ImageBlob) (*genai.Image, error) {
	data, err := base64.StdEncoding.DecodeString(b.Data)
	if err != nil {
		return nil, errorf("submit_video", "decode image payload: %v", err)
	}
	return &genai.Image{ImageBytes: data, MIMEType: b.MimeType}, nil
}

func handleFromOperation(op *genai.GenerateVideosOperation) model.JobHandle {
	h := model.JobHandle{Token: op.Name, Done: op.Done}
	if len(op.Error) > 0 {
		h.Failure = formatOperationError(op.Error)
	}
	if op.Response != nil && len(op.Response.GeneratedVideos) > 0 {
		if v := op.Response.GeneratedVideos[0].Video; v != nil && v.URI != "" {
			h.Result = &model.VideoResult{DownloadURI: v.URI}
		}
	}
	return h
}

func formatOperationError(raw map[string]any) string {
	if msg, ok := raw["message"].(string); ok && msg != "" {
		return msg
	}
	return fmt.Sprintf("video generation failed: %v", raw)
}
