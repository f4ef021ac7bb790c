package model

import "time"

type GenerationMode string

const (
	ModeImage         GenerationMode = "image"
	ModeVideo         GenerationMode = "video"
	ModeAnimate       GenerationMode = "animate"
	ModeAdvancedVideo GenerationMode = "advanced_video"
	ModeStoryboard    GenerationMode = "storyboard"
	ModeSearch        GenerationMode = "multimodal_search"
)

func (m GenerationMode) Valid() bool {
	switch m {
	case ModeImage, ModeVideo, ModeAnimate, ModeAdvancedVideo, ModeStoryboard, ModeSearch:
		return true
	}
	return false
}

// IsVideo reports whether the mode produces a video through the
// asynchronous Veo operation path.
func (m GenerationMode) IsVideo() bool {
	return m == ModeVideo || m == ModeAnimate || m == ModeAdvancedVideo
}

// AdvancedVideoMode selects which advanced-video sub-mode is active.
// The toggle is authoritative: the composer never infers the sub-mode
// from which attachments happen to be populated.
type AdvancedVideoMode string

const (
	AdvancedModeAssets AdvancedVideoMode = "assets"
	AdvancedModeFrames AdvancedVideoMode = "frames"
)

type AspectRatio string

const (
	Aspect16x9 AspectRatio = "16:9"
	Aspect9x16 AspectRatio = "9:16"
)

func (a AspectRatio) Valid() bool {
	return a == Aspect16x9 || a == Aspect9x16
}

type ImageAspectRatio string

const (
	ImageAspectSquare    ImageAspectRatio = "1:1"
	ImageAspectWide      ImageAspectRatio = "16:9"
	ImageAspectTall      ImageAspectRatio = "9:16"
	ImageAspectLandscape ImageAspectRatio = "4:3"
	ImageAspectPortrait  ImageAspectRatio = "3:4"
)

func (a ImageAspectRatio) Valid() bool {
	switch a {
	case ImageAspectSquare, ImageAspectWide, ImageAspectTall, ImageAspectLandscape, ImageAspectPortrait:
		return true
	}
	return false
}

type Resolution string

const (
	Resolution720p  Resolution = "720p"
	Resolution1080p Resolution = "1080p"
)

func (r Resolution) Valid() bool {
	return r == Resolution720p || r == Resolution1080p
}

// Camera directives arrive from the UI in hyphenated symbolic form
// ("wide-shot", "zoom-in"). "none" disables a directive.
type ShotType string

const (
	ShotNone           ShotType = "none"
	ShotWide           ShotType = "wide-shot"
	ShotMedium         ShotType = "medium-shot"
	ShotCloseUp        ShotType = "close-up"
	ShotExtremeCloseUp ShotType = "extreme-close-up"
	ShotDrone          ShotType = "drone-shot"
)

type CameraMovement string

const (
	MovementNone     CameraMovement = "none"
	MovementStatic   CameraMovement = "static"
	MovementPanLeft  CameraMovement = "pan-left"
	MovementPanRight CameraMovement = "pan-right"
	MovementTiltUp   CameraMovement = "tilt-up"
	MovementTiltDown CameraMovement = "tilt-down"
	MovementZoomIn   CameraMovement = "zoom-in"
	MovementZoomOut  CameraMovement = "zoom-out"
	MovementTracking CameraMovement = "tracking-shot"
)

type TransitionStyle string

const (
	TransitionNone      TransitionStyle = "none"
	TransitionHardCut   TransitionStyle = "hard-cut"
	TransitionCrossfade TransitionStyle = "crossfade"
	TransitionMatchCut  TransitionStyle = "match-cut"
)

// ImageBlob is an encoded user upload. It is owned by the session state
// that created it and becomes read-only input once passed into a
// request; nothing downstream mutates it.
type ImageBlob struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
	Preview  string `json:"preview,omitempty"`
}

func (b ImageBlob) Empty() bool {
	return b.Data == "" && b.MimeType == ""
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// AssetReference points at a materialized asset: either an inline data
// URI or a locally served locator. Immutable once produced.
type AssetReference struct {
	Locator string    `json:"locator"`
	Kind    MediaKind `json:"kind"`
}

// JobHandle tracks a remote video-generation operation. It is created
// by the generation client on submission and replaced wholesale by the
// poller on every status fetch; once Done it is terminal.
type JobHandle struct {
	Token   string
	Done    bool
	Result  *VideoResult
	Failure string
}

// VideoResult is the payload of a successfully finished video job: the
// provider-supplied download locator for the binary.
type VideoResult struct {
	DownloadURI string
}

type ParsedScene struct {
	SceneNumber    int      `json:"sceneNumber"`
	Location       string   `json:"location"`
	Characters     []string `json:"characters"`
	PromptForImage string   `json:"promptForImage"`
}

type StoryboardScene struct {
	ID          string          `json:"id"`
	SceneNumber int             `json:"scene_number"`
	Location    string          `json:"location"`
	Characters  []string        `json:"characters"`
	Prompt      string          `json:"prompt"`
	Image       *AssetReference `json:"image,omitempty"`
	IsLoading   bool            `json:"is_loading"`
}

// SessionState is the single long-lived mutable structure of a session.
// It is owned by the session controller, replaced whole-field on every
// transition, and only ever read by the API layer. The variations,
// thumbnail and search slots are independent of the primary slot so
// secondary flows never clobber a generated result.
type SessionState struct {
	SessionID string         `json:"session_id"`
	Mode      GenerationMode `json:"mode"`

	Loading bool            `json:"loading"`
	Error   string          `json:"error,omitempty"`
	Media   *AssetReference `json:"media,omitempty"`

	Variations        []AssetReference `json:"variations,omitempty"`
	VariationsLoading bool             `json:"variations_loading"`

	Thumbnail        *AssetReference `json:"thumbnail,omitempty"`
	ThumbnailLoading bool            `json:"thumbnail_loading"`

	SearchResult  string `json:"search_result,omitempty"`
	SearchLoading bool   `json:"search_loading"`

	Storyboard        []StoryboardScene `json:"storyboard,omitempty"`
	StoryboardLoading bool              `json:"storyboard_loading"`

	CredentialOK bool      `json:"credential_ok"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SessionEventType string

const (
	EventStateChanged SessionEventType = "state_changed"
	EventJobPolling   SessionEventType = "job_polling"
	EventAssetReady   SessionEventType = "asset_ready"
)

// SessionEvent carries an immutable state snapshot to SSE subscribers,
// so the presentation layer never observes a half-applied transition.
type SessionEvent struct {
	EventID   string           `json:"event_id"`
	Seq       int64            `json:"seq"`
	SessionID string           `json:"session_id"`
	Type      SessionEventType `json:"type"`
	TS        time.Time        `json:"ts"`
	State     SessionState     `json:"state"`
}
