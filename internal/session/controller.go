package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"storyboard/server/internal/asset"
	"storyboard/server/internal/compose"
	"storyboard/server/internal/credential"
	"storyboard/server/internal/events"
	"storyboard/server/internal/job"
	"storyboard/server/internal/model"
	"storyboard/server/internal/provider"
	"storyboard/server/internal/store"
	"storyboard/server/internal/storyboard"

	"github.com/google/uuid"
)

var (
	// ErrBusy rejects a generation while the same slot is in flight.
	ErrBusy = errors.New("a generation is already in progress")
	// ErrCredential rejects a video generation without an API key.
	ErrCredential = errors.New(credential.UserMessage)
)

// Controller owns every session's state. All mutation funnels through
// the store's closure update, so each transition replaces the snapshot
// atomically and publishes it; subscribers never observe a half-applied
// update.
//
// Asynchronous completions are guarded by a per-session epoch. Starting
// a new primary generation, a storyboard run or a mode switch bumps the
// epoch; a completion carrying a stale epoch is dropped instead of
// clobbering the newer state.
type Controller struct {
	store   *store.MemoryStore
	hub     *events.Hub
	client  provider.Client
	mat     *asset.Materializer
	assets  *asset.Store
	checker credential.Checker
	board   *storyboard.Service
	log     *slog.Logger

	pollInterval    time.Duration
	maxPollAttempts int

	// baseCtx detaches background work from the request that started it.
	baseCtx context.Context

	mu     sync.Mutex
	epochs map[string]uint64

	// pubMu orders event delivery: the sequence number allocation and
	// the hub enqueue happen under it, so subscribers always receive
	// events in ascending seq order.
	pubMu sync.Mutex
}

type Config struct {
	Store           *store.MemoryStore
	Hub             *events.Hub
	Client          provider.Client
	Materializer    *asset.Materializer
	Assets          *asset.Store
	Checker         credential.Checker
	Storyboard      *storyboard.Service
	Logger          *slog.Logger
	PollInterval    time.Duration
	MaxPollAttempts int
}

func NewController(cfg Config) *Controller {
	return &Controller{
		store:           cfg.Store,
		hub:             cfg.Hub,
		client:          cfg.Client,
		mat:             cfg.Materializer,
		assets:          cfg.Assets,
		checker:         cfg.Checker,
		board:           cfg.Storyboard,
		log:             cfg.Logger,
		pollInterval:    cfg.PollInterval,
		maxPollAttempts: cfg.MaxPollAttempts,
		baseCtx:         context.Background(),
		epochs:          map[string]uint64{},
	}
}

// SetBaseContext rebinds background work to the given context, usually
// the process lifetime.
func (c *Controller) SetBaseContext(ctx context.Context) {
	c.baseCtx = ctx
}

func (c *Controller) Create(ctx context.Context) (model.SessionState, error) {
	state := model.SessionState{
		SessionID:    uuid.NewString(),
		Mode:         model.ModeImage,
		CredentialOK: c.checker.HasCredential(ctx),
	}
	return c.store.CreateSession(state)
}

func (c *Controller) Get(sessionID string) (model.SessionState, error) {
	return c.store.GetSession(sessionID)
}

// SetMode switches the active generation mode and clears every output
// slot; pending completions from the previous mode are invalidated.
func (c *Controller) SetMode(sessionID string, mode model.GenerationMode) (model.SessionState, error) {
	if !mode.Valid() {
		return model.SessionState{}, store.ErrBadRequest
	}
	state, _, err := c.begin(sessionID, func(s *model.SessionState) error {
		s.Mode = mode
		c.resetOutputs(s)
		return nil
	})
	return state, err
}

// Generate runs the primary flow for the session's active mode. The
// composed request decides the path: images synchronously, video via
// the job poller, search via a single text round trip. Validation
// failures surface as an immediate error; provider failures land in
// the session's error slot later.
func (c *Controller) Generate(sessionID string, params compose.Params) (model.SessionState, error) {
	state, err := c.store.GetSession(sessionID)
	if err != nil {
		return model.SessionState{}, err
	}
	req, err := compose.Compose(state.Mode, params)
	if err != nil {
		return model.SessionState{}, err
	}
	if req.Video != nil && !c.checker.HasCredential(c.baseCtx) {
		c.update(sessionID, model.EventStateChanged, func(s *model.SessionState) error {
			s.CredentialOK = false
			return nil
		})
		return model.SessionState{}, ErrCredential
	}

	state, epoch, err := c.begin(sessionID, func(s *model.SessionState) error {
		if s.Loading || s.SearchLoading {
			return ErrBusy
		}
		if req.Search != nil {
			s.SearchLoading = true
			s.SearchResult = ""
		} else {
			c.resetOutputs(s)
			s.Loading = true
		}
		s.Error = ""
		return nil
	})
	if err != nil {
		return model.SessionState{}, err
	}

	go c.run(epoch, sessionID, req)
	return state, nil
}

func (c *Controller) run(epoch uint64, sessionID string, req compose.GenerationRequest) {
	switch {
	case req.Image != nil:
		refs, err := c.generateImages(*req.Image)
		c.finish(epoch, sessionID, model.EventAssetReady, func(s *model.SessionState) {
			s.Loading = false
			if err != nil {
				c.applyError(s, err)
				return
			}
			s.Media = &refs[0]
		})
	case req.Video != nil:
		ref, err := c.generateVideo(epoch, sessionID, *req.Video)
		c.finish(epoch, sessionID, model.EventAssetReady, func(s *model.SessionState) {
			s.Loading = false
			if err != nil {
				c.applyError(s, err)
				return
			}
			s.Media = &ref
		})
	case req.Search != nil:
		answer, err := c.client.Search(c.baseCtx, *req.Search)
		c.finish(epoch, sessionID, model.EventStateChanged, func(s *model.SessionState) {
			s.SearchLoading = false
			if err != nil {
				c.applyError(s, err)
				return
			}
			s.SearchResult = answer
		})
	}
}

func (c *Controller) generateImages(req compose.ImageRequest) ([]model.AssetReference, error) {
	blobs, err := c.client.GenerateImages(c.baseCtx, req)
	if err != nil {
		return nil, err
	}
	if len(blobs) == 0 {
		return nil, &provider.Error{Op: "generate", Message: "image generation failed to produce images"}
	}
	return c.mat.Images(blobs), nil
}

func (c *Controller) generateVideo(epoch uint64, sessionID string, req compose.VideoRequest) (model.AssetReference, error) {
	handle, err := c.client.SubmitVideo(c.baseCtx, req)
	if err != nil {
		return model.AssetReference{}, err
	}
	poller := job.NewPoller(c.client, c.pollInterval, c.maxPollAttempts, c.log)
	poller.SetOnPoll(func(attempt int) {
		c.finish(epoch, sessionID, model.EventJobPolling, func(*model.SessionState) {})
	})
	result, err := poller.Wait(c.baseCtx, handle)
	if err != nil {
		return model.AssetReference{}, err
	}
	return c.mat.Video(c.baseCtx, result)
}

// Variations regenerates candidates for the current prompt into a
// separate slot; the primary media is untouched.
func (c *Controller) Variations(sessionID string, params compose.Params) (model.SessionState, error) {
	req, err := compose.ComposeVariations(params)
	if err != nil {
		return model.SessionState{}, err
	}
	epoch := c.currentEpoch(sessionID)
	state, err := c.update(sessionID, model.EventStateChanged, func(s *model.SessionState) error {
		if s.VariationsLoading {
			return ErrBusy
		}
		s.VariationsLoading = true
		s.Error = ""
		return nil
	})
	if err != nil {
		return model.SessionState{}, err
	}

	go func() {
		refs, err := c.generateImages(*req.Image)
		c.finish(epoch, sessionID, model.EventAssetReady, func(s *model.SessionState) {
			s.VariationsLoading = false
			if err != nil {
				c.applyError(s, err)
				return
			}
			s.Variations = refs
		})
	}()
	return state, nil
}

// Thumbnail generates a promotional still from the prompt into its own
// slot.
func (c *Controller) Thumbnail(sessionID, prompt string) (model.SessionState, error) {
	req, err := compose.ComposeThumbnail(prompt)
	if err != nil {
		return model.SessionState{}, err
	}
	epoch := c.currentEpoch(sessionID)
	state, err := c.update(sessionID, model.EventStateChanged, func(s *model.SessionState) error {
		if s.ThumbnailLoading {
			return ErrBusy
		}
		s.ThumbnailLoading = true
		s.Error = ""
		return nil
	})
	if err != nil {
		return model.SessionState{}, err
	}

	go func() {
		refs, err := c.generateImages(*req.Image)
		c.finish(epoch, sessionID, model.EventAssetReady, func(s *model.SessionState) {
			s.ThumbnailLoading = false
			if err != nil {
				c.applyError(s, err)
				return
			}
			s.Thumbnail = &refs[0]
		})
	}()
	return state, nil
}

// Storyboard turns a script into an illustrated board, publishing an
// intermediate snapshot every time a scene settles.
func (c *Controller) Storyboard(sessionID, script string) (model.SessionState, error) {
	if strings.TrimSpace(script) == "" {
		return model.SessionState{}, storyboard.ErrEmptyScript
	}
	state, epoch, err := c.begin(sessionID, func(s *model.SessionState) error {
		if s.StoryboardLoading {
			return ErrBusy
		}
		s.StoryboardLoading = true
		s.Storyboard = nil
		s.Error = ""
		return nil
	})
	if err != nil {
		return model.SessionState{}, err
	}

	go func() {
		scenes, err := c.board.Generate(c.baseCtx, script, func(snapshot []model.StoryboardScene) {
			c.finish(epoch, sessionID, model.EventStateChanged, func(s *model.SessionState) {
				s.Storyboard = snapshot
			})
		})
		c.finish(epoch, sessionID, model.EventStateChanged, func(s *model.SessionState) {
			s.StoryboardLoading = false
			if err != nil {
				c.applyError(s, err)
				return
			}
			s.Storyboard = scenes
		})
	}()
	return state, nil
}

// ExportStoryboard renders the session's finished board as HTML.
func (c *Controller) ExportStoryboard(sessionID string) ([]byte, error) {
	state, err := c.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	return storyboard.ExportHTML(state.Storyboard)
}

// RecheckCredential re-resolves the API key and records the answer.
func (c *Controller) RecheckCredential(ctx context.Context, sessionID string) (model.SessionState, error) {
	ok := c.checker.Recheck(ctx)
	return c.update(sessionID, model.EventStateChanged, func(s *model.SessionState) error {
		s.CredentialOK = ok
		return nil
	})
}

// Delete tears the session down: its epoch, its snapshot and every
// stored asset it still references.
func (c *Controller) Delete(sessionID string) error {
	state, err := c.store.GetSession(sessionID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.epochs, sessionID)
	c.mu.Unlock()
	if err := c.store.DeleteSession(sessionID); err != nil {
		return err
	}
	c.releaseStored(&state)
	return nil
}

// applyError maps a failure onto the session. A provider not-found
// failure means the API key is missing or revoked, so the credential is
// rechecked and the user gets the key guidance instead of the raw text.
func (c *Controller) applyError(s *model.SessionState, err error) {
	msg := err.Error()
	if strings.Contains(msg, credential.NotFoundMarker) {
		s.CredentialOK = c.checker.Recheck(c.baseCtx)
		s.Error = credential.UserMessage
		return
	}
	s.Error = msg
}

// finish applies a mutation produced by asynchronous work, unless the
// session has moved on since the work started.
func (c *Controller) finish(epoch uint64, sessionID string, typ model.SessionEventType, mutate func(*model.SessionState)) {
	c.mu.Lock()
	if current := c.epochs[sessionID]; current != epoch {
		c.mu.Unlock()
		c.log.Info("stale_completion_dropped", "session_id", sessionID, "epoch", epoch, "current", current)
		return
	}
	state, err := c.store.UpdateSession(sessionID, func(s *model.SessionState) error {
		mutate(s)
		return nil
	})
	c.mu.Unlock()
	if err != nil {
		return
	}
	c.publish(state, typ)
}

// update mutates the stored snapshot atomically and publishes the
// result to subscribers.
func (c *Controller) update(sessionID string, typ model.SessionEventType, fn func(*model.SessionState) error) (model.SessionState, error) {
	state, err := c.store.UpdateSession(sessionID, fn)
	if err != nil {
		return model.SessionState{}, err
	}
	c.publish(state, typ)
	return state, nil
}

// begin starts a new generation era: the mutation and the epoch bump
// happen under one lock, so a rejected start never invalidates work in
// flight and a stale completion cannot slip in between reset and bump.
func (c *Controller) begin(sessionID string, fn func(*model.SessionState) error) (model.SessionState, uint64, error) {
	c.mu.Lock()
	state, err := c.store.UpdateSession(sessionID, fn)
	if err != nil {
		c.mu.Unlock()
		return model.SessionState{}, 0, err
	}
	c.epochs[sessionID]++
	epoch := c.epochs[sessionID]
	c.mu.Unlock()

	c.publish(state, model.EventStateChanged)
	return state, epoch, nil
}

func (c *Controller) publish(state model.SessionState, typ model.SessionEventType) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	seq, err := c.store.NextSeq(state.SessionID)
	if err != nil {
		return
	}
	c.hub.Publish(state.SessionID, model.SessionEvent{
		EventID:   uuid.NewString(),
		Seq:       seq,
		SessionID: state.SessionID,
		Type:      typ,
		TS:        time.Now().UTC(),
		State:     state,
	})
}

func (c *Controller) currentEpoch(sessionID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epochs[sessionID]
}

// resetOutputs clears every output slot, releasing the stored assets
// the cleared references pointed at.
func (c *Controller) resetOutputs(s *model.SessionState) {
	c.releaseStored(s)
	s.Loading = false
	s.Error = ""
	s.Media = nil
	s.Variations = nil
	s.VariationsLoading = false
	s.Thumbnail = nil
	s.ThumbnailLoading = false
	s.SearchResult = ""
	s.SearchLoading = false
	s.Storyboard = nil
	s.StoryboardLoading = false
}

// releaseStored revokes the store-backed assets referenced by the
// session's output slots. Inline data-URI references have no backing
// entry and are skipped.
func (c *Controller) releaseStored(s *model.SessionState) {
	for _, ref := range collectRefs(s) {
		id, ok := asset.ParseLocator(ref.Locator)
		if !ok {
			continue
		}
		if err := c.assets.Delete(id); err == nil {
			c.log.Info("asset_released", "session_id", s.SessionID, "asset_id", id)
		}
	}
}

func collectRefs(s *model.SessionState) []model.AssetReference {
	var refs []model.AssetReference
	if s.Media != nil {
		refs = append(refs, *s.Media)
	}
	if s.Thumbnail != nil {
		refs = append(refs, *s.Thumbnail)
	}
	refs = append(refs, s.Variations...)
	for _, sc := range s.Storyboard {
		if sc.Image != nil {
			refs = append(refs, *sc.Image)
		}
	}
	return refs
}
