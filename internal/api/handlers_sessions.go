package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storyboard/server/internal/compose"
	"storyboard/server/internal/model"

	"github.com/gin-gonic/gin"
)

// generateRequest is the wire form of the mode-scoped generation
// parameters. Fields outside the active mode are ignored.
type generateRequest struct {
	Prompt string `json:"prompt"`

	ImageAspectRatio string `json:"image_aspect_ratio"`
	Count            int    `json:"count"`

	AspectRatio string `json:"aspect_ratio"`
	Resolution  string `json:"resolution"`
	Cinematic   bool   `json:"cinematic"`
	Trailer     bool   `json:"trailer"`

	SourceImage *model.ImageBlob `json:"source_image"`

	AdvancedMode    string            `json:"advanced_mode"`
	StartFrame      *model.ImageBlob  `json:"start_frame"`
	EndFrame        *model.ImageBlob  `json:"end_frame"`
	ReferenceImages []model.ImageBlob `json:"reference_images"`
	ShotType        string            `json:"shot_type"`
	CameraMovement  string            `json:"camera_movement"`
	Transition      string            `json:"transition"`

	SearchImages []model.ImageBlob `json:"search_images"`
}

func (r generateRequest) params() compose.Params {
	return compose.Params{
		Prompt:           r.Prompt,
		ImageAspectRatio: model.ImageAspectRatio(r.ImageAspectRatio),
		Count:            r.Count,
		AspectRatio:      model.AspectRatio(r.AspectRatio),
		Resolution:       model.Resolution(r.Resolution),
		Cinematic:        r.Cinematic,
		Trailer:          r.Trailer,
		SourceImage:      r.SourceImage,
		AdvancedMode:     model.AdvancedVideoMode(r.AdvancedMode),
		StartFrame:       r.StartFrame,
		EndFrame:         r.EndFrame,
		ReferenceImages:  r.ReferenceImages,
		ShotType:         model.ShotType(r.ShotType),
		CameraMovement:   model.CameraMovement(r.CameraMovement),
		Transition:       model.TransitionStyle(r.Transition),
		SearchImages:     r.SearchImages,
	}
}

func (s *Server) createSession(c *gin.Context) {
	state, err := s.sessions.Create(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusCreated, state)
}

func (s *Server) getSession(c *gin.Context) {
	state, err := s.sessions.Get(c.Param("session_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, state)
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.sessions.Delete(c.Param("session_id")); err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) setMode(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req struct {
		Mode string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_JSON", "Invalid JSON body", false, nil)
		return
	}
	state, err := s.sessions.SetMode(c.Param("session_id"), model.GenerationMode(req.Mode))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, state)
}

func (s *Server) generate(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_JSON", "Invalid JSON body", false, nil)
		return
	}
	state, err := s.sessions.Generate(c.Param("session_id"), req.params())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusAccepted, state)
}

func (s *Server) variations(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_JSON", "Invalid JSON body", false, nil)
		return
	}
	state, err := s.sessions.Variations(c.Param("session_id"), req.params())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusAccepted, state)
}

func (s *Server) thumbnail(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_JSON", "Invalid JSON body", false, nil)
		return
	}
	state, err := s.sessions.Thumbnail(c.Param("session_id"), req.Prompt)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusAccepted, state)
}

// search is the query-about-images flow. The session must already be in
// multimodal search mode; the dedicated endpoint only shapes the
// parameters.
func (s *Server) search(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req struct {
		Query  string            `json:"query"`
		Images []model.ImageBlob `json:"images"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_JSON", "Invalid JSON body", false, nil)
		return
	}
	sessionID := c.Param("session_id")
	state, err := s.sessions.Get(sessionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if state.Mode != model.ModeSearch {
		writeError(c, http.StatusConflict, "WRONG_MODE", "Switch the session to multimodal search mode first", false, nil)
		return
	}
	state, err = s.sessions.Generate(sessionID, compose.Params{
		Prompt:       req.Query,
		SearchImages: req.Images,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusAccepted, state)
}

func (s *Server) generateStoryboard(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req struct {
		Script string `json:"script"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_JSON", "Invalid JSON body", false, nil)
		return
	}
	state, err := s.sessions.Storyboard(c.Param("session_id"), req.Script)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusAccepted, state)
}

func (s *Server) exportStoryboard(c *gin.Context) {
	out, err := s.sessions.ExportStoryboard(c.Param("session_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="storyboard.html"`)
	c.Data(http.StatusOK, "text/html; charset=utf-8", out)
}

func (s *Server) getCredential(c *gin.Context) {
	writeData(c, http.StatusOK, gin.H{"present": s.checker.HasCredential(c.Request.Context())})
}

func (s *Server) recheckCredentialGlobal(c *gin.Context) {
	writeData(c, http.StatusOK, gin.H{"present": s.checker.Recheck(c.Request.Context())})
}

func (s *Server) recheckCredential(c *gin.Context) {
	state, err := s.sessions.RecheckCredential(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, state)
}

func (s *Server) streamSessionEvents(c *gin.Context) {
	sessionID := c.Param("session_id")
	state, err := s.sessions.Get(sessionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	_, sub, unsubscribe := s.hub.Subscribe(sessionID, 128)
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		writeError(c, http.StatusInternalServerError, "SSE_UNSUPPORTED", "Streaming unsupported", false, nil)
		return
	}

	// Open with the current snapshot so a late subscriber is never
	// waiting for a transition that already happened.
	writeSSE(c, model.SessionEvent{
		SessionID: sessionID,
		Type:      model.EventStateChanged,
		TS:        time.Now().UTC(),
		State:     state,
	})
	flusher.Flush()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt, ok := <-sub:
			if !ok {
				return
			}
			writeSSE(c, evt)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(c.Writer, ": ping %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}

func writeSSE(c *gin.Context, evt model.SessionEvent) {
	payload, _ := json.Marshal(evt)
	fmt.Fprintf(c.Writer, "id: %d\n", evt.Seq)
	fmt.Fprintf(c.Writer, "event: %s\n", evt.Type)
	fmt.Fprintf(c.Writer, "data: %s\n\n", string(payload))
}
