package api

import (
	"errors"
	"net/http"
	"strconv"

	"storyboard/server/internal/asset"

	"github.com/gin-gonic/gin"
)

// getAsset serves a stored binary. Video payloads are held in memory,
// so the response is a straight copy with the sniffed content type.
func (s *Server) getAsset(c *gin.Context) {
	a, err := s.assets.Get(c.Param("asset_id"))
	if err != nil {
		if errors.Is(err, asset.ErrNotFound) {
			writeError(c, http.StatusNotFound, "ASSET_NOT_FOUND", "Asset not found", false, nil)
			return
		}
		writeServiceError(c, err)
		return
	}
	c.Header("Content-Length", strconv.Itoa(len(a.Data)))
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, a.MimeType, a.Data)
}

func (s *Server) deleteAsset(c *gin.Context) {
	if err := s.assets.Delete(c.Param("asset_id")); err != nil {
		if errors.Is(err, asset.ErrNotFound) {
			writeError(c, http.StatusNotFound, "ASSET_NOT_FOUND", "Asset not found", false, nil)
			return
		}
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"deleted": true})
}
