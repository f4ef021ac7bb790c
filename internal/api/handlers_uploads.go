package api

import (
	"net/http"

	"storyboard/server/internal/media"

	"github.com/gin-gonic/gin"
)

// uploadImage accepts a multipart image file and returns the encoded
// blob the client attaches to later generation requests.
func (s *Server) uploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "MISSING_FILE", "A file field named 'file' is required", false, nil)
		return
	}
	defer file.Close()

	blob, err := media.Encode(file)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	s.log.Info("image_uploaded", "trace_id", traceIDFromContext(c), "filename", header.Filename, "mime", blob.MimeType)
	writeData(c, http.StatusCreated, blob)
}
