package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storyboard/server/internal/media"
	"storyboard/server/internal/model"
)

// ErrDownload reports that fetching a finished video from the provider
// failed. The job itself succeeded; only the transfer did not.
var ErrDownload = errors.New("video download failed")

// maxVideoBytes caps a single video transfer.
const maxVideoBytes = 512 << 20

// Materializer converts provider output into stable references the
// session state can hold: inline data URIs for images, stored local
// assets for videos. Each video is fetched exactly once; there is no
// retry and no caching by source URI.
type Materializer struct {
	store  *Store
	client *http.Client
	apiKey string
	log    *slog.Logger
}

func NewMaterializer(store *Store, apiKey string, logger *slog.Logger) *Materializer {
	return &Materializer{
		store:  store,
		client: &http.Client{Timeout: 5 * time.Minute},
		apiKey: apiKey,
		log:    logger,
	}
}

// SetHTTPClient replaces the download transport. Intended for tests.
func (m *Materializer) SetHTTPClient(c *http.Client) {
	m.client = c
}

// Image wraps an inline image payload as a data URI reference.
func (m *Materializer) Image(b model.ImageBlob) model.AssetReference {
	return model.AssetReference{
		Locator: media.DataURI(b.MimeType, b.Data),
		Kind:    model.MediaImage,
	}
}

func (m *Materializer) Images(blobs []model.ImageBlob) []model.AssetReference {
	out := make([]model.AssetReference, 0, len(blobs))
	for _, b := range blobs {
		out = append(out, m.Image(b))
	}
	return out
}

// Video downloads the finished job's binary and stores it locally. The
// provider's download link requires the API key as a query parameter.
func (m *Materializer) Video(ctx context.Context, result model.VideoResult) (model.AssetReference, error) {
	if result.DownloadURI == "" {
		return model.AssetReference{}, fmt.Errorf("%w: empty download link", ErrDownload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURI(result.DownloadURI, m.apiKey), nil)
	if err != nil {
		return model.AssetReference{}, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return model.AssetReference{}, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		m.log.Error("video_download_failed", "status", resp.StatusCode)
		return model.AssetReference{}, fmt.Errorf("%w: status %d", ErrDownload, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxVideoBytes))
	if err != nil {
		return model.AssetReference{}, fmt.Errorf("%w: %v", ErrDownload, err)
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = "video/mp4"
	}
	a := m.store.Put(model.MediaVideo, mime, data)
	m.log.Info("video_materialized", "asset_id", a.ID, "bytes", len(data))
	return model.AssetReference{Locator: Locator(a.ID), Kind: model.MediaVideo}, nil
}

// signedURI appends the API key, respecting whether the link already
// carries a query string.
func signedURI(uri, apiKey string) string {
	if apiKey == "" {
		return uri
	}
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + "key=" + url.QueryEscape(apiKey)
}
