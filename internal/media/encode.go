package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"storyboard/server/internal/model"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

var (
	ErrEncoding    = errors.New("encoding failed")
	ErrUnsupported = errors.New("unsupported image type")
)

// MaxUploadBytes bounds a single upload. Generation requests carry the
// payload inline, so oversized uploads would bloat every submission.
const MaxUploadBytes = 20 << 20

var allowedTypes = map[string]bool{
	matchers.TypePng.MIME.Value:  true,
	matchers.TypeJpeg.MIME.Value: true,
	matchers.TypeWebp.MIME.Value: true,
}

// Encode reads a user-selected file and produces an ImageBlob: the
// base64 payload that travels in generation requests plus a data-URI
// preview the UI can display locally. The MIME type is sniffed from the
// bytes rather than trusted from the upload metadata.
func Encode(r io.Reader) (model.ImageBlob, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return model.ImageBlob{}, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if len(data) == 0 {
		return model.ImageBlob{}, fmt.Errorf("%w: empty file", ErrEncoding)
	}
	if len(data) > MaxUploadBytes {
		return model.ImageBlob{}, fmt.Errorf("%w: file exceeds %d bytes", ErrEncoding, MaxUploadBytes)
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return model.ImageBlob{}, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if kind == filetype.Unknown || !allowedTypes[kind.MIME.Value] {
		return model.ImageBlob{}, fmt.Errorf("%w: want PNG, JPEG or WEBP", ErrUnsupported)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	return model.ImageBlob{
		Data:     encoded,
		MimeType: kind.MIME.Value,
		Preview:  DataURI(kind.MIME.Value, encoded),
	}, nil
}

// DataURI renders an already-encoded payload as an inline data locator.
func DataURI(mimeType, base64Data string) string {
	return "data:" + mimeType + ";base64," + base64Data
}

// SplitDataURI is the inverse of DataURI. It returns the MIME type and
// the base64 payload, or an error if the locator is not a data URI.
func SplitDataURI(uri string) (mimeType, base64Data string, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", "", fmt.Errorf("%w: not a data URI", ErrEncoding)
	}
	mimeType, base64Data, ok = strings.Cut(rest, ";base64,")
	if !ok {
		return "", "", fmt.Errorf("%w: missing base64 marker", ErrEncoding)
	}
	return mimeType, base64Data, nil
}
