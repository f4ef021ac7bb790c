package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

// Minimal valid PNG header plus padding so filetype can sniff it.
var pngBytes = append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 64)...)

func TestEncodePNG(t *testing.T) {
	blob, err := Encode(bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if blob.MimeType != "image/png" {
		t.Fatalf("mime type = %q, want image/png", blob.MimeType)
	}
	decoded, err := base64.StdEncoding.DecodeString(blob.Data)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !bytes.Equal(decoded, pngBytes) {
		t.Fatalf("payload does not round-trip")
	}
	if !strings.HasPrefix(blob.Preview, "data:image/png;base64,") {
		t.Fatalf("preview = %q, want data URI", blob.Preview)
	}
}

func TestEncodeEmptyFile(t *testing.T) {
	_, err := Encode(bytes.NewReader(nil))
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("err = %v, want ErrEncoding", err)
	}
}

func TestEncodeRejectsUnknownType(t *testing.T) {
	_, err := Encode(strings.NewReader("definitely not an image payload"))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestSplitDataURI(t *testing.T) {
	mime, data, err := SplitDataURI("data:image/jpeg;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if mime != "image/jpeg" || data != "aGVsbG8=" {
		t.Fatalf("got (%q, %q)", mime, data)
	}
	if _, _, err := SplitDataURI("https://example.com/a.jpg"); err == nil {
		t.Fatalf("expected error for non-data URI")
	}
}
