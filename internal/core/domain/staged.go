package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const defaultExtension = "bin"

// A StagedImage is a transport-encoded image that is not uploaded yet,
// e.g. "data:image/jpeg;base64,/9j/4AAQ...".
type StagedImage string

func NewStagedImage(mediaType string, data []byte) StagedImage {
	return StagedImage(
		"data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data),
	)
}

// Decode validates the "<metadata>,<payload>" shape and returns the media
// type and raw bytes. Every failure wraps [ErrInvalidImage].
func (s StagedImage) Decode() (mediaType string, data []byte, err error) {
	meta, payload, ok := strings.Cut(string(s), ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload separator", ErrInvalidImage)
	}

	meta, ok = strings.CutPrefix(meta, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data scheme", ErrInvalidImage)
	}

	meta, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: payload is not base64", ErrInvalidImage)
	}

	mediaType = strings.ToLower(meta)
	subtype, ok := strings.CutPrefix(mediaType, "image/")
	if !ok || subtype == "" {
		return "", nil, fmt.Errorf("%w: unsupported media type %q", ErrInvalidImage, meta)
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	return mediaType, data, nil
}

// ExtensionFor maps an image media type to a file extension without dot.
func ExtensionFor(mediaType string) string {
	switch strings.ToLower(mediaType) {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "image/avif":
		return "avif"
	case "image/svg+xml":
		return "svg"
	}
	return defaultExtension
}
