// Package thumbnail prepares artwork for the Telegram API, which accepts
// only square JPEG thumbnails with sides of at most 320 px.
package thumbnail

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// MaxEdge is the Telegram thumbnail side limit in pixels.
const MaxEdge = 320

// Fit center-crops the picture to a square and downscales it to MaxEdge.
// Pictures already within the limit pass through untouched.
func Fit(data []byte, width, height int) ([]byte, error) {
	if width < MaxEdge && height < MaxEdge {
		return data, nil
	}

	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode artwork: %w", err)
	}

	square := imaging.Fill(src, MaxEdge, MaxEdge, imaging.Center, imaging.Lanczos)

	var out bytes.Buffer
	if err := imaging.Encode(&out, square, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return out.Bytes(), nil
}
