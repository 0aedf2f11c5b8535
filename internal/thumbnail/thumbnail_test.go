package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestFit(t *testing.T) {
	t.Run("small picture passes through untouched", func(t *testing.T) {
		data := encodeJPEG(t, 200, 150)

		out, err := Fit(data, 200, 150)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	})

	t.Run("large picture becomes a 320px square", func(t *testing.T) {
		data := encodeJPEG(t, 800, 600)

		out, err := Fit(data, 800, 600)
		require.NoError(t, err)

		img, format, err := image.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, MaxEdge, img.Bounds().Dx())
		assert.Equal(t, MaxEdge, img.Bounds().Dy())
	})

	t.Run("tall picture is center-cropped square", func(t *testing.T) {
		data := encodeJPEG(t, 400, 1200)

		out, err := Fit(data, 400, 1200)
		require.NoError(t, err)

		img, _, err := image.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, MaxEdge, img.Bounds().Dx())
		assert.Equal(t, MaxEdge, img.Bounds().Dy())
	})

	t.Run("one oversized edge triggers the resize", func(t *testing.T) {
		data := encodeJPEG(t, 500, 100)

		out, err := Fit(data, 500, 100)
		require.NoError(t, err)
		assert.NotEqual(t, data, out)
	})

	t.Run("garbage input fails to decode", func(t *testing.T) {
		_, err := Fit([]byte("not an image"), 800, 600)
		assert.Error(t, err)
	})
}
