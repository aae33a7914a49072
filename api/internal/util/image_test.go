package util

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func sheet(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareImagePassThrough(t *testing.T) {
	data := encodePNG(t, sheet(40, 30))

	out, err := PrepareImage(data, 10_000)
	require.NoError(t, err)
	require.Equal(t, "image/png", out.MIME)
	require.Equal(t, data, out.Data)
}

func TestPrepareImageScalesDown(t *testing.T) {
	data := encodePNG(t, sheet(200, 100))

	out, err := PrepareImage(data, 5_000)
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", out.MIME)

	img, err := imaging.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	b := img.Bounds()
	require.LessOrEqual(t, b.Dx()*b.Dy(), 5_000)
	require.Equal(t, 100, b.Dx())
	require.Equal(t, 50, b.Dy())
}

func TestPrepareImageNoLimit(t *testing.T) {
	data := encodePNG(t, sheet(200, 100))

	out, err := PrepareImage(data, 0)
	require.NoError(t, err)
	require.Equal(t, data, out.Data)
}

func TestPrepareImageReencodesOtherFormats(t *testing.T) {
	var buf bytes.Buffer
	pal := image.NewPaletted(image.Rect(0, 0, 8, 8), []color.Color{color.White, color.Black})
	require.NoError(t, gif.Encode(&buf, pal, nil))

	out, err := PrepareImage(buf.Bytes(), 0)
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", out.MIME)
	require.Equal(t, "image/jpeg", SniffMimeHTTP(out.Data))
}

func TestPrepareImageRejectsGarbage(t *testing.T) {
	_, err := PrepareImage([]byte("definitely not an image"), 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode image")
}

func TestDecodeBase64MaybeDataURL(t *testing.T) {
	b, err := DecodeBase64MaybeDataURL("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), b)

	b, err = DecodeBase64MaybeDataURL("  aGVsbG8=\n")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), b)

	_, err = DecodeBase64MaybeDataURL("%%%")
	require.Error(t, err)
}

func TestAtoiDefault(t *testing.T) {
	n, err := AtoiDefault("", 10)
	require.NoError(t, err)
	require.Equal(t, 10, n)

	n, err = AtoiDefault(" 25 ", 10)
	require.NoError(t, err)
	require.Equal(t, 25, n)

	_, err = AtoiDefault("ten", 10)
	require.Error(t, err)
}
