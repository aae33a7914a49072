package util

import (
	"bytes"
	"fmt"
	"math"

	"github.com/disintegration/imaging"

	"sheet-grader/api/internal/ocr"
)

// PrepareImage decodes an uploaded picture and returns what is sent to the model.
// JPEG and PNG uploads within maxPixels go out untouched; anything else is
// re-encoded as JPEG, scaled down first when it is larger than maxPixels.
// maxPixels <= 0 disables scaling.
func PrepareImage(data []byte, maxPixels int) (ocr.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return ocr.Image{}, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return ocr.Image{}, fmt.Errorf("decode image: empty image")
	}

	total := w * h
	tooBig := maxPixels > 0 && total > maxPixels
	if mime := SniffMimeHTTP(data); mime != "" && !tooBig {
		return ocr.Image{Data: data, MIME: mime}, nil
	}

	if tooBig {
		scale := math.Sqrt(float64(maxPixels) / float64(total))
		newW := max(int(float64(w)*scale), 1)
		newH := max(int(float64(h)*scale), 1)
		img = imaging.Resize(img, newW, newH, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return ocr.Image{}, fmt.Errorf("encode image: %w", err)
	}
	return ocr.Image{Data: out.Bytes(), MIME: "image/jpeg"}, nil
}
