package pictures

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/erazemk/orodjarna/internal/model"
)

// Stored pictures are JPEGs no larger than MaxSide on either side.
const (
	MaxSide = 1024
	Quality = 85
)

// ContentType is the MIME type of every stored picture.
const ContentType = "image/jpeg"

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ErrUnsupportedFormat is returned for uploads that are not JPEG, PNG or WebP.
var ErrUnsupportedFormat = fmt.Errorf("unsupported picture format: %w", model.ErrInvalidArgument)

// Normalize sniffs an uploaded picture, shrinks it to fit MaxSide and
// re-encodes it as JPEG. Client-supplied content types are ignored.
func Normalize(data []byte) ([]byte, error) {
	if kind := http.DetectContentType(data); !accepted[kind] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding picture: %w", model.ErrInvalidArgument)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fit(img, MaxSide), &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encoding picture: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales img down so its longer side is at most side. Smaller images are
// returned unchanged.
func fit(img image.Image, side int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= side && h <= side {
		return img
	}

	scale := float64(side) / float64(max(w, h))
	dw := max(1, int(float64(w)*scale))
	dh := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
