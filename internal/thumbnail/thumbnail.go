// Package thumbnail renders the square JPEG stored with an enrolled identity.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/detection"
)

// ErrEmptyImage is returned for a zero-length frame.
var ErrEmptyImage = errors.New("empty image")

// cropRect converts a face box into a rectangle clipped to bounds. A box that
// misses the frame yields the whole frame.
func cropRect(bounds image.Rectangle, box *detection.Box) image.Rectangle {
	if box == nil || box.Width <= 0 || box.Height <= 0 {
		return bounds
	}
	r := image.Rect(
		bounds.Min.X+int(box.X),
		bounds.Min.Y+int(box.Y),
		bounds.Min.X+int(box.X+box.Width),
		bounds.Min.Y+int(box.Y+box.Height),
	).Intersect(bounds)
	if r.Empty() {
		return bounds
	}
	return r
}

// Make decodes a frame, optionally crops it to a face box and scales it to a
// square of constants.ThumbnailSize, encoded as JPEG.
func Make(frame []byte, box *detection.Box) ([]byte, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyImage
	}
	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	src := cropRect(img.Bounds(), box)
	dst := image.NewRGBA(image.Rect(0, 0, constants.ThumbnailSize, constants.ThumbnailSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: constants.ThumbnailQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
