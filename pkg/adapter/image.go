package adapter

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/teslashibe/go-liveclass/pkg/classifier"
)

// LoadImage decodes a still image from disk, applying its EXIF orientation.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	return img, nil
}

// AdaptImage converts a decoded image into a signal without OpenCV.
// Go images are already RGB ordered, so only resize and pack are needed.
// An empty image yields an all-zero signal.
func AdaptImage(img image.Image, width, height int) *classifier.Signal {
	sig := classifier.NewSignal(width, height)
	if width <= 0 || height <= 0 || img == nil || img.Bounds().Empty() {
		return sig
	}

	resized := imaging.Resize(img, width, height, imaging.Linear)
	for y := 0; y < height; y++ {
		row := resized.Pix[y*resized.Stride : y*resized.Stride+width*4]
		for x := 0; x < width; x++ {
			p := row[x*4 : x*4+4]
			sig.Set(y*width+x, classifier.Pack(p[0], p[1], p[2]))
		}
	}
	return sig
}
