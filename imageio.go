package cvdata

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// decodeImageConfig opens the file at path and returns the results of
// image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	return image.DecodeConfig(file)
}

// loadImage reads and decodes the image at path and returns the results of
// image.Decode.
func loadImage(path string) (img image.Image, format string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	return image.Decode(f)
}

// saveImage saves the image to path, encoding it as PNG or JPG, depending on
// the file extension of path.
func saveImage(path string, img image.Image, jpegQuality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality})
	}
	return err
}

// previewColor is the border color for preview box overlays.
var previewColor = color.NRGBA{R: 255, A: 255}

// drawBoxes returns a copy of img with a border drawn along each box, for
// visual inspection of augmented outputs.
func drawBoxes(img image.Image, boxes []Box) *image.NRGBA {
	out := imaging.Clone(img)
	bounds := out.Bounds()

	for _, b := range boxes {
		b = b.Clip(bounds.Dx(), bounds.Dy())
		if b.Empty() {
			continue
		}
		x1, y1 := int(b.Coords[0]), int(b.Coords[1])
		x2, y2 := int(b.Coords[2])-1, int(b.Coords[3])-1

		for x := x1; x <= x2; x++ {
			out.SetNRGBA(x, y1, previewColor)
			out.SetNRGBA(x, y2, previewColor)
		}
		for y := y1; y <= y2; y++ {
			out.SetNRGBA(x1, y, previewColor)
			out.SetNRGBA(x2, y, previewColor)
		}
	}

	return out
}
