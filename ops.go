package cvdata

// The augmentation operations and the default recipe.
//
// Pixel-level filtering is delegated to the imaging package. Operations that
// change the image geometry (rotation, scaling) transform the bounding boxes
// alongside the pixels; the transformed box is the axis-aligned hull of the
// transformed corners.

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
)

// Operation transforms an image together with its bounding boxes. The boxes
// passed in must not be modified in place.
type Operation func(rng *rand.Rand, img image.Image, boxes []Box) (image.Image, []Box)

// Sequential applies ops in order.
func Sequential(ops ...Operation) Operation {
	return func(rng *rand.Rand, img image.Image, boxes []Box) (image.Image, []Box) {
		for _, op := range ops {
			img, boxes = op(rng, img, boxes)
		}
		return img, boxes
	}
}

// SomeOf applies a random selection of between min and max of the given ops,
// in their given order.
func SomeOf(min, max int, ops ...Operation) Operation {
	if max > len(ops) {
		max = len(ops)
	}
	return func(rng *rand.Rand, img image.Image, boxes []Box) (image.Image, []Box) {
		n := min
		if max > min {
			n += rng.Intn(max - min + 1)
		}
		selected := rng.Perm(len(ops))[:n]

		mask := make([]bool, len(ops))
		for _, i := range selected {
			mask[i] = true
		}
		for i, op := range ops {
			if mask[i] {
				img, boxes = op(rng, img, boxes)
			}
		}
		return img, boxes
	}
}

// photometric lifts a pixel-only filter into an Operation. The boxes pass
// through unchanged.
func photometric(f func(rng *rand.Rand, img image.Image) image.Image) Operation {
	return func(rng *rand.Rand, img image.Image, boxes []Box) (image.Image, []Box) {
		return f(rng, img), boxes
	}
}

// uniform samples from [min, max].
func uniform(rng *rand.Rand, min, max float64) float64 {
	if min >= max {
		return min
	}
	return min + rng.Float64()*(max-min)
}

// GaussianBlur blurs the image with a sigma sampled from [minSigma, maxSigma].
func GaussianBlur(minSigma, maxSigma float64) Operation {
	return photometric(func(rng *rand.Rand, img image.Image) image.Image {
		return imaging.Blur(img, uniform(rng, minSigma, maxSigma))
	})
}

// Sharpen sharpens the image with a sigma sampled from [minSigma, maxSigma].
func Sharpen(minSigma, maxSigma float64) Operation {
	return photometric(func(rng *rand.Rand, img image.Image) image.Image {
		return imaging.Sharpen(img, uniform(rng, minSigma, maxSigma))
	})
}

// AddBrightness shifts all channels by a value sampled from [min, max],
// given in 8-bit steps.
func AddBrightness(min, max float64) Operation {
	return photometric(func(rng *rand.Rand, img image.Image) image.Image {
		return imaging.AdjustBrightness(img, uniform(rng, min, max)/255*100)
	})
}

// AddSaturation shifts the saturation by a percentage sampled from
// [min, max].
func AddSaturation(min, max float64) Operation {
	return photometric(func(rng *rand.Rand, img image.Image) image.Image {
		return imaging.AdjustSaturation(img, uniform(rng, min, max))
	})
}

// Grayscale converts the image to grayscale.
func Grayscale() Operation {
	return photometric(func(rng *rand.Rand, img image.Image) image.Image {
		return imaging.Grayscale(img)
	})
}

// AdditiveGaussianNoise adds gaussian noise with the given standard
// deviation, in 8-bit steps, independently per channel.
func AdditiveGaussianNoise(sigma float64) Operation {
	return photometric(func(rng *rand.Rand, img image.Image) image.Image {
		out := imaging.Clone(img)
		for i := 0; i < len(out.Pix); i += 4 {
			for c := 0; c < 3; c++ {
				v := float64(out.Pix[i+c]) + rng.NormFloat64()*sigma
				out.Pix[i+c] = uint8(math.Max(0, math.Min(255, math.Round(v))))
			}
		}
		return out
	})
}

// Rotate rotates the image counter-clockwise by the given angle in degrees,
// growing the canvas to fit, and rotates the boxes with it.
func Rotate(degrees float64) Operation {
	return RotateBetween(degrees, degrees)
}

// RotateBetween rotates by an angle sampled from [min, max] degrees.
func RotateBetween(min, max float64) Operation {
	return func(rng *rand.Rand, img image.Image, boxes []Box) (image.Image, []Box) {
		angle := uniform(rng, min, max)
		rotated := imaging.Rotate(img, angle, color.NRGBA{A: 255})
		srcBounds := img.Bounds()
		dstBounds := rotated.Bounds()
		return rotated, rotateBoxes(boxes, angle,
			srcBounds.Dx(), srcBounds.Dy(), dstBounds.Dx(), dstBounds.Dy())
	}
}

// rotateBoxes rotates the box corners counter-clockwise around the source
// image center, re-centers them on the grown destination canvas and takes
// the axis-aligned hull per box.
func rotateBoxes(boxes []Box, degrees float64, srcW, srcH, dstW, dstH int) []Box {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	// Box coordinates are pixel-edge based, so the pivot is w/2, not the
	// pixel-center (w-1)/2.
	srcCX, srcCY := float64(srcW)/2, float64(srcH)/2
	dstCX, dstCY := float64(dstW)/2, float64(dstH)/2

	out := make([]Box, len(boxes))
	for i, b := range boxes {
		corners := [4][2]float64{
			{b.Coords[0], b.Coords[1]},
			{b.Coords[2], b.Coords[1]},
			{b.Coords[2], b.Coords[3]},
			{b.Coords[0], b.Coords[3]},
		}

		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, c := range corners {
			dx, dy := c[0]-srcCX, c[1]-srcCY
			// Counter-clockwise rotation with the y axis pointing down.
			x := dstCX + dx*cos + dy*sin
			y := dstCY - dx*sin + dy*cos
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}

		out[i] = Box{Coords: [4]float64{minX, minY, maxX, maxY}, Label: b.Label}
	}

	return out
}

// Scale resizes the image by factors sampled independently per axis from
// [min, max] and scales the boxes by the factors actually applied.
func Scale(min, max float64) Operation {
	return func(rng *rand.Rand, img image.Image, boxes []Box) (image.Image, []Box) {
		bounds := img.Bounds()
		srcW, srcH := bounds.Dx(), bounds.Dy()

		dstW := int(math.Round(float64(srcW) * uniform(rng, min, max)))
		dstH := int(math.Round(float64(srcH) * uniform(rng, min, max)))
		if dstW < 1 {
			dstW = 1
		}
		if dstH < 1 {
			dstH = 1
		}

		resized := imaging.Resize(img, dstW, dstH, imaging.Linear)

		// Use the realized factors so the boxes stay exact after rounding.
		fx := float64(dstW) / float64(srcW)
		fy := float64(dstH) / float64(srcH)
		out := make([]Box, len(boxes))
		for i, b := range boxes {
			out[i] = Box{
				Coords: [4]float64{
					b.Coords[0] * fx, b.Coords[1] * fy,
					b.Coords[2] * fx, b.Coords[3] * fy,
				},
				Label: b.Label,
			}
		}
		return resized, out
	}
}

// DefaultAugments is the stock augmentation recipe: varied camera
// conditions, blur, noise, grayscale rotations and grayscale scaling.
func DefaultAugments() []Augment {
	augments := []Augment{
		{
			Name: "SimulateVariedCameraConditions",
			Op: SomeOf(1, 3,
				Sharpen(0.5, 1.5),
				AddBrightness(-10, 10),
				AddSaturation(-20, 20),
			),
			Repetitions: 5,
		},
		{Name: "Blur", Op: GaussianBlur(3.0, 5.0), Repetitions: 3},
		{Name: "AdditiveGaussianNoise", Op: AdditiveGaussianNoise(0.05 * 255)},
	}

	for _, degrees := range []float64{-15, -10, -5, 5, 10, 15} {
		suffix := fmt.Sprintf("%g", degrees)
		if degrees < 0 {
			suffix = fmt.Sprintf("Back%g", -degrees)
		}
		augments = append(augments, Augment{
			Name: "Rotate" + suffix,
			Op:   Sequential(Grayscale(), Rotate(degrees)),
		})
	}

	return append(augments,
		Augment{
			Name:        "Scale",
			Op:          Sequential(Grayscale(), Scale(0.8, 1.2), RotateBetween(-5, 5)),
			Repetitions: 5,
		},
		Augment{Name: "Original", Op: Grayscale()},
	)
}
