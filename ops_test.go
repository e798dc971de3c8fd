package cvdata

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testImage returns a black width x height image with the given box areas
// painted white.
func testImage(width, height int, boxes ...Box) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	for _, b := range boxes {
		for y := int(b.Coords[1]); y < int(b.Coords[3]); y++ {
			for x := int(b.Coords[0]); x < int(b.Coords[2]); x++ {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}
	return img
}

// whiteBounds returns the bounding box of all bright pixels in img.
func whiteBounds(t *testing.T, img image.Image) [4]float64 {
	t.Helper()
	bounds := img.Bounds()
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X-1, bounds.Min.Y-1
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r > 0x7fff && g > 0x7fff && b > 0x7fff {
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if x > maxX {
					maxX = x
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	require.LessOrEqual(t, minX, maxX, "no bright pixels found")
	return [4]float64{float64(minX), float64(minY), float64(maxX + 1), float64(maxY + 1)}
}

func TestRotate90MapsBoxes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	box := Box{Coords: [4]float64{10, 5, 20, 15}, Label: "widget"}
	img := testImage(40, 20, box)

	rotated, boxes := Rotate(90)(rng, img, []Box{box})

	// The canvas grows to fit: 40x20 becomes 20x40.
	assert.Equal(t, 20, rotated.Bounds().Dx())
	assert.Equal(t, 40, rotated.Bounds().Dy())

	require.Len(t, boxes, 1)
	assert.Equal(t, "widget", boxes[0].Label)
	assert.InDelta(t, 5, boxes[0].Coords[0], coordEpsilon)
	assert.InDelta(t, 20, boxes[0].Coords[1], coordEpsilon)
	assert.InDelta(t, 15, boxes[0].Coords[2], coordEpsilon)
	assert.InDelta(t, 30, boxes[0].Coords[3], coordEpsilon)

	// The painted object and the transformed box agree exactly at right
	// angles.
	assert.Equal(t, [4]float64{5, 20, 15, 30}, whiteBounds(t, rotated))
}

func TestRotatedBoxStillBoundsObject(t *testing.T) {
	for _, degrees := range []float64{-15, -5, 5, 15, 30} {
		rng := rand.New(rand.NewSource(1))
		box := Box{Coords: [4]float64{24, 16, 56, 40}, Label: "widget"}
		img := testImage(80, 60, box)

		rotated, boxes := Rotate(degrees)(rng, img, []Box{box})
		require.Len(t, boxes, 1)

		// The transformed box must still tightly bound the painted object.
		// Interpolation at the edges allows for a small tolerance.
		got := boxes[0].Coords
		object := whiteBounds(t, rotated)
		for i := 0; i < 4; i++ {
			assert.InDelta(t, object[i], got[i], 2.5, "angle %g coord %d", degrees, i)
		}
	}
}

func TestScaleBoxesFollowImage(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	box := Box{Coords: [4]float64{10, 20, 30, 40}, Label: "widget"}
	img := testImage(100, 80, box)

	scaled, boxes := Scale(0.5, 0.5)(rng, img, []Box{box})

	assert.Equal(t, 50, scaled.Bounds().Dx())
	assert.Equal(t, 40, scaled.Bounds().Dy())
	require.Len(t, boxes, 1)
	assert.Equal(t, [4]float64{5, 10, 15, 20}, boxes[0].Coords)
}

func TestPhotometricOpsPreserveGeometry(t *testing.T) {
	ops := map[string]Operation{
		"blur":       GaussianBlur(1, 2),
		"sharpen":    Sharpen(0.5, 1.5),
		"brightness": AddBrightness(-10, 10),
		"saturation": AddSaturation(-20, 20),
		"grayscale":  Grayscale(),
		"noise":      AdditiveGaussianNoise(12.75),
	}

	for name, op := range ops {
		rng := rand.New(rand.NewSource(7))
		boxes := []Box{{Coords: [4]float64{10, 20, 30, 40}, Label: "widget"}}
		img := testImage(100, 80, boxes[0])

		out, outBoxes := op(rng, img, boxes)

		assert.Equal(t, img.Bounds().Dx(), out.Bounds().Dx(), name)
		assert.Equal(t, img.Bounds().Dy(), out.Bounds().Dy(), name)
		assert.Equal(t, boxes, outBoxes, name)
	}
}

func TestSequentialComposes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	box := Box{Coords: [4]float64{10, 20, 30, 40}, Label: "widget"}
	img := testImage(100, 80, box)

	op := Sequential(Scale(0.5, 0.5), Scale(0.5, 0.5))
	out, boxes := op(rng, img, []Box{box})

	assert.Equal(t, 25, out.Bounds().Dx())
	assert.Equal(t, 20, out.Bounds().Dy())
	require.Len(t, boxes, 1)
	assert.Equal(t, [4]float64{2.5, 5, 7.5, 10}, boxes[0].Coords)
}

func TestSomeOfAppliesBetweenMinAndMax(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	img := testImage(10, 10)

	counting := func(counter *int) Operation {
		return func(rng *rand.Rand, img image.Image, boxes []Box) (image.Image, []Box) {
			*counter++
			return img, boxes
		}
	}

	for i := 0; i < 100; i++ {
		var a, b, c int
		op := SomeOf(1, 3, counting(&a), counting(&b), counting(&c))
		op(rng, img, nil)

		n := a + b + c
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 3)
	}
}

func TestOperationsAreDeterministicForASeed(t *testing.T) {
	box := Box{Coords: [4]float64{24, 16, 56, 40}, Label: "widget"}
	img := testImage(80, 60, box)
	op := Sequential(Grayscale(), Scale(0.8, 1.2), RotateBetween(-5, 5))

	out1, boxes1 := op(rand.New(rand.NewSource(3)), img, []Box{box})
	out2, boxes2 := op(rand.New(rand.NewSource(3)), img, []Box{box})

	assert.Equal(t, out1.Bounds(), out2.Bounds())
	assert.Equal(t, boxes1, boxes2)
}

func TestDefaultAugments(t *testing.T) {
	augments := DefaultAugments()
	require.Len(t, augments, 11)

	names := make(map[string]int)
	outputs := 0
	for _, a := range augments {
		names[a.Name] = a.repetitions()
		outputs += a.repetitions()
	}

	assert.Equal(t, 5, names["SimulateVariedCameraConditions"])
	assert.Equal(t, 3, names["Blur"])
	assert.Equal(t, 1, names["AdditiveGaussianNoise"])
	assert.Equal(t, 1, names["Rotate15"])
	assert.Equal(t, 1, names["RotateBack15"])
	assert.Equal(t, 5, names["Scale"])
	assert.Equal(t, 1, names["Original"])
	assert.Equal(t, 21, outputs)
}
