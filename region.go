package cvdata

// The intermediate representations for object bounding boxes.
//
// Regions use the normalized coordinates that both the YOLO label format and
// the Custom Vision API speak: offsets and extents as ratios of the image
// size. Boxes use absolute pixel offsets, which is what the augmentation
// operations work in. Converting between the two must be lossless up to
// floating-point rounding.

import (
	"fmt"
	"math"
)

// Region is an object annotation in normalized image coordinates.
//
// Left and Top are the offsets of the top-left corner from the image origin,
// Width and Height the extents, all as ratios in [0, 1] of the image
// dimensions.
type Region struct {
	Label  string
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Box converts the region to absolute pixel coordinates for an image of the
// given dimensions.
func (r Region) Box(imgWidth, imgHeight int) Box {
	w := float64(imgWidth)
	h := float64(imgHeight)
	return Box{
		Coords: [4]float64{r.Left * w, r.Top * h, (r.Left + r.Width) * w, (r.Top + r.Height) * h},
		Label:  r.Label,
	}
}

// Box is an object annotation in absolute pixel coordinates.
type Box struct {
	Coords [4]float64 // x1, y1, x2, y2 offsets from the top-left corner.
	Label  string
}

// Width is the object width from b.Coords.
func (b Box) Width() float64 {
	return b.Coords[2] - b.Coords[0]
}

// Height is the object height from b.Coords.
func (b Box) Height() float64 {
	return b.Coords[3] - b.Coords[1]
}

// Region converts the box back to normalized coordinates for an image of the
// given dimensions.
func (b Box) Region(imgWidth, imgHeight int) (Region, error) {
	if imgWidth <= 0 || imgHeight <= 0 {
		return Region{}, fmt.Errorf("invalid image dimensions %dx%d", imgWidth, imgHeight)
	}
	w := float64(imgWidth)
	h := float64(imgHeight)
	return Region{
		Label:  b.Label,
		Left:   b.Coords[0] / w,
		Top:    b.Coords[1] / h,
		Width:  (b.Coords[2] - b.Coords[0]) / w,
		Height: (b.Coords[3] - b.Coords[1]) / h,
	}, nil
}

// Clip restricts the box to the image area [0,w]x[0,h].
func (b Box) Clip(imgWidth, imgHeight int) Box {
	b.Coords[0] = math.Max(0, math.Min(b.Coords[0], float64(imgWidth)))
	b.Coords[1] = math.Max(0, math.Min(b.Coords[1], float64(imgHeight)))
	b.Coords[2] = math.Max(0, math.Min(b.Coords[2], float64(imgWidth)))
	b.Coords[3] = math.Max(0, math.Min(b.Coords[3], float64(imgHeight)))
	return b
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// boxesFromRegions converts all regions to pixel coordinates.
func boxesFromRegions(regions []Region, imgWidth, imgHeight int) []Box {
	boxes := make([]Box, len(regions))
	for i, r := range regions {
		boxes[i] = r.Box(imgWidth, imgHeight)
	}
	return boxes
}

// regionsFromBoxes converts boxes back to normalized coordinates, clipping
// them to the image area and dropping boxes that end up with no area.
func regionsFromBoxes(boxes []Box, imgWidth, imgHeight int) ([]Region, error) {
	regions := make([]Region, 0, len(boxes))
	for _, b := range boxes {
		b = b.Clip(imgWidth, imgHeight)
		if b.Empty() {
			continue
		}
		r, err := b.Region(imgWidth, imgHeight)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}
