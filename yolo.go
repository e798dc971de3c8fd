package cvdata

// YOLO label format specific functionality.
//
// A label file holds one line per object:
//
//	<class_index> <center_x> <center_y> <width> <height>
//
// with the four numeric fields normalized to [0, 1] relative to the image
// dimensions. Class names live in a class.names file next to the labels, one
// name per line; the class index is the line number.

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ClassNamesFile is the file holding the class name list for a dataset
// directory.
const ClassNamesFile = "class.names"

// ReadClassNames reads the class name list from the file at path. Blank lines
// are skipped.
func ReadClassNames(path string) ([]string, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			names = append(names, l)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no class names in %q", path)
	}

	return names, nil
}

// WriteClassNames writes the class name list to the file at path, one name
// per line.
func WriteClassNames(path string, names []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(f, &err)

	_, err = f.WriteString(strings.Join(names, "\n"))
	return err
}

// ParseLabelFile reads and parses the YOLO label file at path, resolving
// class indices against classNames.
func ParseLabelFile(path string, classNames []string) ([]Region, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	regions := make([]Region, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		r, err := parseLabelLine(line, classNames)
		if err != nil {
			return nil, fmt.Errorf("%q: %v", path, err)
		}
		regions = append(regions, r)
	}

	return regions, nil
}

// parseLabelLine parses the values for a single annotation. The stored
// center coordinates are converted to the top-left origin of Region.
func parseLabelLine(line string, classNames []string) (Region, error) {
	tokens := strings.Fields(line)
	if len(tokens) != 5 {
		return Region{}, fmt.Errorf("expected 5 tokens in %q", line)
	}

	classIdx, err := strconv.Atoi(tokens[0])
	if err != nil || classIdx < 0 || classIdx >= len(classNames) {
		return Region{}, fmt.Errorf("invalid class index in %q", line)
	}

	var v [4]float64
	for i := 1; i < 5 && err == nil; i++ {
		v[i-1], err = strconv.ParseFloat(tokens[i], 64)
	}
	if err != nil {
		return Region{}, fmt.Errorf("unexpected values in %q: %v", line, err)
	}

	return Region{
		Label:  classNames[classIdx],
		Left:   v[0] - v[2]/2,
		Top:    v[1] - v[3]/2,
		Width:  v[2],
		Height: v[3],
	}, nil
}

// WriteLabelFile writes regions to the YOLO label file at path. Every region
// label must appear in classNames.
func WriteLabelFile(path string, regions []Region, classNames []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(f, &err)

	lines := make([]string, 0, len(regions))
	for _, r := range regions {
		line, err := formatLabelLine(r, classNames)
		if err != nil {
			return fmt.Errorf("%q: %v", path, err)
		}
		lines = append(lines, line)
	}

	_, err = f.WriteString(strings.Join(lines, "\n"))
	return err
}

// formatLabelLine renders a single annotation, converting the top-left
// origin back to the stored center coordinates.
func formatLabelLine(r Region, classNames []string) (string, error) {
	classIdx := -1
	for i, name := range classNames {
		if name == r.Label {
			classIdx = i
			break
		}
	}
	if classIdx < 0 {
		return "", fmt.Errorf("label %q is not in the class name list", r.Label)
	}

	return fmt.Sprintf("%d %g %g %g %g",
		classIdx, r.Left+r.Width/2, r.Top+r.Height/2, r.Width, r.Height), nil
}
