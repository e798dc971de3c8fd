package cvdata

// Loading and splitting of YOLO-format dataset directories.

import (
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"sort"
	"time"
)

// AnnotatedImage is an image file together with its object regions.
type AnnotatedImage struct {
	Regions   []Region // The annotations, in normalized coordinates.
	ImagePath string   // The annotated image file.
	LabelPath string   // The YOLO label file the regions were read from.
}

// Dataset is a set of annotated images sharing one class name list.
type Dataset struct {
	ClassNames []string
	Files      []AnnotatedImage
}

// LoadYOLO reads a YOLO dataset directory: a class.names file plus one .txt
// label file per image, matched to the image by base name.
//
// Label files without a matching image are logged and skipped.
func LoadYOLO(dir string) (*Dataset, error) {
	classNames, err := ReadClassNames(filepath.Join(dir, ClassNamesFile))
	if err != nil {
		return nil, err
	}

	labelFiles, err := filesByExtInDir(dir, ".txt")
	if err != nil {
		return nil, err
	}
	sort.Strings(labelFiles)
	log.Printf("Parsing labels for %d files", len(labelFiles))

	// Find the image files and create a map from base file name without ext
	// to ext.
	allFiles, err := filesByExtInDir(dir, "")
	if err != nil {
		return nil, err
	}
	imageNamesToExt := make(map[string]string, len(allFiles))
	for name, ext := range mapFileNamesToExtensions(allFiles) {
		if ext != "txt" && ext != "names" {
			imageNamesToExt[name] = ext
		}
	}

	files := make([]AnnotatedImage, 0, len(labelFiles))
	for _, labelPath := range labelFiles {
		_, baseNoExt, _, err := splitPath(labelPath)
		if err != nil {
			log.Printf("Error while parsing, skipping %q: %v", labelPath, err)
			continue
		}
		imageExt, found := imageNamesToExt[baseNoExt]
		if !found {
			log.Printf("No corresponding image file, skipping %q", labelPath)
			continue
		}

		regions, err := ParseLabelFile(labelPath, classNames)
		if err != nil {
			log.Printf("Error while parsing, skipping %q: %v", labelPath, err)
			continue
		}

		files = append(files, AnnotatedImage{
			Regions:   regions,
			ImagePath: filepath.Join(dir, baseNoExt+"."+imageExt),
			LabelPath: labelPath,
		})
	}

	return &Dataset{ClassNames: classNames, Files: files}, nil
}

// Split randomly splits the dataset into multiple datasets.
//
// The cumulativeSplits specify the cumulative distribution according to which
// the files are split into the returned datasets. Its values must add up
// to 100.
func (d *Dataset) Split(cumulativeSplits []int) ([]*Dataset, error) {
	datasets := make([]*Dataset, len(cumulativeSplits))

	// Allocate slightly more than the expected size for each dataset.
	var sum int
	for i, s := range cumulativeSplits {
		percent := s - sum
		datasets[i] = &Dataset{
			ClassNames: d.ClassNames,
			Files:      make([]AnnotatedImage, 0, int(1.05*float64(percent)/100*float64(len(d.Files)))),
		}
		sum = s
	}
	if sum != 100 {
		return nil, fmt.Errorf("the split percentages do not add up to 100")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

outer:
	for _, f := range d.Files {
		r := rng.Intn(100)
		for i, s := range cumulativeSplits {
			if r < s {
				datasets[i].Files = append(datasets[i].Files, f)
				continue outer
			}
		}
	}

	return datasets, nil
}

// batches chunks the dataset files into fixed-size groups, preserving order.
// The final batch may be smaller.
func (d *Dataset) batches(size int) [][]AnnotatedImage {
	if size <= 0 {
		size = len(d.Files)
	}
	if size == 0 {
		return nil
	}
	var out [][]AnnotatedImage
	for i := 0; i < len(d.Files); i += size {
		end := i + size
		if end > len(d.Files) {
			end = len(d.Files)
		}
		out = append(out, d.Files[i:end])
	}
	return out
}
