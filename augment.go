package cvdata

// Batch-oriented augmentation of a YOLO dataset directory.

import (
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Augment is a named, repeatable augmentation operation. The name becomes
// part of the output file names.
type Augment struct {
	Name        string
	Op          Operation
	Repetitions int // The number of times Op is applied. Values <= 1 mean once.
}

func (a Augment) repetitions() int {
	if a.Repetitions <= 1 {
		return 1
	}
	return a.Repetitions
}

// outputBase derives the output base file name for repetition rep from the
// source base name.
func (a Augment) outputBase(srcBase string, rep int) string {
	if a.repetitions() == 1 {
		return fmt.Sprintf("%s_%s", srcBase, a.Name)
	}
	return fmt.Sprintf("%s_%s_rep%d", srcBase, a.Name, rep)
}

// augmentBatchSize is the number of files grouped into one processing batch.
const augmentBatchSize = 100

// AugmentOptions configures Dataset.Augment.
type AugmentOptions struct {
	Augments       []Augment // The operations to apply. Nil selects DefaultAugments.
	Seed           int64     // Seed for the operation randomness. Zero means 1.
	SingleThreaded bool      // Process images in one worker instead of a pool.
	SkipOriginals  bool      // Do not copy the source files into the output directory.
	PreviewDir     string    // Write box overlays here instead of dataset outputs.
	JPEGQuality    int       // Quality for JPEG outputs. Zero means 90.
}

// Augment applies every configured operation to every file in the dataset
// and writes the augmented images with their transformed label files to
// outDir. Output base names are <base>_<op> or <base>_<op>_rep<i> for
// repeated operations.
//
// Unless opts.SkipOriginals is set, the source images and labels are copied
// to outDir as well, along with the class name list.
//
// With opts.PreviewDir set, augmented images with their boxes drawn on are
// written there instead and outDir is left untouched.
func (d *Dataset) Augment(outDir string, opts AugmentOptions) error {
	augments := opts.Augments
	if augments == nil {
		augments = DefaultAugments()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = 1
	}
	jpegQuality := opts.JPEGQuality
	if jpegQuality <= 0 {
		jpegQuality = 90
	}
	preview := opts.PreviewDir != ""

	outputsPerFile := 0
	for _, a := range augments {
		outputsPerFile += a.repetitions()
	}

	if !preview {
		if err := WriteClassNames(filepath.Join(outDir, ClassNamesFile), d.ClassNames); err != nil {
			return err
		}
		if !opts.SkipOriginals {
			if err := d.copyOriginals(outDir); err != nil {
				return err
			}
		}
	}

	numTasks := 2 * runtime.NumCPU()
	if opts.SingleThreaded {
		numTasks = 1
	}

	bar := progressbar.Default(int64(len(d.Files)*outputsPerFile), "Augmenting")
	errs := make(chan error, 1)
	trySendError := func(err error) {
		select {
		case errs <- err:
		default:
		}
	}

	// Process in fixed-size batches, spreading the files of a batch over the
	// worker pool. Every file derives its own rng from the seed and its
	// global index, so outputs do not depend on pool scheduling.
	for batchIdx, batch := range d.batches(augmentBatchSize) {
		type task struct {
			file    AnnotatedImage
			fileIdx int
		}
		workQueue := make(chan task, len(batch))

		var wg sync.WaitGroup
		wg.Add(numTasks)
		for i := 0; i < numTasks; i++ {
			go func() {
				defer wg.Done()
				for t := range workQueue {
					rng := rand.New(rand.NewSource(seed + int64(t.fileIdx)))
					err := augmentFile(t.file, augments, rng, outDir, opts.PreviewDir,
						d.ClassNames, jpegQuality, bar)
					if err != nil {
						trySendError(err)
					}
				}
			}()
		}

		for i, f := range batch {
			workQueue <- task{file: f, fileIdx: batchIdx*augmentBatchSize + i}
		}
		close(workQueue)
		wg.Wait()
	}

	_ = bar.Finish()

	close(errs)
	if len(errs) > 0 {
		return <-errs
	}
	return nil
}

// augmentFile applies all augments to a single file and writes the outputs.
func augmentFile(f AnnotatedImage, augments []Augment, rng *rand.Rand, outDir,
		previewDir string, classNames []string, jpegQuality int,
		bar *progressbar.ProgressBar) error {

	src, _, err := loadImage(f.ImagePath)
	if err != nil {
		return fmt.Errorf("failed to load %q: %v", f.ImagePath, err)
	}
	srcBounds := src.Bounds()
	srcBoxes := boxesFromRegions(f.Regions, srcBounds.Dx(), srcBounds.Dy())

	_, srcBase, srcExt, err := splitPath(f.ImagePath)
	if err != nil {
		return err
	}

	for _, a := range augments {
		for rep := 0; rep < a.repetitions(); rep++ {
			img, boxes := a.Op(rng, src, srcBoxes)
			base := a.outputBase(srcBase, rep)

			if previewDir != "" {
				overlay := drawBoxes(img, boxes)
				if err := saveImage(filepath.Join(previewDir, base+"."+srcExt),
						overlay, jpegQuality); err != nil {
					return err
				}
				_ = bar.Add(1)
				continue
			}

			imgPath := filepath.Join(outDir, base+"."+srcExt)
			if err := saveImage(imgPath, img, jpegQuality); err != nil {
				return err
			}

			outBounds := img.Bounds()
			regions, err := regionsFromBoxes(boxes, outBounds.Dx(), outBounds.Dy())
			if err != nil {
				return fmt.Errorf("%q: %v", imgPath, err)
			}
			labelPath := filepath.Join(outDir, base+".txt")
			if err := WriteLabelFile(labelPath, regions, classNames); err != nil {
				return err
			}

			_ = bar.Add(1)
		}
	}

	return nil
}

// copyOriginals copies the source image and label files into outDir.
func (d *Dataset) copyOriginals(outDir string) error {
	log.Printf("Copying %d original files", len(d.Files))
	for _, f := range d.Files {
		if err := copyFile(f.LabelPath, filepath.Join(outDir, filepath.Base(f.LabelPath))); err != nil {
			return err
		}
		if err := copyFile(f.ImagePath, filepath.Join(outDir, filepath.Base(f.ImagePath))); err != nil {
			return err
		}
	}
	return nil
}
