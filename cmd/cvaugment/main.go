// Applies the configured set of augmentations to every image in the input
// directory, transforming the YOLO bounding box annotations in lockstep.
package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/sensile/cvdata"
)

var (
	inDirPath      string // The input directory with the labeled images.
	outDirPath     string // The output directory for the augmented dataset.
	previewDirPath string // Write box overlays here instead of dataset outputs.
	singleThreaded bool   // Process images in one worker instead of a pool.
	skipOriginals  bool   // Do not copy the originals into the output directory.
	seed           int64  // The seed for the augmentation randomness.
	jpegQuality    int    // The quality for JPEG outputs.
)

func init() {
	flag.StringVarP(&inDirPath, "input", "i", "",
		"The `path` to the input directory, e.g. ./downloads/")
	flag.StringVarP(&outDirPath, "output", "o", "",
		"The `path` to the output directory")
	flag.StringVarP(&previewDirPath, "preview-dir", "p", "",
		"Write augmented images with their boxes drawn to this `path` instead of"+
				" writing dataset outputs")
	flag.BoolVarP(&singleThreaded, "single-threaded", "s", false,
		"Process images in one thread instead of multithreading")
	flag.BoolVar(&skipOriginals, "skip-originals", false,
		"Prevent original images from being copied into the destination folder")
	flag.Int64Var(&seed, "seed", 1,
		"The seed for the augmentation randomness")
	flag.IntVar(&jpegQuality, "jpeg-quality", 90,
		"The quality to use when encoding JPEGs [1, 100]")
	flag.Parse()

	if inDirPath == "" || (outDirPath == "" && previewDirPath == "") {
		log.Print("Missing input or output directory")
		flag.Usage()
		os.Exit(1)
	}
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = 90
		log.Print("Invalid JPEG quality, setting it to ", jpegQuality)
	}

	inDirPath = filepath.Clean(inDirPath)
	if outDirPath != "" {
		outDirPath = filepath.Clean(outDirPath)
		if inDirPath == outDirPath {
			log.Fatal("The input and output paths cannot be identical")
		}
	}
	if previewDirPath != "" {
		previewDirPath = filepath.Clean(previewDirPath)
	}
}

func main() {
	log.Print("Augmenting images...")
	timeStart := time.Now()

	dataset, err := cvdata.LoadYOLO(inDirPath)
	if err != nil {
		log.Fatal("Failed to load the input dataset: ", err)
	}

	for _, dir := range []string{outDirPath, previewDirPath} {
		if dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				log.Fatal(err)
			}
		}
	}

	err = dataset.Augment(outDirPath, cvdata.AugmentOptions{
		Seed:           seed,
		SingleThreaded: singleThreaded,
		SkipOriginals:  skipOriginals,
		PreviewDir:     previewDirPath,
		JPEGQuality:    jpegQuality,
	})
	if err != nil {
		log.Fatal("Augmentation failed: ", err)
	}

	log.Printf("Augmentation done in %.2fs", time.Since(timeStart).Seconds())
}
