// Exports a YOLO dataset directory as TensorFlow object-detection TFRecord
// files plus a pbtxt label map derived from class.names.
package main

import (
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/sensile/cvdata"
)

var (
	inDirPath        string   // The dataset input directory.
	recordOutPaths   []string // The TFRecord output path(s), one per split.
	labelMapFilePath string   // The label map output file.
	numShardFiles    int      // The number of shard files to create per output.
	outSplits        []int    // The cumulative split percentages for the outputs.
)

func init() {
	printUsageAndExit := func(msg ...interface{}) {
		log.Print(msg...)
		flag.Usage()
		log.Fatal("Invalid arguments")
	}

	flag.StringVarP(&inDirPath, "input", "i", "",
		"The `path` to the dataset input directory, e.g. ./downloads/")
	outPaths := flag.StringP("records-out", "o", "",
		"The comma-separated paths (`path[,...]`) to the TFRecord output files;"+
				" must be one path per value in flag --split")
	splits := flag.String("split", "100",
		"The comma-separated output split percentages (`percent[,...]`) to divide"+
				" the dataset into; must add up to 100%")
	flag.StringVar(&labelMapFilePath, "label-map", "",
		"The label map output file `path`")
	flag.IntVar(&numShardFiles, "num-shards", 1,
		"The number of shard files to create per output")
	flag.Parse()

	if inDirPath == "" || *outPaths == "" || labelMapFilePath == "" {
		printUsageAndExit("Missing input, output or label map path argument")
	}

	recordOutPaths = strings.Split(*outPaths, ",")
	splitValues := strings.Split(*splits, ",")
	if len(splitValues) != len(recordOutPaths) {
		printUsageAndExit("The number of output datasets defined by --split and the" +
				" number of paths in --records-out must match")
	}

	// Parse splits as cumulative int percentages.
	var splitSum int
	for _, v := range splitValues {
		if i, err := strconv.Atoi(v); err != nil || i < 0 || i > 100 {
			printUsageAndExit("Invalid value in --split: ", v)
		} else {
			splitSum += i
			outSplits = append(outSplits, splitSum)
		}
	}
	if splitSum != 100 {
		printUsageAndExit("The values in --split must add up to 100%")
	}

	inDirPath = filepath.Clean(inDirPath)
	for i, v := range recordOutPaths {
		recordOutPaths[i] = filepath.Clean(v)
	}
	labelMapFilePath = filepath.Clean(labelMapFilePath)
}

func main() {
	timeStart := time.Now()

	dataset, err := cvdata.LoadYOLO(inDirPath)
	if err != nil {
		log.Fatal("Failed to load the input dataset: ", err)
	}

	// Split the dataset into the output datasets.
	datasets := []*cvdata.Dataset{dataset}
	if len(outSplits) > 1 {
		if datasets, err = dataset.Split(outSplits); err != nil {
			log.Fatal("Failed to split the dataset: ", err)
		}
	}

	for i, d := range datasets {
		outPath := recordOutPaths[i]
		if err := cvdata.WriteTFRecord(outPath, labelMapFilePath, d, numShardFiles); err != nil {
			log.Fatal("Export failed: ", err)
		}
		log.Printf("Successfully wrote records for %d files to %s", len(d.Files), outPath)
	}

	log.Printf("Export done in %.2fs", time.Since(timeStart).Seconds())
}
