package cvdata

// TFRecord object detection export.

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
)

// TFFeatureMap maps feature names to their values. Values must be
// convertible to tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// toFeatureMap converts one annotated image to the TF object-detection
// feature map. Class IDs are the class.names indices plus one, matching the
// label map written by WriteTFRecord.
func toFeatureMap(fileData AnnotatedImage, classNames []string) (TFFeatureMap, error) {
	// Get the image width and height.
	img, format, err := decodeImageConfig(fileData.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode the image metadata: %v", err)
	}

	// Read the image data.
	imgData, err := os.ReadFile(fileData.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read the image: %v", err)
	}

	// Prepare the feature map for the per file data.
	f := make(TFFeatureMap, 16)
	f["image/height"] = img.Height
	f["image/width"] = img.Width
	f["image/filename"] = fileData.ImagePath
	f["image/source_id"] = fileData.ImagePath
	f["image/encoded"] = imgData
	f["image/format"] = format

	// Prepare the per label data. The regions are already normalized.
	numLabels := len(fileData.Regions)
	xmins := make([]float32, numLabels)
	ymins := make([]float32, numLabels)
	xmaxs := make([]float32, numLabels)
	ymaxs := make([]float32, numLabels)
	classes := make([]string, numLabels)
	classIDs := make([]int64, numLabels)
	for i, r := range fileData.Regions {
		xmins[i] = float32(r.Left)
		ymins[i] = float32(r.Top)
		xmaxs[i] = float32(r.Left + r.Width)
		ymaxs[i] = float32(r.Top + r.Height)
		classes[i] = r.Label

		idx := -1
		for j, name := range classNames {
			if name == r.Label {
				idx = j
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("label %q is not in the class name list", r.Label)
		}
		classIDs[i] = int64(idx) + 1
	}
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs

	return f, nil
}

// WriteTFRecord does a streaming conversion, serialisation and file write
// for the dataset to one or more TFRecord files stored under recordFilePath
// (with suffixes added when numShards > 1).
//
// A label map derived from the dataset's class names is written to
// labelMapPath.
func WriteTFRecord(recordFilePath, labelMapPath string, d *Dataset, numShards int) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	if numShards <= 0 {
		numShards = 1
	}

	fmtShardSuffix := func(idx int) string {
		return fmt.Sprintf("-%05d-of-%05d", idx, numShards)
	}

	var shardFile *os.File
	shardSize := int(math.Ceil(float64(len(d.Files)) / float64(numShards)))
	shardIdx := -1

	// Convert and serialise one data element at a time.
	for i, fileData := range d.Files {
		// Check if a new shard file needs to be opened for writing.
		if i%shardSize == 0 {
			shardIdx++

			// Close the previous shard file.
			if shardFile != nil {
				_ = shardFile.Close()
				shardFile = nil
			}

			// Create the new shard file.
			shardPath := recordFilePath
			if numShards > 1 {
				shardPath += fmtShardSuffix(shardIdx)
			}
			f, err := os.Create(shardPath)
			if err != nil {
				return fmt.Errorf("failed to create shard at %q: %v", shardPath, err)
			}
			shardFile = f
		}

		// Convert the file data to an example.
		features, err := toFeatureMap(fileData, d.ClassNames)
		if err != nil {
			log.Printf("Failed to convert %q: %v", fileData.ImagePath, err)
			continue
		}
		tfExample := example.New(features)

		// Write the example.
		if err := writeTFRecordExample(shardFile, tfExample); err != nil {
			log.Print("Failed to write example: ", err)
			break
		}
	}

	if shardFile != nil {
		shardFile.Close()
	}

	return writeLabelMap(labelMapPath, d.ClassNames)
}

// writeTFRecordExample serialises the example and writes it as a TFRecord
// to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}

// writeLabelMap writes the class names as a pbtxt label map to path, with
// id = class index + 1.
func writeLabelMap(path string, classNames []string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create the label map file %q: %v", path, err)
	}
	defer closeWithErrCheck(file, &err)

	for i, name := range classNames {
		if _, err := fmt.Fprintf(file, "item {\n  id: %d\n  name: %q\n}\n", i+1, name); err != nil {
			return fmt.Errorf("failed to write the label map %q: %v", path, err)
		}
	}

	return nil
}
