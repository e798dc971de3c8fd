// Uploads a locally-annotated YOLO dataset directory to an Azure Custom
// Vision project.
//
// Grab the endpoint, training key and project ID values from
// https://www.customvision.ai/projects/<project_id>#/settings. They can also
// be provided as the environment variables VISION_TRAINING_ENDPOINT,
// VISION_TRAINING_KEY and VISION_PROJECT_ID, optionally via a .env file.
package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/sensile/cvdata"
)

var (
	endpoint              string // The Custom Vision endpoint URL.
	trainingKey           string // The Custom Vision training key.
	projectID             string // The Custom Vision project ID.
	inDirPath             string // The dataset input directory.
	addSuperfluousRegions bool   // Add the CoreML workaround regions.
)

func init() {
	flag.StringVar(&endpoint, "endpoint", "",
		"\"Endpoint\" from the Custom Vision project settings,"+
				" e.g. https://westus2.api.cognitive.microsoft.com/")
	flag.StringVar(&trainingKey, "training-key", "",
		"\"Key\" from the Custom Vision project settings")
	flag.StringVar(&projectID, "project-id", "",
		"\"Project Id\" from the Custom Vision project settings")
	flag.StringVarP(&inDirPath, "input", "i", "",
		"The `path` to the dataset input directory, e.g. ./downloads/")
	flag.BoolVar(&addSuperfluousRegions, "add-superfluous-regions", false,
		"Add a superfluous tag to some image regions to fix a Custom Vision"+
				" incompatibility with CoreML")
	flag.Parse()

	// Credentials not passed as flags come from the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Print(err)
	}
	if endpoint == "" {
		endpoint = os.Getenv("VISION_TRAINING_ENDPOINT")
	}
	if trainingKey == "" {
		trainingKey = os.Getenv("VISION_TRAINING_KEY")
	}
	if projectID == "" {
		projectID = os.Getenv("VISION_PROJECT_ID")
	}

	if endpoint == "" || trainingKey == "" || projectID == "" || inDirPath == "" {
		log.Print("Missing endpoint, training key, project ID or input directory")
		flag.Usage()
		os.Exit(1)
	}

	inDirPath = filepath.Clean(inDirPath)
}

func main() {
	log.Print("Starting upload...")
	timeStart := time.Now()

	dataset, err := cvdata.LoadYOLO(inDirPath)
	if err != nil {
		log.Fatal("Failed to load the input dataset: ", err)
	}

	client, err := cvdata.NewCloudClient(endpoint, trainingKey, projectID)
	if err != nil {
		log.Fatal(err)
	}

	err = client.Upload(context.Background(), dataset,
		cvdata.UploadOptions{AddSuperfluousRegions: addSuperfluousRegions})
	if err != nil {
		log.Fatal("Upload failed: ", err)
	}

	elapsed := time.Since(timeStart).Seconds()
	log.Printf("Upload completed in %d minutes and %.2f seconds.",
		int(elapsed)/60, elapsed-float64(int(elapsed)/60*60))
}
