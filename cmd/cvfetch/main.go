// Fetches the tagged images of an Azure Custom Vision project into a local
// YOLO dataset directory.
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
	endpoint    string // The Custom Vision endpoint URL.
	trainingKey string // The Custom Vision training key.
	projectID   string // The Custom Vision project ID.
	outDirPath  string // The dataset output directory.
	concurrency int    // Parallel image downloads per batch.
)

func init() {
	flag.StringVar(&endpoint, "endpoint", "",
		"\"Endpoint\" from the Custom Vision project settings,"+
				" e.g. https://westus2.api.cognitive.microsoft.com/")
	flag.StringVar(&trainingKey, "training-key", "",
		"\"Key\" from the Custom Vision project settings")
	flag.StringVar(&projectID, "project-id", "",
		"\"Project Id\" from the Custom Vision project settings")
	flag.StringVarP(&outDirPath, "output", "o", "",
		"The `path` to the dataset output directory")
	flag.IntVar(&concurrency, "concurrency", 16,
		"The number of parallel image downloads per batch")
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

	if endpoint == "" || trainingKey == "" || projectID == "" || outDirPath == "" {
		log.Print("Missing endpoint, training key, project ID or output directory")
		flag.Usage()
		os.Exit(1)
	}

	outDirPath = filepath.Clean(outDirPath)
}

func main() {
	log.Print("Starting download...")
	timeStart := time.Now()

	client, err := cvdata.NewCloudClient(endpoint, trainingKey, projectID)
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(outDirPath, 0755); err != nil {
		log.Fatal(err)
	}

	err = client.Download(context.Background(), outDirPath,
		cvdata.DownloadOptions{Concurrency: concurrency})
	if err != nil {
		log.Fatal("Download failed: ", err)
	}

	elapsed := time.Since(timeStart).Seconds()
	log.Printf("Downloaded in %d minutes and %.2f seconds.",
		int(elapsed)/60, elapsed-float64(int(elapsed)/60*60))
}
