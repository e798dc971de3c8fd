package cvdata

// Fetching the tagged images of a Custom Vision project into a local YOLO
// dataset directory.

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// DownloadBatchSize is the page size for tagged-image queries. Custom Vision
// caps GetTaggedImages at 256 results per call.
const DownloadBatchSize = 256

// DownloadOptions configures CloudClient.Download.
type DownloadOptions struct {
	Concurrency int // Parallel image downloads per batch. Zero means 16.
}

// Download fetches all tagged images of the project into outDir as a YOLO
// dataset: one <n>.txt label file and one <n>.jpg image per tagged image,
// numbered in download order, plus a class.names file listing the tag names
// ordered by first appearance.
//
// Failed image downloads are logged and skipped, not retried.
func (c *CloudClient) Download(ctx context.Context, outDir string, opts DownloadOptions) error {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 16
	}

	countRes, err := c.api.GetTaggedImageCount(ctx, c.projectID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to query the tagged image count: %v", err)
	}
	var count int32
	if countRes.Value != nil {
		count = *countRes.Value
	}

	numBatches := int(math.Ceil(float64(count) / DownloadBatchSize))
	log.Printf("There will be %d batches downloaded (%d images in total)", numBatches, count)

	bar := progressbar.Default(int64(count), "Downloading")
	var tagNames []string // Unique tag names, ordered by first appearance.

	for batchIdx := 0; batchIdx < numBatches; batchIdx++ {
		take := int32(DownloadBatchSize)
		skip := int32(batchIdx * DownloadBatchSize)
		list, err := c.api.GetTaggedImages(ctx, c.projectID, nil, nil, "", &take, &skip)
		if err != nil {
			return fmt.Errorf("failed to fetch image batch %d: %v", batchIdx, err)
		}
		if list.Value == nil {
			continue
		}

		type job struct{ url, path string }
		jobs := make([]job, 0, len(*list.Value))

		// Write the label files sequentially; tag indices depend on the
		// discovery order.
		for i, img := range *list.Value {
			base := strconv.Itoa(batchIdx*DownloadBatchSize + i)

			var regions []Region
			if img.Regions != nil {
				for _, r := range *img.Regions {
					if r.TagName == nil || r.Left == nil || r.Top == nil ||
							r.Width == nil || r.Height == nil {
						continue
					}
					registerTag(&tagNames, *r.TagName)
					regions = append(regions, Region{
						Label:  *r.TagName,
						Left:   *r.Left,
						Top:    *r.Top,
						Width:  *r.Width,
						Height: *r.Height,
					})
				}
			}

			labelPath := filepath.Join(outDir, base+".txt")
			if err := WriteLabelFile(labelPath, regions, tagNames); err != nil {
				return err
			}

			if img.OriginalImageURI != nil {
				jobs = append(jobs, job{*img.OriginalImageURI, filepath.Join(outDir, base+".jpg")})
			}
		}

		// Download all image files in the batch concurrently.
		workQueue := make(chan job, len(jobs))
		numTasks := concurrency
		if len(jobs) < numTasks {
			numTasks = len(jobs)
		}

		var wg sync.WaitGroup
		wg.Add(numTasks)
		for w := 0; w < numTasks; w++ {
			go func() {
				defer wg.Done()
				for j := range workQueue {
					if err := c.downloadFile(ctx, j.url, j.path); err != nil {
						log.Printf("Failed to download %q: %v", j.url, err)
					}
					_ = bar.Add(1)
				}
			}()
		}
		for _, j := range jobs {
			workQueue <- j
		}
		close(workQueue)
		wg.Wait()
	}

	_ = bar.Finish()

	return WriteClassNames(filepath.Join(outDir, ClassNamesFile), tagNames)
}

// registerTag returns the index of name in *names, appending it first if it
// is not yet known.
func registerTag(names *[]string, name string) int {
	for i, n := range *names {
		if n == name {
			return i
		}
	}
	*names = append(*names, name)
	return len(*names) - 1
}

// downloadFile GETs url and writes the response body to path.
func (c *CloudClient) downloadFile(ctx context.Context, url, path string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %q", resp.Status)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(f, &err)

	_, err = io.Copy(f, resp.Body)
	return err
}
