package cvdata

// Uploading a locally-annotated YOLO dataset to a Custom Vision project.

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/customvision/training"
	"github.com/gofrs/uuid"
	"github.com/schollz/progressbar/v3"
)

// UploadBatchSize is the number of images sent per create-images call, a
// hard limit imposed by the Custom Vision API.
const UploadBatchSize = 64

// The tag applied by UploadOptions.AddSuperfluousRegions. The CoreML model
// that Custom Vision exports needs at least two tags to function, so a
// useless full-frame region with this tag is added to the first few images.
const (
	superfluousTagName   = "coreml_bugfix"
	numSuperfluousImages = 15 // Minimum tagged-image count required by Custom Vision.
)

// UploadOptions configures CloudClient.Upload.
type UploadOptions struct {
	AddSuperfluousRegions bool
}

// Upload registers the dataset's class names as project tags and uploads all
// images with their regions, in batches of UploadBatchSize.
//
// Batches that fail are logged with per-image status detail and the upload
// continues with the next batch. Duplicate images are tolerated.
func (c *CloudClient) Upload(ctx context.Context, d *Dataset, opts UploadOptions) error {
	tagNames := d.ClassNames
	if opts.AddSuperfluousRegions {
		tagNames = append(append([]string{}, tagNames...), superfluousTagName)
	}

	tagIDs, err := c.registerTags(ctx, tagNames)
	if err != nil {
		return err
	}

	numBatches := int(math.Ceil(float64(len(d.Files)) / UploadBatchSize))
	log.Printf("There will be %d batches uploaded (%d images in total)", numBatches, len(d.Files))
	bar := progressbar.Default(int64(numBatches), "Uploading")

	var batch []training.ImageFileCreateEntry
	for i, f := range d.Files {
		entry, err := createEntry(f, tagIDs)
		if err != nil {
			return err
		}
		if opts.AddSuperfluousRegions && i < numSuperfluousImages {
			addSuperfluousRegion(&entry, tagIDs[superfluousTagName])
		}
		batch = append(batch, entry)

		if len(batch) == UploadBatchSize || i == len(d.Files)-1 {
			if err := c.uploadBatch(ctx, batch); err != nil {
				log.Printf("Failed to upload a batch: %v", err)
			}
			batch = nil
			_ = bar.Add(1)
		}
	}

	_ = bar.Finish()
	return nil
}

// registerTags creates a project tag for every name and returns the mapping
// from tag name to the server-side tag ID.
//
// CreateTag fails when a tag with the given name already exists server side;
// that case is logged and ignored, since the ID is fetched afterwards anyway.
func (c *CloudClient) registerTags(ctx context.Context, names []string) (map[string]uuid.UUID, error) {
	for _, name := range names {
		if _, err := c.api.CreateTag(ctx, c.projectID, name, "", "Regular"); err != nil {
			log.Printf("Creating tag %q: %v", name, err)
		}
	}

	tagList, err := c.api.GetTags(ctx, c.projectID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch the project tags: %v", err)
	}

	ids := make(map[string]uuid.UUID, len(names))
	if tagList.Value != nil {
		for _, t := range *tagList.Value {
			if t.Name != nil && t.ID != nil {
				ids[*t.Name] = *t.ID
			}
		}
	}
	for _, name := range names {
		if _, ok := ids[name]; !ok {
			return nil, fmt.Errorf("no Custom Vision tag ID found for tag name %q", name)
		}
	}

	return ids, nil
}

// createEntry loads the image file and converts its regions into a
// create-images entry.
func createEntry(f AnnotatedImage, tagIDs map[string]uuid.UUID) (training.ImageFileCreateEntry, error) {
	contents, err := os.ReadFile(f.ImagePath)
	if err != nil {
		return training.ImageFileCreateEntry{}, err
	}

	regions := make([]training.Region, 0, len(f.Regions))
	for _, r := range f.Regions {
		id, ok := tagIDs[r.Label]
		if !ok {
			return training.ImageFileCreateEntry{},
				fmt.Errorf("no Custom Vision tag ID found for label %q", r.Label)
		}
		r := r
		regions = append(regions, training.Region{
			TagID:  &id,
			Left:   &r.Left,
			Top:    &r.Top,
			Width:  &r.Width,
			Height: &r.Height,
		})
	}

	name := filepath.Base(f.ImagePath)
	return training.ImageFileCreateEntry{
		Name:     &name,
		Contents: &contents,
		Regions:  &regions,
	}, nil
}

// addSuperfluousRegion appends a full-frame region with the given tag to the
// entry.
func addSuperfluousRegion(entry *training.ImageFileCreateEntry, tagID uuid.UUID) {
	zero, one := 0.0, 1.0
	full := training.Region{
		TagID:  &tagID,
		Left:   &zero,
		Top:    &zero,
		Width:  &one,
		Height: &one,
	}
	if entry.Regions == nil {
		entry.Regions = &[]training.Region{full}
		return
	}
	*entry.Regions = append(*entry.Regions, full)
}

// uploadBatch sends one create-images batch and inspects the per-image
// results.
func (c *CloudClient) uploadBatch(ctx context.Context, images []training.ImageFileCreateEntry) error {
	summary, err := c.api.CreateImagesFromFiles(ctx, c.projectID,
		training.ImageFileCreateBatch{Images: &images})
	if err != nil {
		return err
	}

	numDuplicates := 0
	var failures []string
	if summary.Images != nil {
		for _, res := range *summary.Images {
			switch res.Status {
			case training.ImageCreateStatusOK:
			case training.ImageCreateStatusOKDuplicate:
				numDuplicates++
			default:
				src := ""
				if res.SourceURL != nil {
					src = *res.SourceURL
				}
				failures = append(failures, fmt.Sprintf("%s: %s", src, res.Status))
			}
		}
	}

	if summary.IsBatchSuccessful != nil && !*summary.IsBatchSuccessful && len(failures) > 0 {
		return fmt.Errorf("batch did not upload successfully: %s", strings.Join(failures, "; "))
	}
	if numDuplicates > 0 {
		log.Printf("Batch uploaded successfully, ignoring %d duplicates", numDuplicates)
	}

	return nil
}
