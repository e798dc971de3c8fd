package cvdata

// The Custom Vision service boundary.

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/customvision/training"
	"github.com/gofrs/uuid"
)

// trainingAPI is the slice of the Custom Vision training client the download
// and upload flows depend on.
type trainingAPI interface {
	GetTaggedImageCount(ctx context.Context, projectID uuid.UUID, iterationID *uuid.UUID,
		tagIds []uuid.UUID) (training.Int32, error)
	GetTaggedImages(ctx context.Context, projectID uuid.UUID, iterationID *uuid.UUID,
		tagIds []uuid.UUID, orderBy string, take *int32, skip *int32) (training.ListImage, error)
	CreateTag(ctx context.Context, projectID uuid.UUID, name string, description string,
		type_ string) (training.Tag, error)
	GetTags(ctx context.Context, projectID uuid.UUID, iterationID *uuid.UUID) (training.ListTag, error)
	CreateImagesFromFiles(ctx context.Context, projectID uuid.UUID,
		batch training.ImageFileCreateBatch) (training.ImageCreateSummary, error)
}

// CloudClient talks to one Custom Vision project.
type CloudClient struct {
	api       trainingAPI
	projectID uuid.UUID
	http      *http.Client // For fetching raw image bytes from the returned URIs.
}

// NewCloudClient creates a client for the project identified by projectID,
// authenticating with the training key from the project settings page.
func NewCloudClient(endpoint, trainingKey, projectID string) (*CloudClient, error) {
	if endpoint == "" || trainingKey == "" {
		return nil, fmt.Errorf("the endpoint and training key must not be empty")
	}
	project, err := uuid.FromString(projectID)
	if err != nil {
		return nil, fmt.Errorf("invalid project ID %q: %v", projectID, err)
	}

	return &CloudClient{
		api:       training.New(trainingKey, endpoint),
		projectID: project,
		http:      http.DefaultClient,
	}, nil
}
