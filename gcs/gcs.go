package gcs

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

var Client *storage.Client
var bucket string

// InitGCS connects to Google Cloud Storage and verifies the photo bucket.
func InitGCS() {
	ctx := context.Background()

	bucket = os.Getenv("GCS_BUCKET")
	if bucket == "" {
		log.Fatal("Please define the GCS_BUCKET environment variable")
	}

	var err error
	Client, err = storage.NewClient(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to Google Cloud Storage: %v", err)
	}

	if _, err := Client.Bucket(bucket).Attrs(ctx); err != nil {
		log.Fatalf("Failed to access bucket %s: %v", bucket, err)
	}
	log.Printf("Bucket %s ready", bucket)
}

func Close() {
	if Client != nil {
		Client.Close()
	}
}

// Enabled reports whether the GCS client was initialized. Photo upload is
// optional in local development.
func Enabled() bool {
	return Client != nil
}

// UploadPhoto stores a photo under the given folder and returns its public
// URL. Object names combine a UUID with a nano timestamp to stay unique.
func UploadPhoto(ctx context.Context, reader io.Reader, contentType, folder string) (string, error) {
	extension := "jpg"
	switch strings.ToLower(contentType) {
	case "image/png":
		extension = "png"
	case "image/jpeg", "image/jpg":
		extension = "jpeg"
	case "image/gif":
		extension = "gif"
	default:
		log.Printf("Unsupported content type: %s, defaulting to .jpg", contentType)
	}

	objectName := fmt.Sprintf("%s/%s_%d.%s", folder, uuid.NewString(), time.Now().UnixNano(), extension)

	writer := Client.Bucket(bucket).Object(objectName).NewWriter(ctx)
	if contentType == "" {
		contentType = "image/jpeg"
	}
	writer.ContentType = contentType

	if _, err := io.Copy(writer, reader); err != nil {
		return "", fmt.Errorf("failed to copy photo to GCS: %v", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %v", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectName), nil
}
