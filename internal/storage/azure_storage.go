package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// ObjectStore persists review artifacts by key
type ObjectStore interface {
	// Put stores data under key and returns a reference a reviewer can follow
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) (*Object, error)
}

type azureStorage struct {
	client    *azblob.Client
	container string
}

// NewAzureStorage creates an ObjectStore backed by one blob container
func NewAzureStorage(accountName, accountKey, container string) (ObjectStore, error) {
	if accountName == "" || accountKey == "" || container == "" {
		return nil, fmt.Errorf("azure storage requires account name, key and container")
	}

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}

	return &azureStorage{client: client, container: container}, nil
}

func (s *azureStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	opts := &azblob.UploadBufferOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}
	if _, err := s.client.UploadBuffer(ctx, s.container, key, data, opts); err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return blobURL(s.client.URL(), s.container, key), nil
}

func (s *azureStorage) Get(ctx context.Context, key string) (*Object, error) {
	downloadResponse, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		return nil, downloadError(key, err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, retryReader); err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}

	obj := &Object{Name: key, Data: buf.Bytes()}
	if downloadResponse.ContentType != nil {
		obj.ContentType = *downloadResponse.ContentType
	}
	return obj, nil
}

// downloadError reports a missing blob or container as os.ErrNotExist
func downloadError(key string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return fmt.Errorf("%w: %s", os.ErrNotExist, key)
	}
	return fmt.Errorf("download failed: %w", err)
}

func blobURL(serviceURL, container, key string) string {
	return strings.TrimRight(serviceURL, "/") + "/" + url.PathEscape(container) + "/" + url.PathEscape(key)
}
