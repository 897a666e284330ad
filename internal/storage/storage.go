package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client wraps MinIO access for frame folders and alert snippets.
type Client struct {
	client        *minio.Client
	snippetBucket string
}

func NewMinioClient(endpoint, accessKey, secretKey, snippetBucket string) (*Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Client{client: client, snippetBucket: snippetBucket}, nil
}

// DownloadFrames lists a bucket folder given as an S3-style URL and returns
// every object's contents in listing order.
func (c *Client) DownloadFrames(ctx context.Context, folderURL string) ([][]byte, error) {
	u, err := url.Parse(folderURL)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}

	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("source url %q has no bucket/folder path", folderURL)
	}
	bucket, folder := parts[0], parts[1]

	objectCh := c.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    folder,
		Recursive: true,
	})

	var frames [][]byte
	for object := range objectCh {
		if object.Err != nil {
			return nil, object.Err
		}

		// The folder itself may appear in the listing
		if strings.HasSuffix(object.Key, "/") {
			continue
		}

		obj, err := c.client.GetObject(ctx, bucket, object.Key, minio.GetObjectOptions{})
		if err != nil {
			return nil, err
		}

		buf := new(bytes.Buffer)
		_, err = io.Copy(buf, obj)
		obj.Close()
		if err != nil {
			return nil, err
		}

		frames = append(frames, buf.Bytes())
	}

	return frames, nil
}

// UploadSnippet stores an alert snapshot and returns its object path for the
// alert record.
func (c *Client) UploadSnippet(ctx context.Context, feedID string, ts time.Time, frame []byte) (string, error) {
	objectPath := fmt.Sprintf("%s/alert_%s.jpg", feedID, ts.UTC().Format("20060102_150405"))

	_, err := c.client.PutObject(
		ctx,
		c.snippetBucket,
		objectPath,
		bytes.NewReader(frame),
		int64(len(frame)),
		minio.PutObjectOptions{ContentType: "image/jpeg"},
	)
	if err != nil {
		return "", fmt.Errorf("failed to save snippet: %w", err)
	}

	return fmt.Sprintf("/%s/%s", c.snippetBucket, objectPath), nil
}
