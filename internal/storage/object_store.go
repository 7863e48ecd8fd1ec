package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// objectStore is the single gateway implementation. The MinIO and S3
// constructors below produce the two supported variants.
type objectStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinioStore targets a locally hosted MinIO-compatible endpoint. Canonical
// references take the form <public-url>/<bucket>/<key>. The region is pinned
// so the client never resolves the bucket location over the network, which
// keeps presigning a purely local operation.
func NewMinioStore(endpoint, publicURL, accessKey, secretKey, region, bucket string, useSSL bool) (ObjectStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}
	return &objectStore{
		client:     client,
		bucket:     bucket,
		publicBase: fmt.Sprintf("%s/%s/", strings.TrimRight(publicURL, "/"), bucket),
	}, nil
}

// NewS3Store targets managed S3. Canonical references use the virtual-hosted
// bucket form https://<bucket>.s3.amazonaws.com/<key>.
func NewS3Store(accessKey, secretKey, region, bucket string) (ObjectStorage, error) {
	client, err := minio.New("s3.amazonaws.com", &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: true,
		Region: region,
	})
	if err != nil {
		return nil, err
	}
	return &objectStore{
		client:     client,
		bucket:     bucket,
		publicBase: fmt.Sprintf("https://%s.s3.amazonaws.com/", bucket),
	}, nil
}

func (s *objectStore) canonicalURL(fileName string) string {
	return s.publicBase + fileName
}

func (s *objectStore) Store(ctx context.Context, reader io.Reader, size int64, fileName, contentType string) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("store %s: %w", fileName, ErrEmptyObject)
	}

	_, err := s.client.PutObject(ctx, s.bucket, fileName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("store %s in bucket %s: %w", fileName, s.bucket, err)
	}
	return s.canonicalURL(fileName), nil
}

func (s *objectStore) Load(ctx context.Context, fileName string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, fileName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("load %s from bucket %s: %w", fileName, s.bucket, err)
	}

	// GetObject is lazy; Stat forces the request so a missing key surfaces
	// here instead of on first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("load %s from bucket %s: %w", fileName, s.bucket, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("load %s from bucket %s: %w", fileName, s.bucket, err)
	}
	return obj, nil
}

func (s *objectStore) SignedURL(ctx context.Context, fileName string) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, fileName, SignedURLExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("sign %s in bucket %s: %w", fileName, s.bucket, err)
	}
	return url.String(), nil
}
