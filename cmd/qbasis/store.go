package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hupe1980/qbasis/blobstore"
	"github.com/hupe1980/qbasis/blobstore/minio"
	"github.com/hupe1980/qbasis/blobstore/s3"
)

// output is a parsed -out destination.
type output struct {
	scheme string
	bucket string // s3 and minio
	dir    string // file
	name   string
}

func parseOutput(raw string) (output, error) {
	if p, ok := strings.CutPrefix(raw, "file://"); ok {
		if p == "" || strings.HasSuffix(p, "/") {
			return output{}, fmt.Errorf("out %q: missing file name", raw)
		}
		return output{scheme: "file", dir: filepath.Dir(p), name: filepath.Base(p)}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return output{}, fmt.Errorf("out %q: %w", raw, err)
	}
	switch u.Scheme {
	case "s3", "minio":
	default:
		return output{}, fmt.Errorf("out %q: unsupported scheme %q", raw, u.Scheme)
	}
	name := strings.TrimPrefix(path.Clean(u.Path), "/")
	if u.Host == "" || name == "" || name == "." {
		return output{}, fmt.Errorf("out %q: want %s://bucket/key", raw, u.Scheme)
	}
	return output{scheme: u.Scheme, bucket: u.Host, name: name}, nil
}

// open returns the store the output lives in. MinIO credentials come from
// MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_SECURE; S3
// uses the default AWS configuration chain.
func (o output) open(ctx context.Context) (blobstore.BlobStore, error) {
	switch o.scheme {
	case "file":
		return blobstore.NewLocalStore(o.dir), nil
	case "s3":
		return s3.New(ctx, o.bucket)
	case "minio":
		client, err := minio.NewClient(minio.Config{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Region:    os.Getenv("MINIO_REGION"),
			Secure:    os.Getenv("MINIO_SECURE") == "true",
		})
		if err != nil {
			return nil, err
		}
		return minio.NewStore(client, o.bucket, ""), nil
	default:
		return nil, fmt.Errorf("unsupported scheme %q", o.scheme)
	}
}
