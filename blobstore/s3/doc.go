// Package s3 stores artifacts in Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("runs/square-4/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
// Reads are ranged GETs. Small Puts use a single PutObject with a CRC32C
// checksum, larger ones and Create go through the multipart uploader.
package s3
