// Package s3 stores record files and cross-reference artifacts in Amazon S3.
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("xref/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
// Objects are written with streaming multipart uploads and read whole, with
// CRC32C checksums stored on upload and validated on read.
package s3
