// Package minio stores record files and artifacts in MinIO and other
// S3-compatible services such as Ceph or Garage.
//
//	store, err := minio.Connect("localhost:9000", "xref", minio.Credentials{
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	})
//
// An existing *minio.Client can be wrapped with NewStore.
package minio
