// Package minio stores snapshots on MinIO or any S3-compatible server
// (Ceph, Garage, SeaweedFS) through minio-go.
//
//	store, err := minio.New(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "backups", "kv/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := store.EnsureBucket(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	gen, err := kv.Snapshot(ctx, store)
package minio
