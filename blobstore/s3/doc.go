// Package s3 stores snapshots in Amazon S3 using aws-sdk-go-v2.
//
//	store, err := s3.New(ctx, "backups",
//	    s3.WithPrefix("kv/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	gen, err := kv.Snapshot(ctx, store)
//
// Small files go up in one PutObject with a CRC32C S3 verifies; files past
// UploadConfig.PartSize use the multipart uploader. Reads are ranged GETs.
//
// S3 has no compare-and-swap, so two processes snapshotting to the same
// prefix can overwrite each other's CURRENT. DDBCommitStore moves CURRENT
// into a DynamoDB table with conditional writes to rule that out.
package s3
