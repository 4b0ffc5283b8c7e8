// Package blobkv is a small embeddable two-key versioned table.
//
// Every item has two integer keys and a version; its info string is stored
// off-heap in an append-only blob log (package bloblog). The key1 index is
// an open-addressing table and the key2 index a chained table (package
// dict), both sharing the same items.
//
// # Quick Start
//
//	kv, err := blobkv.Open("./data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer kv.Close()
//
//	v, _ := kv.Set(1, 2, "first")  // version 0
//	v, _ = kv.Set(1, 2, "second")  // version 1
//	items, _ := kv.Get(1, 2, blobkv.AnyVersion)
//
// # Persistence
//
// Set appends to <dir>/info.log immediately; the indexes are written to
// <dir>/keys.bin by Save and Close. Save first compacts the log in place
// and rewrites the in-memory handles through the returned remap.
//
// # Snapshots
//
// Snapshot uploads the saved files to any blobstore.BlobStore (local
// directory, MinIO, S3) as a numbered generation and moves the CURRENT
// pointer; Restore downloads the CURRENT generation into a directory.
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("kv/"))
//	gen, err := kv.Snapshot(ctx, store)
package blobkv
