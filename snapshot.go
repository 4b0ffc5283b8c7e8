package blobkv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/blobkv/blobstore"
	"github.com/hupe1980/blobkv/internal/fs"
)

// CurrentName is the blob holding the generation of the latest snapshot.
const CurrentName = "CURRENT"

const generationPrefix = "gen-"

// GenerationDir returns the blob name prefix of a snapshot generation.
func GenerationDir(gen uint64) string {
	return fmt.Sprintf("%s%020d/", generationPrefix, gen)
}

func currentGeneration(ctx context.Context, bs blobstore.BlobStore) (uint64, error) {
	data, err := blobstore.ReadAll(ctx, bs, CurrentName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	gen, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("blobkv: bad %s %q: %w", CurrentName, data, err)
	}
	return gen, nil
}

// Snapshot saves the store and uploads the log and key file as a new
// generation, then points CURRENT at it. It returns the new generation.
//
// CURRENT is written last, so a failed snapshot leaves the previous one
// in effect. Concurrent snapshots of one Store run one after another and
// get distinct generations; other processes writing to the same bs are not
// coordinated unless bs itself does so, as s3.DDBCommitStore does.
func (s *Store) Snapshot(ctx context.Context, bs blobstore.BlobStore) (uint64, error) {
	start := time.Now()

	gen, n, err := s.snapshot(ctx, bs)
	s.opts.metricsCollector.RecordSnapshot(n, time.Since(start), err)
	s.logger.LogSnapshot(ctx, gen, n, err)

	return gen, err
}

func (s *Store) snapshot(ctx context.Context, bs blobstore.BlobStore) (uint64, int64, error) {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()

	gen, err := currentGeneration(ctx, bs)
	if err != nil {
		return 0, 0, err
	}
	gen++

	files, err := s.savedFiles(ctx)
	if err != nil {
		return gen, 0, err
	}

	var total int64

	g, gctx := errgroup.WithContext(ctx)
	for name, data := range files {
		total += int64(len(data))
		g.Go(func() error {
			if err := s.rc.AcquireUpload(gctx); err != nil {
				return err
			}
			defer s.rc.ReleaseUpload()

			return bs.Put(gctx, GenerationDir(gen)+name, data)
		})
	}
	if err := g.Wait(); err != nil {
		return gen, 0, err
	}

	if err := bs.Put(ctx, CurrentName, []byte(strconv.FormatUint(gen, 10))); err != nil {
		return gen, 0, err
	}

	return gen, total, nil
}

// savedFiles saves and reads back both files while holding the lock, so the
// pair is consistent.
func (s *Store) savedFiles(ctx context.Context) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(); err != nil {
		return nil, err
	}

	if err := s.save(ctx); err != nil {
		return nil, err
	}

	files := make(map[string][]byte, 2)
	for _, name := range []string{LogFileName, KeyFileName} {
		data, err := fs.ReadFile(s.opts.fs, filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrIO, name, err)
		}
		files[name] = data
	}

	return files, nil
}

// Restore downloads the CURRENT snapshot from bs into dir, replacing the
// files there, and opens it.
func Restore(ctx context.Context, bs blobstore.BlobStore, dir string, optFns ...Option) (*Store, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.logger.WithDir(dir)

	gen, err := restore(ctx, bs, dir, opts)
	logger.LogRestore(ctx, gen, err)
	if err != nil {
		return nil, err
	}

	return Open(dir, optFns...)
}

func restore(ctx context.Context, bs blobstore.BlobStore, dir string, opts options) (uint64, error) {
	gen, err := currentGeneration(ctx, bs)
	if err != nil {
		return 0, err
	}
	if gen == 0 {
		return 0, ErrNoSnapshot
	}

	names := []string{LogFileName, KeyFileName}
	blobs := make([][]byte, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			data, err := blobstore.ReadAll(gctx, bs, GenerationDir(gen)+name)
			if err != nil {
				return fmt.Errorf("download %s: %w", name, err)
			}
			blobs[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return gen, err
	}

	if err := opts.fs.MkdirAll(dir, 0o755); err != nil {
		return gen, fmt.Errorf("%w: create %s: %w", ErrIO, dir, err)
	}

	// The key file goes last: a crash in between leaves a log whose records
	// the old key file does not reference, which Open tombstones.
	for i, name := range names {
		if err := fs.WriteFile(opts.fs, filepath.Join(dir, name), blobs[i], 0o644); err != nil {
			return gen, fmt.Errorf("%w: write %s: %w", ErrIO, name, err)
		}
	}

	return gen, nil
}

// PruneSnapshots deletes all generations except the newest keep ones and
// the one CURRENT points at. It returns the number of blobs deleted.
func PruneSnapshots(ctx context.Context, bs blobstore.BlobStore, keep int) (int, error) {
	current, err := currentGeneration(ctx, bs)
	if err != nil {
		return 0, err
	}

	names, err := bs.List(ctx, generationPrefix)
	if err != nil {
		return 0, err
	}

	byGen := make(map[uint64][]string)
	var gens []uint64
	for _, name := range names {
		dir, _, ok := strings.Cut(name, "/")
		if !ok {
			continue
		}
		gen, err := strconv.ParseUint(strings.TrimPrefix(dir, generationPrefix), 10, 64)
		if err != nil {
			continue
		}
		if _, seen := byGen[gen]; !seen {
			gens = append(gens, gen)
		}
		byGen[gen] = append(byGen[gen], name)
	}

	// List is sorted and generations are zero padded, so gens ascend.
	deleted := 0
	for i, gen := range gens {
		if gen == current || len(gens)-i <= keep {
			continue
		}
		for _, name := range byGen[gen] {
			if err := bs.Delete(ctx, name); err != nil {
				return deleted, fmt.Errorf("delete %s: %w", name, err)
			}
			deleted++
		}
	}

	return deleted, nil
}
