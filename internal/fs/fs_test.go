package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	require.NoError(t, lfs.MkdirAll(dir, 0755))

	fpath := filepath.Join(dir, "test.log")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	_, err = f.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("J"), 0)
	require.NoError(t, err)

	buf := make([]byte, 5)
	_, err = f.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "Jello", string(buf))

	require.NoError(t, f.Truncate(3))
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())
	assert.Equal(t, fpath, f.Name())

	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	renamed := filepath.Join(dir, "renamed.log")
	require.NoError(t, lfs.Rename(fpath, renamed))
	require.NoError(t, lfs.Remove(renamed))

	_, err = lfs.Stat(renamed)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteFileReadFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "keys.bin")

	require.NoError(t, WriteFile(Default, name, []byte("first"), 0644))
	require.NoError(t, WriteFile(Default, name, []byte("second"), 0644))

	data, err := ReadFile(Default, name)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	_, err = os.Stat(name + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFSWriteBudget(t *testing.T) {
	ffs := NewFaultyFS(nil)
	ffs.AddRule("faulty", Fault{FailAfterBytes: 5})

	f, err := ffs.OpenFile(filepath.Join(t.TempDir(), "faulty.log"), os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.WriteAt([]byte("!"), 5)
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 0, n)

	assert.Equal(t, int64(5), ffs.Written())
}

func TestFaultyFSRuleMatching(t *testing.T) {
	boom := errors.New("boom")

	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule("bad", Fault{FailAfterBytes: -1, FailOnRead: true, FailOnSync: true, FailOnTruncate: true, FailOnClose: true, Err: boom})

	dir := t.TempDir()

	good, err := ffs.OpenFile(filepath.Join(dir, "good.log"), os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	_, err = good.Write([]byte("ok"))
	require.NoError(t, err)
	require.NoError(t, good.Sync())
	require.NoError(t, good.Close())

	bad, err := ffs.OpenFile(filepath.Join(dir, "bad.log"), os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	_, err = bad.Write([]byte("data"))
	require.NoError(t, err)

	_, err = bad.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, boom)
	_, err = bad.Read(make([]byte, 1))
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, bad.Sync(), boom)
	assert.ErrorIs(t, bad.Truncate(0), boom)
	assert.ErrorIs(t, bad.Close(), boom)

	ffs.ClearRules()
	again, err := ffs.OpenFile(filepath.Join(dir, "bad.log"), os.O_RDONLY, 0)
	require.NoError(t, err)
	data, err := io.ReadAll(again)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
	require.NoError(t, again.Close())
}
