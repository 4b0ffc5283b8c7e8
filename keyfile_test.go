package blobkv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blobkv/bloblog"
)

func TestKeyFileLayout(t *testing.T) {
	data := encodeKeyFile([]keyRecord{{key1: -1, key2: 2, version: 3, handle: bloblog.Handle(17)}})
	require.Len(t, data, keyRecSize+trailerSize)

	assert.Equal(t, byte(tagItem), data[0])
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, data[1:9])
	assert.Equal(t, []byte{2, 0, 0, 0, 0, 0, 0, 0}, data[9:17])
	assert.Equal(t, []byte{3, 0, 0, 0}, data[17:21])
	assert.Equal(t, []byte{17, 0, 0, 0, 0, 0, 0, 0}, data[21:29])
	assert.Equal(t, byte(tagEnd), data[29])
}

func TestKeyFileDecode(t *testing.T) {
	recs := []keyRecord{
		{key1: 1, key2: 2, version: 0, handle: 0},
		{key1: 1, key2: 2, version: 1, handle: 20},
		{key1: 9, key2: -4, version: 7, handle: 45},
	}

	got, err := decodeKeyFile(encodeKeyFile(recs))
	require.NoError(t, err)
	assert.Equal(t, recs, got)

	got, err = decodeKeyFile(encodeKeyFile(nil))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = decodeKeyFile(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestKeyFileCorruption(t *testing.T) {
	good := encodeKeyFile([]keyRecord{{key1: 1, key2: 2, version: 3, handle: 4}})

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated record", good[:10]},
		{"missing end marker", good[:keyRecSize]},
		{"short checksum", good[:len(good)-1]},
		{"trailing bytes", append(append([]byte{}, good...), 0)},
		{"bad tag", append([]byte{7}, good[1:]...)},
		{"flipped bit", func() []byte {
			b := append([]byte{}, good...)
			b[5] ^= 1
			return b
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeKeyFile(tt.data)
			require.ErrorIs(t, err, ErrCorruptKeyFile)
		})
	}
}
