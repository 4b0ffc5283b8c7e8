package hash

import (
	"bytes"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC32C(t *testing.T) {
	data := []byte("hello blob log")
	want := crc32.Checksum(data, crc32.MakeTable(crc32.Castagnoli))

	assert.Equal(t, want, CRC32C(data))

	h := NewCRC32C()
	h.Write(data[:5])
	h.Write(data[5:])
	assert.Equal(t, want, h.Sum32())
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	_, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = w.Write([]byte("def"))
	require.NoError(t, err)

	assert.Equal(t, "abcdef", buf.String())
	assert.Equal(t, CRC32C([]byte("abcdef")), w.Sum32())
}

func TestBase64CRC32C(t *testing.T) {
	// Castagnoli check value for "123456789" is 0xE3069283.
	assert.Equal(t, "4waSgw==", Base64CRC32C([]byte("123456789")))
}
