package codec

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressRoundTrip(t *testing.T) {
	content := "Hello, MegaETH!\nThis is a blog post with unicode: 你好, émoji 🚀"

	encoded, err := Compress(content)
	require.NoError(t, err)
	assert.True(t, LooksEncoded(encoded))

	decoded, err := Decompress(encoded)
	require.NoError(t, err)
	assert.Equal(t, content, decoded)
}

func TestCompressEmpty(t *testing.T) {
	encoded, err := Compress("")
	require.NoError(t, err)

	decoded, err := Decompress(encoded)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecompressInvalid(t *testing.T) {
	_, err := Decompress("not base64 !!")
	require.Error(t, err)

	// valid base64, not gzip
	_, err = Decompress("aGVsbG8gd29ybGQ=")
	require.Error(t, err)
}

func TestDecodeOrRaw(t *testing.T) {
	assert.Equal(t, "plain text", DecodeOrRaw("plain text"))
	assert.Equal(t, "aGVsbG8gd29ybGQ=", DecodeOrRaw("aGVsbG8gd29ybGQ="))

	encoded, err := Compress("body")
	require.NoError(t, err)
	assert.Equal(t, "body", DecodeOrRaw(encoded))
}

func TestFuzzRoundTrip(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for i := 0; i < 200; i++ {
		var s string
		f.Fuzz(&s)

		encoded, err := Compress(s)
		require.NoError(t, err)

		decoded, err := Decompress(encoded)
		require.NoError(t, err)
		require.Equal(t, s, decoded)
	}
}
