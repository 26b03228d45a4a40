// Package codec packs blog post bodies the way the blog front end expects:
// gzip compressed, then standard base64.
package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
)

// Compress gzips text and returns it base64 encoded.
func Compress(text string) (string, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(text)); err != nil {
		return "", fmt.Errorf("failed to compress content: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to flush compressed content: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decompress reverses Compress.
func Decompress(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid base64 content: %w", err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("invalid gzip content: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("failed to decompress content: %w", err)
	}
	return string(out), nil
}

// LooksEncoded reports whether s is base64 wrapping a gzip stream.
func LooksEncoded(s string) bool {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(raw) < 2 {
		return false
	}
	// gzip magic
	return raw[0] == 0x1f && raw[1] == 0x8b
}

// DecodeOrRaw returns the decompressed content when s is encoded, s otherwise.
func DecodeOrRaw(s string) string {
	if !LooksEncoded(s) {
		return s
	}
	out, err := Decompress(s)
	if err != nil {
		return s
	}
	return out
}
