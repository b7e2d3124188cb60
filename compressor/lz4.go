package compressor

import (
	"bytes"

	"github.com/pierrec/lz4"
)

type Lz4Compressor struct{}

// Compress LZ4-compresses src as a single LZ4 frame, the format
// Decompress reads.
func (Lz4Compressor) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, ErrIncompressible
	}
	if err := w.Close(); err != nil {
		return nil, ErrIncompressible
	}

	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func (Lz4Compressor) Decompress(src []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
