package compressor

import (
	ddzstd "github.com/DataDog/zstd"
	"github.com/klauspost/compress/zstd"

	"github.com/cockroachdb/errors"
)

// ZstdCompressor is the default zstd codec (klauspost/compress).
type ZstdCompressor struct{}

func (z *ZstdCompressor) Compress(src []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil) // nil buffer: encoder holds its own internal buffer
	if err != nil {
		return nil, errors.Wrap(err, "create zstd encoder")
	}
	defer enc.Close()

	compressed := enc.EncodeAll(src, nil)
	if len(compressed) >= len(src) {
		return nil, ErrNotShrunk
	}
	return compressed, nil
}

func (z *ZstdCompressor) Decompress(src []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "create zstd decoder")
	}
	defer dec.Close()

	decompressed, err := dec.DecodeAll(src, nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd decode")
	}
	return decompressed, nil
}

// DdZstdCompressor is an alternate zstd codec backed by DataDog/zstd's
// cgo bindings, offered for deployments that already vendor that
// library for other services and want a single zstd implementation
// across their stack.
type DdZstdCompressor struct{}

func (DdZstdCompressor) Compress(src []byte) ([]byte, error) {
	buf := make([]byte, ddzstd.CompressBound(len(src)))
	return ddzstd.CompressLevel(buf, src, ddzstd.DefaultCompression)
}

func (DdZstdCompressor) Decompress(src []byte) ([]byte, error) {
	return ddzstd.Decompress(nil, src)
}
