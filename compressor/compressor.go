// Package compressor provides the interchangeable compression codecs
// the archive Record Store uses at rest (spec §9, archive supplement).
package compressor

import "github.com/cockroachdb/errors"

// Compresser is the common codec interface.
type Compresser interface {
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

var ErrIncompressible = errors.New("compress error")

// ErrNotShrunk is returned when compression did not reduce size.
var ErrNotShrunk = errors.New("compressed size not reduced")

// ByName resolves a configured codec name ("none", "lz4", "zstd") to a
// Compresser.
func ByName(name string) (Compresser, error) {
	switch name {
	case "", "none":
		return NoneCompressor{}, nil
	case "lz4":
		return Lz4Compressor{}, nil
	case "zstd":
		return &ZstdCompressor{}, nil
	case "zstd-dd":
		return DdZstdCompressor{}, nil
	default:
		return nil, errors.Newf("unknown compressor: %s", name)
	}
}
