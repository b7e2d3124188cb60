package compressor

// NoneCompressor is the identity codec, used when archive records are
// stored uncompressed.
type NoneCompressor struct{}

func (NoneCompressor) Compress(src []byte) ([]byte, error) {
	return src, nil
}

func (NoneCompressor) Decompress(src []byte) ([]byte, error) {
	return src, nil
}
