package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

// s2MaxDecodedSize caps the size a block header may claim. A cached
// resource is never close to this.
const s2MaxDecodedSize = 128 * 1024 * 1024

// S2Compressor provides S2 block compression for tooling caches, where
// decoded resources are stored once and read back many times.
//
// Blocks are written with the better-ratio encoder; reading is as fast as
// for the default encoder.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress encodes data as one S2 block.
//
// Returns:
//   - []byte: Compressed block (nil if input is empty)
//   - error: Always nil
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.EncodeBetter(nil, data), nil
}

// Decompress decodes one S2 block.
//
// The decoded length recorded in the block header is checked before any
// output is allocated, so a corrupt cache entry cannot request an
// arbitrarily large buffer.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("s2 decompression failed: %w", err)
	}
	if n > s2MaxDecodedSize {
		return nil, fmt.Errorf("s2 decompression failed: block claims %d bytes, limit is %d", n, s2MaxDecodedSize)
	}

	out, err := s2.Decode(make([]byte, n), data)
	if err != nil {
		return nil, fmt.Errorf("s2 decompression failed: %w", err)
	}

	return out, nil
}
