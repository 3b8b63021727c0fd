// Package compress provides the codecs that wrap resource payloads.
//
// A package archive stores each resource either raw or ZLIB-compressed; the
// resource layer picks the codec from the entry's compression type and hands
// the plain buffer to the SimData or string table decoder. Zstd, S2 and LZ4
// are available for tooling caches of extracted resources.
//
// # Architecture
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// # Supported Algorithms
//
//   - None (format.CompressionNone): data passes through unchanged
//   - Zlib (format.CompressionZlib): the archive standard
//   - Zstd (format.CompressionZstd): best ratio, for caches
//   - S2 (format.CompressionS2): balanced
//   - LZ4 (format.CompressionLZ4): fastest decompression
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZlib)
//	if err != nil {
//	    return err
//	}
//	plain, err := codec.Decompress(entry.Data)
//
// GetCodec returns a shared instance; every codec pools its internal state
// and is safe for concurrent use. CreateCodec returns a fresh one.
package compress
