package archive

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Body encodings recorded in the compression column.
const (
	encodingNone = "none"
	encodingZstd = "zstd"
)

var (
	// encoder and decoder for zstd are reusable and thread-safe
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

func encodeBody(body string, compress bool) ([]byte, string) {
	if !compress {
		return []byte(body), encodingNone
	}
	return zstdEncoder.EncodeAll([]byte(body), make([]byte, 0, len(body)/2)), encodingZstd
}

func decodeBody(data []byte, encoding string) (string, error) {
	switch encoding {
	case encodingNone:
		return string(data), nil
	case encodingZstd:
		out, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return "", fmt.Errorf("decompress body: %w", err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unknown body encoding %q", encoding)
	}
}
