package region

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// CompressionType is the one-byte tag preceding a chunk's payload in a
// region file's data sector.
type CompressionType byte

const (
	CompressionGZip        CompressionType = 1
	CompressionZLib        CompressionType = 2
	CompressionUncompressed CompressionType = 3
)

// ErrUnknownCompression is returned for a compression byte this store
// doesn't recognize.
type ErrUnknownCompression byte

func (e ErrUnknownCompression) Error() string {
	return fmt.Sprintf("region: unknown compression type %d", byte(e))
}

func compress(kind CompressionType, payload []byte) ([]byte, error) {
	switch kind {
	case CompressionGZip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZLib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionUncompressed:
		return payload, nil
	default:
		return nil, ErrUnknownCompression(kind)
	}
}

func decompress(kind CompressionType, payload []byte) ([]byte, error) {
	switch kind {
	case CompressionGZip:
		r, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionZLib:
		r, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionUncompressed:
		return payload, nil
	default:
		return nil, ErrUnknownCompression(kind)
	}
}
