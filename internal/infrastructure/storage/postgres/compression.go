package postgres

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CompressionAlgo specifies the compression algorithm used for a stored payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which payloads are compressed.
const DefaultCompressThreshold = 8 * 1024

// PayloadCodec stores large JSON payloads zstd-compressed and small ones as is.
// Encoder and decoder are safe for concurrent EncodeAll / DecodeAll calls.
type PayloadCodec struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewPayloadCodec creates a codec compressing payloads larger than threshold bytes.
func NewPayloadCodec(threshold int) (*PayloadCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	return &PayloadCodec{encoder: encoder, decoder: decoder, threshold: threshold}, nil
}

// Encode returns exactly one of plain or compressed, and the algorithm used.
func (c *PayloadCodec) Encode(payload []byte) (plain, compressed []byte, algo CompressionAlgo) {
	if len(payload) <= c.threshold {
		return payload, nil, CompressionNone
	}
	return nil, c.encoder.EncodeAll(payload, nil), CompressionZstd
}

// Decode reverses Encode.
func (c *PayloadCodec) Decode(plain, compressed []byte, algo CompressionAlgo) ([]byte, error) {
	switch algo {
	case CompressionNone, "":
		return plain, nil
	case CompressionZstd:
		out, err := c.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress payload: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown compression %q", algo)
}
