package postgres

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CompressionAlgo names how a stored payload is encoded.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which zstd is used.
const DefaultCompressThreshold = 10 * 1024

// Payload is a JSON document as stored: either Plain or Compressed is set.
type Payload struct {
	Plain      []byte
	Compressed []byte
	Algo       CompressionAlgo
}

// PayloadCodec compresses large JSON payloads with zstd.
// The encoder and decoder are safe for concurrent EncodeAll/DecodeAll.
type PayloadCodec struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewPayloadCodec creates a codec. threshold <= 0 selects DefaultCompressThreshold.
func NewPayloadCodec(threshold int) (*PayloadCodec, error) {
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &PayloadCodec{
		encoder:   encoder,
		decoder:   decoder,
		threshold: threshold,
	}, nil
}

// Encode stores raw as is, or compressed when it exceeds the threshold.
func (c *PayloadCodec) Encode(raw []byte) Payload {
	if len(raw) <= c.threshold {
		return Payload{Plain: raw, Algo: CompressionNone}
	}
	return Payload{
		Compressed: c.encoder.EncodeAll(raw, nil),
		Algo:       CompressionZstd,
	}
}

// Decode returns the original JSON of p.
func (c *PayloadCodec) Decode(p Payload) ([]byte, error) {
	switch p.Algo {
	case CompressionZstd:
		raw, err := c.decoder.DecodeAll(p.Compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress payload: %w", err)
		}
		return raw, nil
	case CompressionNone, "":
		return p.Plain, nil
	default:
		return nil, fmt.Errorf("unknown compression algorithm %q", p.Algo)
	}
}
