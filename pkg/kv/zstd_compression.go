package kv

import (
	"github.com/klauspost/compress/zstd"
)

// EncodeAll and DecodeAll are safe for concurrent use, one encoder/decoder is shared by the store.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

func compress(bb []byte) []byte {
	return zstdEncoder.EncodeAll(bb, make([]byte, 0, len(bb)/2))
}

func decompress(bbCompressed []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(bbCompressed, nil)
}
