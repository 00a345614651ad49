package netsync

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Compressor сжимает полезную нагрузку пакета изменений.
// Имя попадает в метаданные события, чтобы получатель выбрал тот же алгоритм.
type Compressor interface {
	Name() string
	Compress(payload []byte) ([]byte, error)
	Decompress(payload []byte) ([]byte, error)
}

type passthroughCompressor struct{}

// NewPassthroughCompressor возвращает компрессор без сжатия
func NewPassthroughCompressor() Compressor { return passthroughCompressor{} }

func (passthroughCompressor) Name() string                              { return "none" }
func (passthroughCompressor) Compress(payload []byte) ([]byte, error)   { return payload, nil }
func (passthroughCompressor) Decompress(payload []byte) ([]byte, error) { return payload, nil }

// zstdCompressor сжимает пакеты через zstd; кодер и декодер переиспользуются
type zstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstdCompressor создаёт zstd-компрессор
func NewZstdCompressor() (Compressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &zstdCompressor{enc: enc, dec: dec}, nil
}

func (z *zstdCompressor) Name() string { return "zstd" }

func (z *zstdCompressor) Compress(payload []byte) ([]byte, error) {
	return z.enc.EncodeAll(payload, make([]byte, 0, len(payload)/2)), nil
}

func (z *zstdCompressor) Decompress(payload []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}

func compressorFor(name string, own Compressor) (Compressor, error) {
	switch {
	case name == "" || name == "none":
		return passthroughCompressor{}, nil
	case own != nil && own.Name() == name:
		return own, nil
	case name == "zstd":
		return NewZstdCompressor()
	}
	return nil, fmt.Errorf("неизвестное сжатие %q", name)
}
