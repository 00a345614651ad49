package storage

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/mmo-multipart/internal/multipart"
)

// Codec кодирует снимок в JSON и сжимает zstd.
// Кодер и декодер потокобезопасны в режиме EncodeAll/DecodeAll.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec создаёт кодек снимков
func NewCodec() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Encode сериализует снимок
func (c *Codec) Encode(snap multipart.Snapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка %s: %w", snap.Pos, err)
	}
	return c.enc.EncodeAll(raw, nil), nil
}

// Decode восстанавливает снимок
func (c *Codec) Decode(data []byte) (multipart.Snapshot, error) {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return multipart.Snapshot{}, fmt.Errorf("ошибка распаковки снимка: %w", err)
	}
	var snap multipart.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return multipart.Snapshot{}, fmt.Errorf("ошибка десериализации снимка: %w", err)
	}
	return snap, nil
}

// Close освобождает ресурсы zstd
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}
