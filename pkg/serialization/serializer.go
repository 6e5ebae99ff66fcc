// Package serialization turns journal records and diagnostic dumps into
// compact bytes for the storage adapters. A serializer pairs a codec
// with an optional compression stage; both ends must agree on the pair.
package serialization

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes values to bytes and back.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
	Name() string
}

// CompressionType selects the compression stage.
type CompressionType string

const (
	CompressionNone CompressionType = "none"
	CompressionGzip CompressionType = "gzip"
	CompressionZstd CompressionType = "zstd"
)

// compressors maps each compression type to its pack/unpack pair.
// CompressionNone is the absent entry.
var compressors = map[CompressionType]struct {
	pack   func([]byte) ([]byte, error)
	unpack func([]byte) ([]byte, error)
}{
	CompressionGzip: {pack: gzipPack, unpack: gzipUnpack},
	CompressionZstd: {pack: zstdPack, unpack: zstdUnpack},
}

// Config holds serialization settings.
type Config struct {
	Codec       Codec
	Compression CompressionType
}

// Serializer runs the encode-then-compress pipeline journal writers use
// before handing bytes to their backing store.
type Serializer struct {
	config Config
}

// NewSerializer creates a serializer; a nil codec falls back to msgpack.
func NewSerializer(config Config) *Serializer {
	if config.Codec == nil {
		config.Codec = NewMsgPackCodec()
	}
	return &Serializer{config: config}
}

// DefaultSerializer is msgpack with zstd, the densest pairing.
func DefaultSerializer() *Serializer {
	return NewSerializer(Config{
		Codec:       NewMsgPackCodec(),
		Compression: CompressionZstd,
	})
}

// Serialize encodes v and applies the configured compression stage.
func (s *Serializer) Serialize(v interface{}) ([]byte, error) {
	data, err := s.config.Codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("codec encoding failed: %w", err)
	}
	if c, ok := compressors[s.config.Compression]; ok {
		if data, err = c.pack(data); err != nil {
			return nil, fmt.Errorf("compression failed: %w", err)
		}
	}
	return data, nil
}

// Deserialize reverses Serialize into v.
func (s *Serializer) Deserialize(data []byte, v interface{}) error {
	if c, ok := compressors[s.config.Compression]; ok {
		var err error
		if data, err = c.unpack(data); err != nil {
			return fmt.Errorf("decompression failed: %w", err)
		}
	}
	if err := s.config.Codec.Decode(data, v); err != nil {
		return fmt.Errorf("codec decoding failed: %w", err)
	}
	return nil
}

func gzipPack(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipUnpack(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func zstdPack(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func zstdUnpack(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

// JSONCodec is the debugging-friendly codec.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v interface{}) ([]byte, error)    { return json.Marshal(v) }
func (c *JSONCodec) Decode(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (c *JSONCodec) Name() string                            { return "json" }

// MsgPackCodec is the default wire codec.
type MsgPackCodec struct{}

func (c *MsgPackCodec) Encode(v interface{}) ([]byte, error)    { return msgpack.Marshal(v) }
func (c *MsgPackCodec) Decode(data []byte, v interface{}) error { return msgpack.Unmarshal(data, v) }
func (c *MsgPackCodec) Name() string                            { return "msgpack" }

// NewJSONCodec creates a new JSON codec.
func NewJSONCodec() Codec { return &JSONCodec{} }

// NewMsgPackCodec creates a new MessagePack codec.
func NewMsgPackCodec() Codec { return &MsgPackCodec{} }
