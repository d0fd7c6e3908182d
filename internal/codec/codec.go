// Package codec serializes record lists to bytes and compresses them with
// deflate. Payloads are self-describing: compressed bytes, the uncompressed
// byte length, and a format version tag.
//
// Text-safe (base64) encoding happens at the storage boundary, not here;
// this codec operates on raw bytes.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Version tags the current payload format. Reserved for future migrations;
// only version 1 exists.
const Version = 1

// Payload is the output of Compress and the input to Decompress.
type Payload struct {
	Bytes            []byte
	UncompressedSize int
	Version          int
}

// CompressedSize returns the stored byte length of the payload.
func (p Payload) CompressedSize() int { return len(p.Bytes) }

// Compressor serializes values to JSON and deflates them. With compression
// disabled it stores the raw serialized bytes in the same Payload shape, so
// callers never need to know which path was taken.
type Compressor struct {
	disabled bool
	level    int
}

// Option configures a Compressor.
type Option func(*Compressor)

// WithoutCompression stores raw serialized bytes. This is the fallback used
// when the deflate primitive cannot be trusted in the host environment; it is
// also handy in tests that need byte-exact payload sizes.
func WithoutCompression() Option {
	return func(c *Compressor) { c.disabled = true }
}

// WithLevel overrides the deflate level.
func WithLevel(level int) Option {
	return func(c *Compressor) { c.level = level }
}

// New creates a Compressor. Defaults to best compression: payloads are tiny
// and written rarely, so trading CPU for bytes is the right call.
func New(opts ...Option) *Compressor {
	c := &Compressor{level: flate.BestCompression}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compress serializes v to JSON and deflates it.
func (c *Compressor) Compress(v interface{}) (Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Payload{}, fmt.Errorf("codec: marshal: %w", err)
	}
	if c.disabled {
		return Payload{Bytes: raw, UncompressedSize: len(raw), Version: Version}, nil
	}

	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, c.level)
	if err != nil {
		return Payload{}, fmt.Errorf("codec: deflate init: %w", err)
	}
	if _, err := fw.Write(raw); err != nil {
		return Payload{}, fmt.Errorf("codec: deflate: %w", err)
	}
	if err := fw.Close(); err != nil {
		return Payload{}, fmt.Errorf("codec: deflate close: %w", err)
	}
	return Payload{Bytes: buf.Bytes(), UncompressedSize: len(raw), Version: Version}, nil
}

// Decompress reverses Compress into out. Failures are returned to the caller:
// a partially decoded payload cannot be partially trusted.
func (c *Compressor) Decompress(p Payload, out interface{}) error {
	if p.Version != Version {
		return fmt.Errorf("codec: unsupported payload version %d", p.Version)
	}

	raw, err := inflate(p.Bytes, p.UncompressedSize)
	if err != nil {
		// Payloads written with compression disabled carry the serialized
		// bytes verbatim; their stored and uncompressed lengths agree.
		if len(p.Bytes) == p.UncompressedSize {
			raw = p.Bytes
		} else {
			return fmt.Errorf("codec: inflate: %w", err)
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("codec: unmarshal: %w", err)
	}
	return nil
}

func inflate(b []byte, sizeHint int) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(b))
	defer fr.Close()

	buf := bytes.NewBuffer(make([]byte, 0, sizeHint))
	if _, err := io.Copy(buf, fr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
