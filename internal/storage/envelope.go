package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/qaeu/melvor-activity-monitor/internal/codec"
)

// envelope is the persisted byte layout shared by all backends:
// compressed bytes transposed to base64 plus the sizes/version needed to
// reverse the compression. The field names are load-bearing for
// compatibility with previously written payloads.
type envelope struct {
	Data             string `json:"data"`
	UncompressedSize int    `json:"uncompressedSize"`
	Version          int    `json:"version"`
}

// EncodeEnvelope wraps a compressed payload in the text-safe JSON envelope.
func EncodeEnvelope(p codec.Payload) ([]byte, error) {
	env := envelope{
		Data:             base64.StdEncoding.EncodeToString(p.Bytes),
		UncompressedSize: p.UncompressedSize,
		Version:          p.Version,
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("storage: encode envelope: %w", err)
	}
	return b, nil
}

// DecodeEnvelope unwraps envelope bytes back into a compressed payload.
func DecodeEnvelope(b []byte) (codec.Payload, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return codec.Payload{}, fmt.Errorf("storage: decode envelope: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return codec.Payload{}, fmt.Errorf("storage: decode envelope data: %w", err)
	}
	return codec.Payload{Bytes: raw, UncompressedSize: env.UncompressedSize, Version: env.Version}, nil
}
