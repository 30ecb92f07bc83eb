// Package api defines the request and response messages of the ZapSplit RPC
// services. Messages are plain structs carried as JSON over the Connect
// protocol; register Codec on handlers and clients.
package api

import (
	"encoding/json"
	"fmt"
)

// CodecName is the Connect codec name, served as application/json.
const CodecName = "json"

// Codec is a connect.Codec that marshals API messages with encoding/json.
type Codec struct{}

// Name implements connect.Codec.
func (Codec) Name() string { return CodecName }

// Marshal implements connect.Codec.
func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

// Unmarshal implements connect.Codec. An empty body decodes to the zero message.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
