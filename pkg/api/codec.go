// Package api defines the JSON messages of the ebills Connect services.
//
// Messages are plain structs carried by Codec; amounts travel as decimal
// strings with two fractional digits ("120.50") next to a currency code.
package api

import "encoding/json"

// Codec marshals messages as JSON. It replaces Connect's protobuf-only
// "json" codec on both handlers and clients.
type Codec struct{}

// Name implements connect.Codec.
func (Codec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (Codec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal implements connect.Codec.
func (Codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
