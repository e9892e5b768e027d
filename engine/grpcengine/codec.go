package grpcengine

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// The wire format is JSON over gRPC framing, negotiated through the content
// subtype. Keeping protobuf codegen out of the repo keeps the wire contract
// hand-auditable; the daemon side registers the same codec.
const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
