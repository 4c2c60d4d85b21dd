package grpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// jsonCodec implements grpc/encoding.Codec over plain JSON instead of wire
// protobuf. The guiding service's messages are hand-written Go structs
// (there is no .proto/protoc step in this module), so the server and its
// generated-stub-free client both need a codec that can marshal them
// without a protobuf descriptor. Registering under the name "proto"
// overrides grpc-go's default codec, which is otherwise hardwired to
// require proto.Message.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("grpc: json codec marshal: %w", err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("grpc: json codec unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string { return "proto" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
