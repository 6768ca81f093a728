// Package rpc holds the gRPC plumbing shared by the integrity services and
// the gateway: the JSON wire codec, the bounded worker pool and the
// degraded-response trailer.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype of the JSON codec.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(JSONCodec{})
}

// JSONCodec marshals gRPC messages as JSON so services can exchange plain
// Go structs without generated protobuf code.
type JSONCodec struct{}

func (JSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (JSONCodec) Name() string {
	return CodecName
}

// CallOption forces the JSON codec on a client call.
func CallOption() grpc.CallOption {
	return grpc.ForceCodecCallOption{Codec: JSONCodec{}}
}
