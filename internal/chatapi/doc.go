// Package chatapi defines the gophchat RPC contract shared by the server and
// the client: request and response messages, the gRPC service descriptor,
// a typed client, and the JSON codec the service is served with.
//
// Messages are plain Go structs carried as JSON, so the contract lives in
// this package instead of generated protobuf code. Both ends force the codec
// explicitly (grpc.ForceServerCodec / grpc.ForceCodec); the content subtype
// on the wire is "application/grpc+json".
package chatapi
