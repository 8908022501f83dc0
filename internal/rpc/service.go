// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package rpc exposes the gateway operations over gRPC. The service is
// described by hand instead of generated code: both methods take and return a
// google.protobuf.Struct carrying the same JSON shapes as the HTTP API, so a
// caller needs no .proto file to talk to it.
//
// Operation failures travel in-band (success=false) like over HTTP. Only a
// malformed request (InvalidArgument) and a full connection table
// (ResourceExhausted) are reported as gRPC status errors.
package rpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "redisgate.v1.Gateway"

// Full method names.
const (
	ProbeMethod        = "/" + ServiceName + "/Probe"
	ExecuteBatchMethod = "/" + ServiceName + "/ExecuteBatch"
)

// GatewayServer is the server-side API of the service.
type GatewayServer interface {
	Probe(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ExecuteBatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GatewayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Probe", Handler: probeHandler},
		{MethodName: "ExecuteBatch", Handler: executeBatchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "redisgate/v1/gateway.proto",
}

// RegisterGatewayServer registers impl on s.
func RegisterGatewayServer(s grpc.ServiceRegistrar, impl GatewayServer) {
	s.RegisterService(&serviceDesc, impl)
}

func probeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GatewayServer).Probe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ProbeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GatewayServer).Probe(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func executeBatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GatewayServer).ExecuteBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExecuteBatchMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GatewayServer).ExecuteBatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// toStruct converts any JSON-marshalable value to a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// fromStruct decodes s into v through its JSON form.
func fromStruct(s *structpb.Struct, v any) error {
	b, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
