package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/deadline-extractor/internal/common"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "deadlines.v1.DeadlinesService"

// DeadlinesServiceServer is the server API for DeadlinesService.
type DeadlinesServiceServer interface {
	ProcessDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportDeadlines(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IngestDirectory(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(DeadlinesServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call structMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DeadlinesServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DeadlinesServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// DeadlinesServiceDesc describes DeadlinesService for grpc.ServiceRegistrar.
var DeadlinesServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DeadlinesServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("ProcessDocument", DeadlinesServiceServer.ProcessDocument),
		unaryHandler("GetRun", DeadlinesServiceServer.GetRun),
		unaryHandler("ExportDeadlines", DeadlinesServiceServer.ExportDeadlines),
		unaryHandler("IngestDirectory", DeadlinesServiceServer.IngestDirectory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "deadlines/v1/deadlines.proto",
}

func RegisterDeadlinesServiceServer(s grpc.ServiceRegistrar, srv DeadlinesServiceServer) {
	s.RegisterService(&DeadlinesServiceDesc, srv)
}

// DeadlinesClient calls DeadlinesService over conn.
type DeadlinesClient struct {
	cc grpc.ClientConnInterface
}

func NewDeadlinesClient(cc grpc.ClientConnInterface) *DeadlinesClient {
	return &DeadlinesClient{cc: cc}
}

func (c *DeadlinesClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DeadlinesClient) ProcessDocument(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ProcessDocument", in, opts...)
}

func (c *DeadlinesClient) GetRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetRun", in, opts...)
}

func (c *DeadlinesClient) ExportDeadlines(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ExportDeadlines", in, opts...)
}

func (c *DeadlinesClient) IngestDirectory(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "IngestDirectory", in, opts...)
}

// NewGRPCServer builds a server with DeadlinesService, health and reflection
// registered. The returned health server starts out SERVING.
func NewGRPCServer(svc DeadlinesServiceServer, logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(requestIDInterceptor(), loggingInterceptor(logger)))
	RegisterDeadlinesServiceServer(s, svc)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	// Reflection for grpcurl
	reflection.Register(s)
	return s, hs
}

// requestIDInterceptor takes x-request-id from metadata or mints one.
func requestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("x-request-id"); len(v) > 0 {
				id = v[0]
			}
		}
		if id == "" {
			id = uuid.NewString()
		}
		return handler(common.WithRequestID(ctx, id), req)
	}
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		attrs := []any{
			"method", info.FullMethod,
			"request_id", common.RequestIDFromContext(ctx),
			"code", status.Code(err).String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			logger.Warn("grpc.request.failed", append(attrs, "error", err)...)
		} else {
			logger.Info("grpc.request.ok", attrs...)
		}
		return resp, err
	}
}
