package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/findinggems/settlement-service/internal/application"
	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/google/uuid"
)

type SettlementInternalService interface {
	GetCreatorBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOrderStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// SettlementInternalServer exposes read-only settlement state to other mesh
// services. The surface is trusted: callers are inside the service mesh, so
// requests act with operator capability.
type SettlementInternalServer struct {
	service *application.Service
}

// internalActor is the fixed identity internal callers act under.
var internalActor = application.Actor{
	UserID: uuid.MustParse("00000000-0000-0000-0000-000000000001"),
	Role:   domain.RoleAdmin,
}

func NewSettlementInternalServer(service *application.Service) *SettlementInternalServer {
	return &SettlementInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc SettlementInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: "findinggems.settlement.v1.SettlementInternalService",
		HandlerType: (*SettlementInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetCreatorBalance",
				Handler:    structHandler(svc, "GetCreatorBalance", SettlementInternalService.GetCreatorBalance),
			},
			{
				MethodName: "GetOrderStatus",
				Handler:    structHandler(svc, "GetOrderStatus", SettlementInternalService.GetOrderStatus),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "contracts/proto/settlement/v1/settlement_internal.proto",
	}, svc)
}

func (s *SettlementInternalServer) GetCreatorBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	creatorID, err := uuidField(req, "creator_id")
	if err != nil {
		return nil, err
	}
	balance, err := s.service.GetBalance(ctx, internalActor, creatorID)
	if err != nil {
		return nil, mapServiceError(err)
	}
	resp, err := structpb.NewStruct(map[string]any{
		"creator_id":        balance.CreatorID.String(),
		"available_balance": balance.AvailableBalance,
		"pending_balance":   balance.PendingBalance,
		"reserved_balance":  balance.ReservedBalance,
		"withdrawn_balance": balance.WithdrawnBalance,
		"total_earnings":    balance.TotalEarnings,
		"total_refunded":    balance.TotalRefunded,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func (s *SettlementInternalServer) GetOrderStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	orderID, err := uuidField(req, "order_id")
	if err != nil {
		return nil, err
	}
	order, err := s.service.GetOrder(ctx, internalActor, orderID)
	if err != nil {
		return nil, mapServiceError(err)
	}
	fields := map[string]any{
		"order_id":     order.OrderID.String(),
		"order_number": order.OrderNumber,
		"status":       string(order.Status),
		"total_amount": order.TotalAmount,
	}
	if order.PaidAt != nil {
		fields["paid_at"] = order.PaidAt.Unix()
	}
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func uuidField(req *structpb.Struct, field string) (uuid.UUID, error) {
	val := req.GetFields()[field]
	if val == nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "missing %s", field)
	}
	parsed, err := uuid.Parse(val.GetStringValue())
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s", field)
	}
	return parsed, nil
}

func mapServiceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func structHandler(
	svc SettlementInternalService,
	method string,
	call func(SettlementInternalService, context.Context, *structpb.Struct) (*structpb.Struct, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/findinggems.settlement.v1.SettlementInternalService/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(svc, ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(svc, ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
