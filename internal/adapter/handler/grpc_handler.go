package handler

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/service"
	"github.com/rl1809/stockroom/internal/obs"
)

type GRPCHandler struct {
	inventory *service.InventoryService
}

func NewGRPCHandler(inventory *service.InventoryService) *GRPCHandler {
	return &GRPCHandler{inventory: inventory}
}

// NewGRPCServer builds a server exposing the inventory service and the
// standard health service.
func NewGRPCServer(h *GRPCHandler, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(loggingInterceptor))
	s := grpc.NewServer(opts...)
	RegisterInventoryServer(s, h)
	healthpb.RegisterHealthServer(s, newStoreHealth(h.inventory))
	return s
}

// storeHealth answers Check by pinging the store, like GET /health. Watch
// and List fall through to the static statuses of the embedded server.
type storeHealth struct {
	*health.Server
	inventory *service.InventoryService
}

func newStoreHealth(inventory *service.InventoryService) *storeHealth {
	hs := health.NewServer()
	hs.SetServingStatus(inventoryServiceName, healthpb.HealthCheckResponse_SERVING)
	return &storeHealth{Server: hs, inventory: inventory}
}

func (s *storeHealth) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	svc := req.GetService()
	if svc != "" && svc != inventoryServiceName {
		return s.Server.Check(ctx, req)
	}
	if err := s.inventory.Ping(ctx); err != nil {
		obs.Logger.Warn("health_check_failed", "error", err)
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

func (h *GRPCHandler) ListProducts(ctx context.Context, req *ListProductsRequest) (*ListProductsResponse, error) {
	products, err := h.inventory.List(ctx, req.Category)
	if err != nil {
		return nil, toStatus(err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return &ListProductsResponse{Products: products}, nil
}

func (h *GRPCHandler) GetProduct(ctx context.Context, req *GetProductRequest) (*GetProductResponse, error) {
	p, err := h.inventory.Get(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetProductResponse{Product: *p}, nil
}

func (h *GRPCHandler) CreateProduct(ctx context.Context, req *CreateProductRequest) (*CreateProductResponse, error) {
	id, err := h.inventory.CreateOnce(ctx, req.RequestID, req.Product)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CreateProductResponse{ID: id}, nil
}

func (h *GRPCHandler) UpdateProduct(ctx context.Context, req *UpdateProductRequest) (*UpdateProductResponse, error) {
	if err := h.inventory.Update(ctx, req.ID, req.Product); err != nil {
		return nil, toStatus(err)
	}

	p, err := h.inventory.Get(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &UpdateProductResponse{Product: *p}, nil
}

func (h *GRPCHandler) DeleteProduct(ctx context.Context, req *DeleteProductRequest) (*DeleteProductResponse, error) {
	if err := h.inventory.Delete(ctx, req.ID); err != nil {
		return nil, toStatus(err)
	}
	return &DeleteProductResponse{}, nil
}

func (h *GRPCHandler) ListReport(ctx context.Context, _ *ListReportRequest) (*ListReportResponse, error) {
	entries, err := h.inventory.ListReport(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListReportResponse{Entries: entries}, nil
}

func toStatus(err error) error {
	var verrs service.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		violations := make([]*errdetails.BadRequest_FieldViolation, 0, len(verrs))
		for _, fe := range verrs {
			violations = append(violations, &errdetails.BadRequest_FieldViolation{
				Field:       fe.Field,
				Description: fe.Reason,
			})
		}
		st := status.New(codes.InvalidArgument, verrs.Error())
		if detailed, derr := st.WithDetails(&errdetails.BadRequest{FieldViolations: violations}); derr == nil {
			st = detailed
		}
		return st.Err()
	case errors.Is(err, service.ErrIdentityMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrConstraintViolation):
		return status.Error(codes.FailedPrecondition, service.ErrConstraintViolation.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrConcurrencyConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, service.ErrDuplicateRequest):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, "store unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	obs.Logger.Info("grpc_request",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"latency_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return resp, err
}
