package handler

import (
	"context"

	"google.golang.org/grpc"

	"github.com/rl1809/stockroom/internal/core/domain"
)

const inventoryServiceName = "stockroom.v1.InventoryService"

type ListProductsRequest struct {
	Category string `json:"category"`
}

type ListProductsResponse struct {
	Products []domain.Product `json:"products"`
}

type GetProductRequest struct {
	ID int64 `json:"id"`
}

type GetProductResponse struct {
	Product domain.Product `json:"product"`
}

type CreateProductRequest struct {
	RequestID string         `json:"request_id"`
	Product   domain.Product `json:"product"`
}

type CreateProductResponse struct {
	ID int64 `json:"id"`
}

type UpdateProductRequest struct {
	ID      int64          `json:"id"`
	Product domain.Product `json:"product"`
}

type UpdateProductResponse struct {
	Product domain.Product `json:"product"`
}

type DeleteProductRequest struct {
	ID int64 `json:"id"`
}

type DeleteProductResponse struct{}

type ListReportRequest struct{}

type ListReportResponse struct {
	Entries []domain.ReportEntry `json:"entries"`
}

// InventoryServer is the server side of stockroom.v1.InventoryService.
type InventoryServer interface {
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	GetProduct(context.Context, *GetProductRequest) (*GetProductResponse, error)
	CreateProduct(context.Context, *CreateProductRequest) (*CreateProductResponse, error)
	UpdateProduct(context.Context, *UpdateProductRequest) (*UpdateProductResponse, error)
	DeleteProduct(context.Context, *DeleteProductRequest) (*DeleteProductResponse, error)
	ListReport(context.Context, *ListReportRequest) (*ListReportResponse, error)
}

func RegisterInventoryServer(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&inventoryServiceDesc, srv)
}

// unary builds a grpc.MethodHandler for one method of InventoryServer.
func unary[Req any, Resp any](method string, call func(InventoryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(InventoryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + inventoryServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(InventoryServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var inventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: inventoryServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListProducts", InventoryServer.ListProducts),
		unary("GetProduct", InventoryServer.GetProduct),
		unary("CreateProduct", InventoryServer.CreateProduct),
		unary("UpdateProduct", InventoryServer.UpdateProduct),
		unary("DeleteProduct", InventoryServer.DeleteProduct),
		unary("ListReport", InventoryServer.ListReport),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stockroom/v1/inventory.json",
}

// InventoryClient calls stockroom.v1.InventoryService over a client conn.
type InventoryClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryClient(cc grpc.ClientConnInterface) *InventoryClient {
	return &InventoryClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *InventoryClient, method string, in any) (*Resp, error) {
	out := new(Resp)
	err := c.cc.Invoke(ctx, "/"+inventoryServiceName+"/"+method, in, out, grpc.CallContentSubtype(jsonCodecName))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) ListProducts(ctx context.Context, in *ListProductsRequest) (*ListProductsResponse, error) {
	return invoke[ListProductsResponse](ctx, c, "ListProducts", in)
}

func (c *InventoryClient) GetProduct(ctx context.Context, in *GetProductRequest) (*GetProductResponse, error) {
	return invoke[GetProductResponse](ctx, c, "GetProduct", in)
}

func (c *InventoryClient) CreateProduct(ctx context.Context, in *CreateProductRequest) (*CreateProductResponse, error) {
	return invoke[CreateProductResponse](ctx, c, "CreateProduct", in)
}

func (c *InventoryClient) UpdateProduct(ctx context.Context, in *UpdateProductRequest) (*UpdateProductResponse, error) {
	return invoke[UpdateProductResponse](ctx, c, "UpdateProduct", in)
}

func (c *InventoryClient) DeleteProduct(ctx context.Context, in *DeleteProductRequest) (*DeleteProductResponse, error) {
	return invoke[DeleteProductResponse](ctx, c, "DeleteProduct", in)
}

func (c *InventoryClient) ListReport(ctx context.Context, in *ListReportRequest) (*ListReportResponse, error) {
	return invoke[ListReportResponse](ctx, c, "ListReport", in)
}
