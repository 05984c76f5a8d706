package handler

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/stockroom/internal/adapter/storage"
	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/service"
)

func newGRPCConn(t *testing.T) *grpc.ClientConn {
	return newGRPCConnFor(t, newInventoryService(t))
}

func newGRPCConnFor(t *testing.T, svc *service.InventoryService) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(NewGRPCHandler(svc))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newGRPCClient(t *testing.T) *InventoryClient {
	return NewInventoryClient(newGRPCConn(t))
}

func grpcWidget() domain.Product {
	return domain.Product{Name: "Widget", Price: 100, Count: 5, Shelf: "A1"}
}

func TestGRPC_CreateGetReport(t *testing.T) {
	client := newGRPCClient(t)
	ctx := context.Background()

	created, err := client.CreateProduct(ctx, &CreateProductRequest{Product: grpcWidget()})
	require.NoError(t, err)

	got, err := client.GetProduct(ctx, &GetProductRequest{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Product.Name)
	assert.Equal(t, int64(1), got.Product.Version)
	assert.False(t, got.Product.OrderDate.IsZero())

	report, err := client.ListReport(ctx, &ListReportRequest{})
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, int64(500), report.Entries[0].InventoryValue)
}

func TestGRPC_ValidationDetails(t *testing.T) {
	client := newGRPCClient(t)

	p := grpcWidget()
	p.Price = -1
	p.Name = ""
	_, err := client.CreateProduct(context.Background(), &CreateProductRequest{Product: p})

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())

	var fields []string
	for _, d := range st.Details() {
		if br, ok := d.(*errdetails.BadRequest); ok {
			for _, v := range br.GetFieldViolations() {
				fields = append(fields, v.GetField())
			}
		}
	}
	assert.ElementsMatch(t, []string{"name", "price"}, fields)
}

func TestGRPC_ErrorCodes(t *testing.T) {
	client := newGRPCClient(t)
	ctx := context.Background()

	_, err := client.GetProduct(ctx, &GetProductRequest{ID: 404})
	assert.Equal(t, codes.NotFound, status.Code(err))

	created, err := client.CreateProduct(ctx, &CreateProductRequest{Product: grpcWidget()})
	require.NoError(t, err)

	p := grpcWidget()
	p.ID = created.ID + 1
	_, err = client.UpdateProduct(ctx, &UpdateProductRequest{ID: created.ID, Product: p})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.DeleteProduct(ctx, &DeleteProductRequest{ID: created.ID})
	require.NoError(t, err)
	_, err = client.DeleteProduct(ctx, &DeleteProductRequest{ID: created.ID})
	assert.Equal(t, codes.NotFound, status.Code(err))

	p.ID = created.ID
	p.Version = 1
	_, err = client.UpdateProduct(ctx, &UpdateProductRequest{ID: created.ID, Product: p})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPC_ConcurrentUpdates(t *testing.T) {
	client := newGRPCClient(t)
	ctx := context.Background()

	created, err := client.CreateProduct(ctx, &CreateProductRequest{Product: grpcWidget()})
	require.NoError(t, err)
	base, err := client.GetProduct(ctx, &GetProductRequest{ID: created.ID})
	require.NoError(t, err)

	var successCount, abortedCount atomic.Int32
	var wg sync.WaitGroup
	totalRequests := 10

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p := base.Product
			p.Count = int64(n)
			_, err := client.UpdateProduct(ctx, &UpdateProductRequest{ID: p.ID, Product: p})
			switch status.Code(err) {
			case codes.OK:
				successCount.Add(1)
			case codes.Aborted:
				abortedCount.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}

	wg.Wait()

	assert.Equal(t, int32(1), successCount.Load())
	assert.Equal(t, int32(totalRequests-1), abortedCount.Load())
}

func TestGRPC_ListFilter(t *testing.T) {
	client := newGRPCClient(t)
	ctx := context.Background()

	for _, c := range []string{"Electronics", "Office Paper"} {
		p := grpcWidget()
		p.Category = c
		_, err := client.CreateProduct(ctx, &CreateProductRequest{Product: p})
		require.NoError(t, err)
	}

	resp, err := client.ListProducts(ctx, &ListProductsRequest{Category: "tronic"})
	require.NoError(t, err)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "Electronics", resp.Products[0].Category)

	resp, err = client.ListProducts(ctx, &ListProductsRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Products, 2)
}

func TestGRPC_Health(t *testing.T) {
	conn := newGRPCConn(t)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: inventoryServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestGRPC_HealthFollowsStore(t *testing.T) {
	db := newSQLiteDB(t)
	health := healthpb.NewHealthClient(newGRPCConnFor(t, newServiceOver(storage.NewSQLAdapter(db))))
	ctx := context.Background()

	for _, name := range []string{"", inventoryServiceName} {
		resp, err := health.Check(ctx, &healthpb.HealthCheckRequest{Service: name})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus(), "service %q", name)
	}

	require.NoError(t, db.Close())

	for _, name := range []string{"", inventoryServiceName} {
		resp, err := health.Check(ctx, &healthpb.HealthCheckRequest{Service: name})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus(), "service %q", name)
	}

	_, err := health.Check(ctx, &healthpb.HealthCheckRequest{Service: "unknown.Service"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPC_ConstraintRejection(t *testing.T) {
	client := NewInventoryClient(newGRPCConnFor(t, newServiceOver(&rejectingRepo{})))

	_, err := client.CreateProduct(context.Background(), &CreateProductRequest{Product: grpcWidget()})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}
