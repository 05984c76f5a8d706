package handler

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/rl1809/stockroom/internal/adapter/storage"
	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/service"
	"github.com/rl1809/stockroom/internal/port"
)

func newSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newServiceOver(db port.DatabaseRepository) *service.InventoryService {
	return service.NewInventoryService(db, nil, noop.NewTracerProvider().Tracer("test"))
}

func newInventoryService(t *testing.T) *service.InventoryService {
	return newServiceOver(storage.NewSQLAdapter(newSQLiteDB(t)))
}

// rejectingRepo refuses every write the way a store refuses a row that
// breaks a table constraint.
type rejectingRepo struct {
	port.DatabaseRepository
	product domain.Product
}

func (r *rejectingRepo) CreateProduct(context.Context, domain.Product) (int64, error) {
	return 0, fmt.Errorf("insert product: %w", port.ErrConstraintViolation)
}

func (r *rejectingRepo) UpdateProduct(context.Context, domain.Product, int64) error {
	return fmt.Errorf("update product: %w", port.ErrConstraintViolation)
}

func (r *rejectingRepo) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	p := r.product
	p.ID = id
	return &p, nil
}
