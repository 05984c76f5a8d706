package port

import (
	"context"
	"errors"

	"github.com/rl1809/stockroom/internal/core/domain"
)

var (
	// ErrRecordNotFound is returned by DeleteProduct when no row matched.
	ErrRecordNotFound = errors.New("record not found")

	// ErrVersionConflict is returned by UpdateProduct when the row is gone or
	// its version no longer matches the expected one.
	ErrVersionConflict = errors.New("version conflict")

	// ErrConstraintViolation marks a write the store rejected because the row
	// breaks a table constraint.
	ErrConstraintViolation = errors.New("constraint violation")
)

type DatabaseRepository interface {
	// CreateProduct inserts a new product and returns the assigned id
	CreateProduct(ctx context.Context, product domain.Product) (int64, error)

	// GetProduct retrieves a product by id, nil when absent
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)

	// ListProducts returns products whose category contains the filter,
	// case-insensitively; a blank filter returns everything
	ListProducts(ctx context.Context, categoryFilter string) ([]domain.Product, error)

	// UpdateProduct replaces every field with a version check for optimistic locking
	UpdateProduct(ctx context.Context, product domain.Product, expectedVersion int64) error

	// DeleteProduct removes a product by id
	DeleteProduct(ctx context.Context, id int64) error

	// Ping reports whether the store is reachable
	Ping(ctx context.Context) error
}
