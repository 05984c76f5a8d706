package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/obs"
	"github.com/rl1809/stockroom/internal/port"
)

const createKeyPrefix = "create:"

// InventoryService is the single entry point for reading and mutating
// products. It holds no per-record state; every call re-reads the store.
type InventoryService struct {
	db     port.DatabaseRepository
	cache  port.CacheRepository
	tracer trace.Tracer
	now    func() time.Time
}

// NewInventoryService wires the service to its store. cache may be nil, in
// which case CreateOnce does not deduplicate.
func NewInventoryService(db port.DatabaseRepository, cache port.CacheRepository, tracer trace.Tracer) *InventoryService {
	return &InventoryService{
		db:     db,
		cache:  cache,
		tracer: tracer,
		now:    time.Now,
	}
}

// List returns products whose category contains categoryFilter. A blank
// filter returns every product.
func (s *InventoryService) List(ctx context.Context, categoryFilter string) ([]domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.list")
	defer span.End()

	categoryFilter = strings.TrimSpace(categoryFilter)
	span.SetAttributes(attribute.String("category_filter", categoryFilter))

	products, err := s.db.ListProducts(ctx, categoryFilter)
	if err != nil {
		return nil, fail(span, unavailable("list products", err))
	}
	return products, nil
}

func (s *InventoryService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.get", trace.WithAttributes(attribute.Int64("product_id", id)))
	defer span.End()

	p, err := s.db.GetProduct(ctx, id)
	if err != nil {
		return nil, fail(span, unavailable("get product", err))
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// Create validates p and stores it. The store assigns the id.
func (s *InventoryService) Create(ctx context.Context, p domain.Product) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.create")
	defer span.End()

	if err := Validate(p); err != nil {
		return 0, fail(span, err)
	}

	id, err := s.create(ctx, p)
	if err != nil {
		return 0, fail(span, err)
	}
	span.SetAttributes(attribute.Int64("product_id", id))
	return id, nil
}

// CreateOnce is Create guarded by an idempotency key so a resubmitted form
// does not create a second product. Without a cache or a request id it is
// plain Create.
func (s *InventoryService) CreateOnce(ctx context.Context, requestID string, p domain.Product) (int64, error) {
	if s.cache == nil || requestID == "" {
		return s.Create(ctx, p)
	}

	ctx, span := s.tracer.Start(ctx, "inventory.create_once", trace.WithAttributes(attribute.String("request_id", requestID)))
	defer span.End()

	if err := Validate(p); err != nil {
		return 0, fail(span, err)
	}

	key := createKeyPrefix + requestID
	ok, err := s.cache.SetIdempotency(ctx, key)
	if err != nil {
		return 0, fail(span, unavailable("idempotency check", err))
	}
	if !ok {
		return 0, fail(span, ErrDuplicateRequest)
	}

	id, err := s.create(ctx, p)
	if err != nil {
		if releaseErr := s.cache.ReleaseIdempotency(ctx, key); releaseErr != nil {
			obs.Logger.Error("idempotency_release_failed", "request_id", requestID, "error", releaseErr)
		}
		return 0, fail(span, err)
	}
	span.SetAttributes(attribute.Int64("product_id", id))
	return id, nil
}

func (s *InventoryService) create(ctx context.Context, p domain.Product) (int64, error) {
	p.OrderDate = s.orderDate(p.OrderDate)

	id, err := s.db.CreateProduct(ctx, p)
	if err != nil {
		return 0, storeError("create product", err)
	}

	obs.Logger.Info("product_created", "product_id", id, "name", p.Name)
	return id, nil
}

// Update replaces the product targetID with p in full. p.Version must be the
// version the caller read; a concurrent change or delete makes the write
// fail instead of overwriting.
func (s *InventoryService) Update(ctx context.Context, targetID int64, p domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "inventory.update", trace.WithAttributes(
		attribute.Int64("product_id", targetID),
		attribute.Int64("expected_version", p.Version),
	))
	defer span.End()

	if p.ID != targetID {
		return fail(span, ErrIdentityMismatch)
	}

	if err := Validate(p); err != nil {
		return fail(span, err)
	}

	p.OrderDate = s.orderDate(p.OrderDate)

	err := s.db.UpdateProduct(ctx, p, p.Version)
	if err == nil {
		obs.Logger.Info("product_updated", "product_id", targetID, "version", p.Version+1)
		return nil
	}
	if !errors.Is(err, port.ErrVersionConflict) {
		return fail(span, storeError("update product", err))
	}

	current, getErr := s.db.GetProduct(ctx, targetID)
	if getErr != nil {
		return fail(span, unavailable("recheck product", getErr))
	}
	if current == nil {
		return fail(span, ErrNotFound)
	}

	obs.Logger.Warn("product_update_conflict",
		"product_id", targetID,
		"expected_version", p.Version,
		"current_version", current.Version,
	)
	return fail(span, ErrConcurrencyConflict)
}

// Delete removes the product. A product that vanishes between the
// existence check and the delete counts as deleted.
func (s *InventoryService) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "inventory.delete", trace.WithAttributes(attribute.Int64("product_id", id)))
	defer span.End()

	p, err := s.db.GetProduct(ctx, id)
	if err != nil {
		return fail(span, unavailable("get product", err))
	}
	if p == nil {
		return fail(span, ErrNotFound)
	}

	err = s.db.DeleteProduct(ctx, id)
	if errors.Is(err, port.ErrRecordNotFound) {
		obs.Logger.Info("product_already_deleted", "product_id", id)
		return nil
	}
	if err != nil {
		return fail(span, unavailable("delete product", err))
	}

	obs.Logger.Info("product_deleted", "product_id", id)
	return nil
}

// ListReport returns the inventory value of every product, computed from
// the records as read by this call.
func (s *InventoryService) ListReport(ctx context.Context) ([]domain.ReportEntry, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.report")
	defer span.End()

	products, err := s.db.ListProducts(ctx, "")
	if err != nil {
		return nil, fail(span, unavailable("list products", err))
	}

	entries := make([]domain.ReportEntry, 0, len(products))
	for _, p := range products {
		entries = append(entries, domain.NewReportEntry(p))
	}
	return entries, nil
}

// Ping reports store reachability for health checks.
func (s *InventoryService) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *InventoryService) orderDate(t time.Time) time.Time {
	if t.IsZero() {
		return domain.Day(s.now())
	}
	return domain.Day(t)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// storeError is unavailable except for rows the store refused on a
// constraint, which are the caller's fault rather than an outage.
func storeError(op string, err error) error {
	if errors.Is(err, port.ErrConstraintViolation) {
		return fmt.Errorf("%w: %s: %w", ErrConstraintViolation, op, err)
	}
	return unavailable(op, err)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
