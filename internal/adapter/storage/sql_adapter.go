package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/go-sqlite"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/port"
)

const productColumns = `id, name, price, order_date, category, shelf, quantity, description, version`

// SQLAdapter stores products in a single table. Queries stick to the subset
// of SQL that MySQL and SQLite share.
type SQLAdapter struct {
	db *sqlx.DB
}

func NewSQLAdapter(db *sqlx.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

func (a *SQLAdapter) CreateProduct(ctx context.Context, p domain.Product) (int64, error) {
	result, err := a.db.ExecContext(ctx, `
		INSERT INTO products (name, price, order_date, category, shelf, quantity, description, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
		p.Name, p.Price, p.OrderDate, p.Category, p.Shelf, p.Count, p.Description,
	)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (a *SQLAdapter) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := a.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (a *SQLAdapter) ListProducts(ctx context.Context, categoryFilter string) ([]domain.Product, error) {
	products := []domain.Product{}

	filter := strings.ToLower(strings.TrimSpace(categoryFilter))
	var err error
	if filter == "" {
		err = a.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products ORDER BY id`)
	} else {
		err = a.db.SelectContext(ctx, &products, `
			SELECT `+productColumns+` FROM products
			WHERE `+a.lower()+`(category) LIKE ? ESCAPE '!'
			ORDER BY id`,
			"%"+escapeLike(filter)+"%",
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (a *SQLAdapter) UpdateProduct(ctx context.Context, p domain.Product, expectedVersion int64) error {
	result, err := a.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, price = ?, order_date = ?, category = ?, shelf = ?, quantity = ?, description = ?,
		    version = version + 1
		WHERE id = ? AND version = ?`,
		p.Name, p.Price, p.OrderDate, p.Category, p.Shelf, p.Count, p.Description,
		p.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", classify(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return port.ErrVersionConflict
	}
	return nil
}

func (a *SQLAdapter) DeleteProduct(ctx context.Context, id int64) error {
	result, err := a.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return port.ErrRecordNotFound
	}
	return nil
}

func (a *SQLAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// lower names the SQL function that folds case the way strings.ToLower
// does. MySQL's LOWER follows the column collation and already handles
// non-ASCII letters.
func (a *SQLAdapter) lower() string {
	if a.db.DriverName() == "sqlite" {
		return sqliteLower
	}
	return "LOWER"
}

// MySQL errors raised when a row breaks a column or CHECK constraint.
var mysqlConstraintErrors = map[uint16]bool{
	1048: true, // column cannot be null
	1062: true, // duplicate entry
	1264: true, // out of range value
	1406: true, // data too long
	3819: true, // check constraint violated
}

const sqliteConstraint = 19

// classify marks driver errors caused by the row itself with
// port.ErrConstraintViolation. Anything else is returned unchanged.
func classify(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && mysqlConstraintErrors[myErr.Number] {
		return fmt.Errorf("%w: %w", port.ErrConstraintViolation, err)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code()&0xff == sqliteConstraint {
		return fmt.Errorf("%w: %w", port.ErrConstraintViolation, err)
	}
	return err
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
