package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	models "point-of-sale/model"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

var (
	// ErrNotFound is returned when a product or sale does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateBarcode is returned when a product with the barcode already exists.
	ErrDuplicateBarcode = errors.New("product with this barcode already exists")
	// ErrProductInUse is returned when deleting a product referenced by recorded sales.
	ErrProductInUse = errors.New("product is referenced by recorded sales")
)

// Dialect names the database/sql driver and the SQL flavour that goes with it.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// rebind rewrites ? placeholders into $n for postgres.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) schema() string {
	if d == Postgres {
		return postgresSchema
	}
	return sqliteSchema
}

func (d Dialect) isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// SQLStore is a Store backed by database/sql.
type SQLStore struct {
	DB      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps an open handle. The schema is not touched.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{DB: db, dialect: dialect}
}

// Open connects to the database and creates missing tables. For SQLite, source
// is a file path whose parent directory is created when absent; for postgres it
// is a connection string.
func Open(ctx context.Context, dialect Dialect, source string) (*SQLStore, error) {
	var dsn string
	switch dialect {
	case SQLite:
		if dir := filepath.Dir(source); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		dsn = "file:" + source + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	case Postgres:
		dsn = source
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, err
	}
	if dialect == SQLite {
		// one writer
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s := NewSQLStore(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the products, sales and sale_items tables if needed.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, s.dialect.schema()); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error { return s.DB.Close() }

func (s *SQLStore) q(query string) string { return s.dialect.rebind(query) }

// RecordSale writes the sale, its items and the stock decrements in one
// transaction. Stock is floored at zero. A line whose product no longer exists
// aborts the whole sale.
func (s *SQLStore) RecordSale(ctx context.Context, lines []models.SaleLine, total decimal.Decimal, customerName string) (int64, error) {
	if customerName == "" {
		customerName = models.DefaultCustomer
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var saleID int64
	err = tx.QueryRowContext(ctx,
		s.q(`INSERT INTO sales (created_at, total_amount, customer_name) VALUES (?, ?, ?) RETURNING id`),
		time.Now().UTC(), total, customerName,
	).Scan(&saleID)
	if err != nil {
		return 0, fmt.Errorf("insert sale: %w", err)
	}

	for _, l := range lines {
		if _, err := tx.ExecContext(ctx,
			s.q(`INSERT INTO sale_items (sale_id, product_id, quantity, subtotal) VALUES (?, ?, ?, ?)`),
			saleID, l.ProductID, l.Quantity, l.Subtotal,
		); err != nil {
			return 0, fmt.Errorf("insert sale item for product %d: %w", l.ProductID, err)
		}

		res, err := tx.ExecContext(ctx,
			s.q(`UPDATE products SET stock = CASE WHEN stock > ? THEN stock - ? ELSE 0 END WHERE id = ?`),
			l.Quantity, l.Quantity, l.ProductID,
		)
		if err != nil {
			return 0, fmt.Errorf("decrement stock for product %d: %w", l.ProductID, err)
		}
		if ra, _ := res.RowsAffected(); ra == 0 {
			return 0, fmt.Errorf("product %d: %w", l.ProductID, ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return saleID, nil
}

func (s *SQLStore) GetSale(ctx context.Context, id int64) (models.Sale, error) {
	var sale models.Sale
	var created sqlTime
	err := s.DB.QueryRowContext(ctx,
		s.q(`SELECT id, created_at, total_amount, customer_name FROM sales WHERE id = ?`), id,
	).Scan(&sale.ID, &created, &sale.Total, &sale.CustomerName)
	if errors.Is(err, sql.ErrNoRows) {
		return sale, fmt.Errorf("sale %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return sale, err
	}
	sale.CreatedAt = created.Time
	return sale, nil
}

// ListSales returns every sale, newest first.
func (s *SQLStore) ListSales(ctx context.Context) ([]models.Sale, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, created_at, total_amount, customer_name FROM sales ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Sale{}
	for rows.Next() {
		var sale models.Sale
		var created sqlTime
		if err := rows.Scan(&sale.ID, &created, &sale.Total, &sale.CustomerName); err != nil {
			return nil, err
		}
		sale.CreatedAt = created.Time
		out = append(out, sale)
	}
	return out, rows.Err()
}

// GetSaleDetails returns the items of a sale with the products' current name
// and price next to the subtotal recorded at checkout.
func (s *SQLStore) GetSaleDetails(ctx context.Context, saleID int64) ([]models.SaleDetail, error) {
	rows, err := s.DB.QueryContext(ctx, s.q(`
		SELECT p.name, p.price, si.quantity, si.subtotal
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = ?
		ORDER BY si.id`), saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.SaleDetail{}
	for rows.Next() {
		var d models.SaleDetail
		if err := rows.Scan(&d.ProductName, &d.UnitPrice, &d.Quantity, &d.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// sqlTime scans timestamps from drivers that return either time.Time or text.
type sqlTime struct {
	Time time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *sqlTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *sqlTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
