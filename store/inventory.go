package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	models "point-of-sale/model"
)

const productColumns = `id, barcode, name, price, stock`

// AddProduct inserts a product and returns its id. ErrDuplicateBarcode is
// returned, and nothing is written, when the barcode is taken.
func (s *SQLStore) AddProduct(ctx context.Context, p models.Product) (int64, error) {
	var existing int
	if err := s.DB.QueryRowContext(ctx,
		s.q(`SELECT COUNT(*) FROM products WHERE barcode = ?`), p.Barcode,
	).Scan(&existing); err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, ErrDuplicateBarcode
	}

	var id int64
	err := s.DB.QueryRowContext(ctx,
		s.q(`INSERT INTO products (barcode, name, price, stock) VALUES (?, ?, ?, ?) RETURNING id`),
		p.Barcode, p.Name, p.Price, p.Stock,
	).Scan(&id)
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return 0, ErrDuplicateBarcode
		}
		return 0, err
	}
	return id, nil
}

func (s *SQLStore) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	row := s.DB.QueryRowContext(ctx, s.q(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *SQLStore) GetProductByBarcode(ctx context.Context, barcode string) (models.Product, error) {
	row := s.DB.QueryRowContext(ctx, s.q(`SELECT `+productColumns+` FROM products WHERE barcode = ?`), barcode)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("barcode %q: %w", barcode, ErrNotFound)
	}
	return p, err
}

// ListProducts returns the catalogue ordered by name.
func (s *SQLStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

// SearchProducts returns the products whose name or barcode contains term,
// ignoring case. Matching is a literal substring test done in Go, so accented
// names fold correctly and % or _ in term are not wildcards.
func (s *SQLStore) SearchProducts(ctx context.Context, term string) ([]models.Product, error) {
	all, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	out := []models.Product{}
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(strings.ToLower(p.Barcode), needle) {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpdateProduct overwrites name, price and stock. The barcode is immutable.
func (s *SQLStore) UpdateProduct(ctx context.Context, p models.Product) error {
	res, err := s.DB.ExecContext(ctx,
		s.q(`UPDATE products SET name = ?, price = ?, stock = ? WHERE id = ?`),
		p.Name, p.Price, p.Stock, p.ID,
	)
	if err != nil {
		return err
	}
	if ra, _ := res.RowsAffected(); ra == 0 {
		return fmt.Errorf("product %d: %w", p.ID, ErrNotFound)
	}
	return nil
}

// DeleteProduct removes a product that no sale refers to.
func (s *SQLStore) DeleteProduct(ctx context.Context, id int64) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var refs int
	if err := tx.QueryRowContext(ctx,
		s.q(`SELECT COUNT(*) FROM sale_items WHERE product_id = ?`), id,
	).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrProductInUse
	}

	res, err := tx.ExecContext(ctx, s.q(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if ra, _ := res.RowsAffected(); ra == 0 {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Barcode, &p.Name, &p.Price, &p.Stock)
	return p, err
}

func scanProducts(rows *sql.Rows) ([]models.Product, error) {
	defer rows.Close()
	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
