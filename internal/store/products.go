package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Price        float64   `json:"price"`
	Description  string    `json:"description,omitempty"`
	ImageURL     string    `json:"imageUrl"`
	Stock        int       `json:"stock"`
	IsOutOfStock bool      `json:"isOutOfStock"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SetStock sets the stock count and recomputes the out of stock flag.
// forced marks the product unavailable regardless of the count.
func (p *Product) SetStock(stock int, forced bool) {
	p.Stock = stock
	p.IsOutOfStock = forced
	p.syncStock()
}

// syncStock keeps IsOutOfStock true whenever nothing is left. Stores call it
// on every write so the flag can never contradict the count.
func (p *Product) syncStock() {
	if p.Stock < 0 {
		p.Stock = 0
	}
	if p.Stock == 0 {
		p.IsOutOfStock = true
	}
}

type PostgresProductStore struct {
	db *sql.DB
}

func (s *PostgresProductStore) List(ctx context.Context) ([]Product, error) {
	query := `
		SELECT id, name, category, price, description, image_url, stock, is_out_of_stock, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *PostgresProductStore) GetByID(ctx context.Context, id string) (*Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := `
		SELECT id, name, category, price, description, image_url, stock, is_out_of_stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var p Product
	if err := scanProduct(s.db.QueryRowContext(ctx, query, id), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *PostgresProductStore) Create(ctx context.Context, p *Product) error {
	p.syncStock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	query := `
		INSERT INTO products (id, name, category, price, description, image_url, stock, is_out_of_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRowContext(ctx, query,
		p.ID,
		p.Name,
		p.Category,
		p.Price,
		p.Description,
		p.ImageURL,
		p.Stock,
		p.IsOutOfStock,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *PostgresProductStore) Update(ctx context.Context, p *Product) error {
	if _, err := uuid.Parse(p.ID); err != nil {
		return ErrNotFound
	}
	p.syncStock()

	query := `
		UPDATE products
		SET name = $2, category = $3, price = $4, description = $5, image_url = $6,
		    stock = $7, is_out_of_stock = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRowContext(ctx, query,
		p.ID,
		p.Name,
		p.Category,
		p.Price,
		p.Description,
		p.ImageURL,
		p.Stock,
		p.IsOutOfStock,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (s *PostgresProductStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, p *Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Category,
		&p.Price,
		&p.Description,
		&p.ImageURL,
		&p.Stock,
		&p.IsOutOfStock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
