package repositories

import (
	"context"
	"errors"
	"fmt"

	"catalogd/internal/models"

	"github.com/jackc/pgx/v5"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Delete(ctx context.Context, id int64) error
}

type productRepo struct {
	db Database
}

func NewProductRepo(db Database) ProductRepository {
	return &productRepo{db: db}
}

// Create persists the image row and the product row in one transaction, so a
// failed product insert leaves no orphan image behind. Generated ids are
// written back onto the passed structs.
func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	if product.Image == nil {
		return errors.New("product requires an image")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin product create: %w", err)
	}
	defer tx.Rollback(ctx)

	imageQuery := `
		INSERT INTO images (file_name, url, content_type, size)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := tx.QueryRow(ctx, imageQuery,
		product.Image.FileName, product.Image.URL, product.Image.ContentType, product.Image.Size,
	).Scan(&product.Image.ID); err != nil {
		return fmt.Errorf("insert image %s: %w", product.Image.FileName, err)
	}

	productQuery := `
		INSERT INTO products (name, description, image, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := tx.QueryRow(ctx, productQuery,
		product.Name, product.Description, product.Image.ID, product.Price,
	).Scan(&product.ID); err != nil {
		return fmt.Errorf("insert product %s: %w", product.Name, err)
	}

	return tx.Commit(ctx)
}

// GetByID returns nil, nil when no product exists with the given id.
func (r *productRepo) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	product := &models.Product{Image: &models.Image{}}
	query := `
		SELECT p.id, p.name, p.description, p.price,
		       i.id, i.file_name, i.url, i.content_type, i.size
		FROM products p
		JOIN images i ON p.image = i.id
		WHERE p.id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&product.ID, &product.Name, &product.Description, &product.Price,
		&product.Image.ID, &product.Image.FileName, &product.Image.URL,
		&product.Image.ContentType, &product.Image.Size,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepo) List(ctx context.Context) ([]*models.Product, error) {
	query := `
		SELECT p.id, p.name, p.description, p.price,
		       i.id, i.file_name, i.url, i.content_type, i.size
		FROM products p
		JOIN images i ON p.image = i.id
		ORDER BY p.id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product := &models.Product{Image: &models.Image{}}
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Description, &product.Price,
			&product.Image.ID, &product.Image.FileName, &product.Image.URL,
			&product.Image.ContentType, &product.Image.Size,
		); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
