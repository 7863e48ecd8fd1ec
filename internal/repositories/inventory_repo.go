package repositories

import (
	"context"
	"errors"

	"catalogd/internal/models"

	"github.com/jackc/pgx/v5"
)

type InventoryRepository interface {
	FindByProduct(ctx context.Context, productID int64) (*models.Inventory, error)
	Create(ctx context.Context, inventory *models.Inventory) error
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	DecrementIfAvailable(ctx context.Context, productID int64, amount int) (bool, error)
	ListBelow(ctx context.Context, threshold int) ([]*models.Inventory, error)
}

type inventoryRepo struct {
	db Database
}

func NewInventoryRepo(db Database) InventoryRepository {
	return &inventoryRepo{db: db}
}

// FindByProduct returns the single inventory row for a product, or nil when no
// stock has been registered yet. Absence is not an error.
func (r *inventoryRepo) FindByProduct(ctx context.Context, productID int64) (*models.Inventory, error) {
	inventory := &models.Inventory{}
	query := `
		SELECT id, product_id, quantity
		FROM inventory
		WHERE product_id = $1
	`
	err := r.db.QueryRow(ctx, query, productID).Scan(&inventory.ID, &inventory.ProductID, &inventory.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return inventory, nil
}

func (r *inventoryRepo) Create(ctx context.Context, inventory *models.Inventory) error {
	query := `
		INSERT INTO inventory (product_id, quantity)
		VALUES ($1, $2)
		RETURNING id
	`
	return r.db.QueryRow(ctx, query, inventory.ProductID, inventory.Quantity).Scan(&inventory.ID)
}

func (r *inventoryRepo) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	query := `
		UPDATE inventory
		SET quantity = $1
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, quantity, id)
	return err
}

// DecrementIfAvailable subtracts amount from the product's stock in a single
// statement guarded by the current quantity. The guard serializes concurrent
// adjustments against the same product: the row can never go negative and no
// read-modify-write race exists. Returns false when stock was insufficient or
// the row does not exist; nothing is written in either case.
func (r *inventoryRepo) DecrementIfAvailable(ctx context.Context, productID int64, amount int) (bool, error) {
	query := `
		UPDATE inventory
		SET quantity = quantity - $1
		WHERE product_id = $2 AND quantity >= $1
	`
	tag, err := r.db.Exec(ctx, query, amount, productID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *inventoryRepo) ListBelow(ctx context.Context, threshold int) ([]*models.Inventory, error) {
	query := `
		SELECT id, product_id, quantity
		FROM inventory
		WHERE quantity <= $1
		ORDER BY quantity ASC
	`
	rows, err := r.db.Query(ctx, query, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inventories []*models.Inventory
	for rows.Next() {
		inventory := &models.Inventory{}
		if err := rows.Scan(&inventory.ID, &inventory.ProductID, &inventory.Quantity); err != nil {
			return nil, err
		}
		inventories = append(inventories, inventory)
	}
	return inventories, rows.Err()
}
