package order

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// CompletedOrder is a row in the orders archive, written when a buyer submits
// a payment receipt.
type CompletedOrder struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	Location  string    `db:"location"`
	Variant   string    `db:"variant"`
	Months    int       `db:"months"`
	VolumeGB  int       `db:"volume_gb"`
	Price     int64     `db:"price"`
	CreatedAt time.Time `db:"created_at"`
}

// Archive persists completed orders for operator bookkeeping.
type Archive interface {
	SaveOrder(ctx context.Context, rec CompletedOrder) error
}

type pgArchive struct {
	db *sqlx.DB
}

// NewPGArchive returns an Archive backed by Postgres.
func NewPGArchive(db *sqlx.DB) Archive {
	return &pgArchive{db: db}
}

func (a *pgArchive) SaveOrder(ctx context.Context, rec CompletedOrder) error {
	const q = `
		INSERT INTO orders (id, user_id, location, variant, months, volume_gb, price, created_at)
		VALUES (:id, :user_id, :location, :variant, :months, :volume_gb, :price, :created_at)`
	_, err := a.db.NamedExecContext(ctx, q, rec)
	return err
}
