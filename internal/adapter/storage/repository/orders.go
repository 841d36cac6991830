package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

var orderColumns = []string{
	"id", "number", "user_id", "shop_id",
	"total", "discount", "shipping_fee",
	"status", "payment_state", "payment_method", "payment_id",
	"shipping_address", "version",
	"created_at", "updated_at", "shipped_at", "delivered_at",
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	order := domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.Number,
		&order.UserID,
		&order.ShopID,
		&order.Total,
		&order.Discount,
		&order.ShippingFee,
		&order.Status,
		&order.PaymentState,
		&order.PaymentMethod,
		&order.PaymentID,
		&order.ShippingAddress,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.ShippedAt,
		&order.DeliveredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order, items []*domain.OrderItem) (*domain.Order, error) {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		orderSt := r.db.QueryBuilder.
			Insert("orders").
			Columns("number", "user_id", "shop_id", "total", "discount", "shipping_fee",
				"status", "payment_state", "shipping_address", "created_at", "updated_at").
			Values(order.Number, order.UserID, order.ShopID, order.Total, order.Discount,
				order.ShippingFee, order.Status, order.PaymentState, order.ShippingAddress,
				order.CreatedAt, order.UpdatedAt).
			Suffix("RETURNING id, version")

		sql, args, err := orderSt.ToSql()
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, sql, args...).Scan(&order.ID, &order.Version)
		if err != nil {
			return err
		}

		for _, item := range items {
			item.OrderID = order.ID
			itemSt := r.db.QueryBuilder.
				Insert("order_items").
				Columns("order_id", "product_id", "quantity", "unit_price", "color", "size").
				Values(item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Color, item.Size).
				Suffix("RETURNING id")

			sql, args, err := itemSt.ToSql()
			if err != nil {
				return err
			}
			if err := tx.QueryRow(ctx, sql, args...).Scan(&item.ID); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}

	return order, nil
}

func (r *Repository) ReadOrder(ctx context.Context, orderID uint64) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	return scanOrder(r.db.QueryRow(ctx, sql, args...))
}

func (r *Repository) readOrderForUpdate(ctx context.Context, tx pgx.Tx, orderID uint64) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID}).
		Suffix("FOR UPDATE")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	return scanOrder(tx.QueryRow(ctx, sql, args...))
}

func (r *Repository) listOrders(ctx context.Context, statement sq.SelectBuilder) ([]*domain.Order, error) {
	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (r *Repository) ListOrdersByUser(ctx context.Context, userID uint64) ([]*domain.Order, error) {
	return r.listOrders(ctx, r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC"))
}

func (r *Repository) ListOrdersByShop(ctx context.Context, shopID uint64, limit, offset uint64) ([]*domain.Order, error) {
	return r.listOrders(ctx, r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"shop_id": shopID}).
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset))
}

func (r *Repository) ListOrderItems(ctx context.Context, orderID uint64) ([]*domain.OrderItem, error) {
	statement := r.db.QueryBuilder.
		Select("id", "order_id", "product_id", "quantity", "unit_price", "color", "size").
		From("order_items").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.OrderItem, 0)
	for rows.Next() {
		item := domain.OrderItem{}
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.Color,
			&item.Size,
		)
		if err != nil {
			return nil, err
		}
		list = append(list, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// updateOrderTx writes every mutable order field with a version
// compare-and-swap. Zero rows affected means a concurrent writer bumped the
// version first.
func (r *Repository) updateOrderTx(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	statement := r.db.QueryBuilder.
		Update("orders").
		Set("status", order.Status).
		Set("payment_state", order.PaymentState).
		Set("payment_method", order.PaymentMethod).
		Set("payment_id", order.PaymentID).
		Set("updated_at", order.UpdatedAt).
		Set("shipped_at", order.ShippedAt).
		Set("delivered_at", order.DeliveredAt).
		Set("version", order.Version+1).
		Where(sq.Eq{"id": order.ID, "version": order.Version})

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	ct, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	order.Version++
	return nil
}

func (r *Repository) UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return r.updateOrderTx(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
