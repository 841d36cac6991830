package repository

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/dukan-market/dukanpay/internal/core/port"
	"github.com/jackc/pgx/v5"
)

var paymentColumns = []string{
	"id", "order_id", "user_id", "amount", "currency", "method", "status",
	"transaction_id", "provider_response", "note",
	"expires_at", "paid_at", "created_at", "updated_at",
}

var openPaymentStatuses = []domain.PaymentStatus{
	domain.PaymentStatusPending,
	domain.PaymentStatusProcessing,
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	payment := domain.Payment{}
	err := row.Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.UserID,
		&payment.Amount,
		&payment.Currency,
		&payment.Method,
		&payment.Status,
		&payment.TransactionID,
		&payment.ProviderResponse,
		&payment.Note,
		&payment.ExpiresAt,
		&payment.PaidAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) insertPaymentTx(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	statement := r.db.QueryBuilder.
		Insert("payments").
		Columns("id", "order_id", "user_id", "amount", "currency", "method", "status",
			"transaction_id", "provider_response", "note",
			"expires_at", "paid_at", "created_at", "updated_at").
		Values(payment.ID, payment.OrderID, payment.UserID, payment.Amount, payment.Currency,
			payment.Method, payment.Status, payment.TransactionID, payment.ProviderResponse,
			payment.Note, payment.ExpiresAt, payment.PaidAt, payment.CreatedAt, payment.UpdatedAt)

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, sql, args...)
	return err
}

func (r *Repository) updatePaymentTx(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	statement := r.db.QueryBuilder.
		Update("payments").
		Set("status", payment.Status).
		Set("transaction_id", payment.TransactionID).
		Set("provider_response", payment.ProviderResponse).
		Set("note", payment.Note).
		Set("paid_at", payment.PaidAt).
		Set("updated_at", payment.UpdatedAt).
		Where(sq.Eq{"id": payment.ID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, sql, args...)
	return err
}

func (r *Repository) readPaymentForUpdate(ctx context.Context, tx pgx.Tx, paymentID string) (*domain.Payment, error) {
	statement := r.db.QueryBuilder.
		Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"id": paymentID}).
		Suffix("FOR UPDATE")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	return scanPayment(tx.QueryRow(ctx, sql, args...))
}

func (r *Repository) ReadPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	statement := r.db.QueryBuilder.
		Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"id": paymentID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	return scanPayment(r.db.QueryRow(ctx, sql, args...))
}

func (r *Repository) FindPaymentByTransaction(ctx context.Context,
	method domain.PaymentMethod, transactionID string) (*domain.Payment, error) {
	statement := r.db.QueryBuilder.
		Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"method": method, "transaction_id": transactionID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	return scanPayment(r.db.QueryRow(ctx, sql, args...))
}

func (r *Repository) listPayments(ctx context.Context, statement sq.SelectBuilder) ([]*domain.Payment, error) {
	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (r *Repository) ListPaymentsByOrder(ctx context.Context, userID, orderID uint64) ([]*domain.Payment, error) {
	return r.listPayments(ctx, r.db.QueryBuilder.
		Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"user_id": userID, "order_id": orderID}).
		OrderBy("created_at DESC"))
}

func (r *Repository) ListPaymentsByUser(ctx context.Context, userID uint64) ([]*domain.Payment, error) {
	return r.listPayments(ctx, r.db.QueryBuilder.
		Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC"))
}

// ListStalePayments returns open provider payments whose expiry has elapsed.
// Cash payments stay pending until delivery and are never stale.
func (r *Repository) ListStalePayments(ctx context.Context, before time.Time) ([]*domain.Payment, error) {
	return r.listPayments(ctx, r.db.QueryBuilder.
		Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"status": openPaymentStatuses}).
		Where(sq.Lt{"expires_at": before}).
		Where(sq.NotEq{"method": domain.PaymentMethodCash}).
		OrderBy("expires_at"))
}

// InitiatePayment inserts the payment and applies orderFn to its order in one
// transaction, with the order row locked for the duration.
func (r *Repository) InitiatePayment(ctx context.Context, payment *domain.Payment,
	orderFn port.UpdateOrderFn) (*domain.Payment, error) {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		order, err := r.readOrderForUpdate(ctx, tx, payment.OrderID)
		if err != nil {
			return err
		}

		if err := orderFn(order); err != nil {
			return err
		}

		if err := r.insertPaymentTx(ctx, tx, payment); err != nil {
			return err
		}

		return r.updateOrderTx(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// SettlePayment applies fn to a payment and its order inside one transaction.
// Lock order is payment row, then order row; every settlement path takes
// locks in that same sequence.
func (r *Repository) SettlePayment(ctx context.Context, paymentID string,
	fn port.SettlePaymentFn) (*domain.Payment, error) {
	var payment *domain.Payment
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		probe, err := r.readPaymentForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		order, err := r.readOrderForUpdate(ctx, tx, probe.OrderID)
		if err != nil {
			return err
		}

		payment = probe
		if err := fn(order, payment); err != nil {
			return err
		}

		if err := r.updatePaymentTx(ctx, tx, payment); err != nil {
			return err
		}

		return r.updateOrderTx(ctx, tx, order)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// UpdateUserBalanceByPayment applies fn to the buyer's balance together with
// the payment and its order, all rows locked in one transaction. The debit is
// conditional inside fn, so check and deduction cannot race.
func (r *Repository) UpdateUserBalanceByPayment(ctx context.Context, userID uint64,
	paymentID string, fn port.UpdateBalanceFn) (*domain.Balance, error) {
	var balance *domain.Balance
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		payment, err := r.readPaymentForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		order, err := r.readOrderForUpdate(ctx, tx, payment.OrderID)
		if err != nil {
			return err
		}

		balance, err = r.readBalanceForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := fn(balance, order, payment); err != nil {
			return err
		}

		if err := r.updateBalanceTx(ctx, tx, balance); err != nil {
			return err
		}
		if err := r.updatePaymentTx(ctx, tx, payment); err != nil {
			return err
		}
		return r.updateOrderTx(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}
