package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/dukan-market/dukanpay/internal/adapter/storage"
	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/govalues/decimal"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Repository struct {
	db *storage.DB
}

func NewRepository(db *storage.DB) (*Repository, error) {
	return &Repository{db: db}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		userSt := r.db.QueryBuilder.
			Insert("users").
			Columns("login", "password", "shop_id").
			Values(user.Login, user.Password, user.ShopID).
			Suffix("RETURNING id")

		sql, args, err := userSt.ToSql()
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, sql, args...).Scan(&user.ID)
		if err != nil {
			return err
		}

		balanceSt := r.db.QueryBuilder.
			Insert("balances").
			Columns("user_id", "current", "spent").
			Values(user.ID, decimal.Zero, decimal.Zero)

		sql, args, err = balanceSt.ToSql()
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, sql, args...)
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	statement := r.db.QueryBuilder.
		Select("id", "login", "password", "shop_id").
		From("users").
		Where(sq.Eq{"login": login})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	user := domain.User{}

	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&user.ID,
		&user.Login,
		&user.Password,
		&user.ShopID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *Repository) ReadBalanceByUserID(ctx context.Context, userID uint64) (*domain.Balance, error) {
	statement := r.db.QueryBuilder.
		Select("user_id", "current", "spent").
		From("balances").
		Where(sq.Eq{"user_id": userID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	balance := domain.Balance{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&balance.UserID, &balance.Current, &balance.Spent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	return &balance, nil
}

func (r *Repository) readBalanceForUpdate(ctx context.Context, tx pgx.Tx, userID uint64) (*domain.Balance, error) {
	statement := r.db.QueryBuilder.
		Select("user_id", "current", "spent").
		From("balances").
		Where(sq.Eq{"user_id": userID}).
		Suffix("FOR UPDATE")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	balance := domain.Balance{}
	err = tx.QueryRow(ctx, sql, args...).Scan(&balance.UserID, &balance.Current, &balance.Spent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	return &balance, nil
}

func (r *Repository) updateBalanceTx(ctx context.Context, tx pgx.Tx, balance *domain.Balance) error {
	statement := r.db.QueryBuilder.
		Update("balances").
		Set("current", balance.Current).
		Set("spent", balance.Spent).
		Where(sq.Eq{"user_id": balance.UserID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, sql, args...)
	return err
}

// RecordProviderEvent relies on the (provider, event_id) unique constraint
// for webhook replay detection.
func (r *Repository) RecordProviderEvent(ctx context.Context, event *domain.ProviderEvent) (bool, error) {
	statement := r.db.QueryBuilder.
		Insert("provider_events").
		Columns("id", "provider", "event_id", "payload", "received_at").
		Values(event.ID, event.Provider, event.EventID, event.Payload, event.ReceivedAt)

	sql, args, err := statement.ToSql()
	if err != nil {
		return false, err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
