package repository

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rbxmart/fulfillment/internal/adapter/storage"
	"github.com/rbxmart/fulfillment/internal/core/domain"
)

const supplierSettingsKey = "supplier_pool"

var orderColumns = []string{
	"id", "deal_id", "chat_id", "amount_robux", "offer_url",
	"roblox_username", "gamepass_url", "gamepass_id",
	"status", "details", "last_error_code", "last_error_message",
	"retry_count", "created_at", "updated_at",
}

type Repository struct {
	db *storage.DB
}

func NewRepository(db *storage.DB) (*Repository, error) {
	return &Repository{db: db}, nil
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	details, err := json.Marshal(order.Details)
	if err != nil {
		return nil, fmt.Errorf("marshal order details: %w", err)
	}

	statement := r.db.QueryBuilder.Insert("orders").
		Columns("id", "deal_id", "chat_id", "amount_robux", "offer_url",
			"roblox_username", "gamepass_url", "gamepass_id",
			"status", "details", "last_error_code", "last_error_message", "retry_count").
		Values(order.ID, order.DealID, order.ChatID, order.AmountRobux, order.OfferURL,
			order.RobloxUsername, order.GamepassURL, order.GamepassID,
			order.Status, details, order.LastErrorCode, order.LastErrorMessage, order.RetryCount).
		Suffix("returning created_at, updated_at")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}
	return order, nil
}

func (r *Repository) UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	details, err := json.Marshal(order.Details)
	if err != nil {
		return nil, fmt.Errorf("marshal order details: %w", err)
	}

	statement := r.db.QueryBuilder.Update("orders").
		Set("roblox_username", order.RobloxUsername).
		Set("gamepass_url", order.GamepassURL).
		Set("gamepass_id", order.GamepassID).
		Set("status", order.Status).
		Set("details", details).
		Set("last_error_code", order.LastErrorCode).
		Set("last_error_message", order.LastErrorMessage).
		Set("retry_count", order.RetryCount).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": order.ID}).
		Suffix("returning updated_at")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&order.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *Repository) ReadOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID})

	return r.readOne(ctx, statement)
}

func (r *Repository) ReadOrderByDealID(ctx context.Context, dealID string) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"deal_id": dealID})

	return r.readOne(ctx, statement)
}

func (r *Repository) LatestOrderByChat(ctx context.Context, chatID string) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"chat_id": chatID}).
		OrderBy("created_at desc").
		Limit(1)

	return r.readOne(ctx, statement)
}

func (r *Repository) ListOrdersByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		OrderBy("created_at")
	if len(statuses) > 0 {
		statement = statement.Where(sq.Eq{"status": statuses})
	}

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

func (r *Repository) SaveSupplierSettings(ctx context.Context, cfg *domain.PoolConfig) error {
	value, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal supplier settings: %w", err)
	}

	statement := r.db.QueryBuilder.Insert("settings").
		Columns("key", "value").
		Values(supplierSettingsKey, value).
		Suffix("on conflict (key) do update set value = excluded.value, updated_at = now()")

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *Repository) LoadSupplierSettings(ctx context.Context) (*domain.PoolConfig, error) {
	statement := r.db.QueryBuilder.
		Select("value").
		From("settings").
		Where(sq.Eq{"key": supplierSettingsKey})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	var value []byte
	err = r.db.QueryRow(ctx, sql, args...).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	var cfg domain.PoolConfig
	if err := json.Unmarshal(value, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal supplier settings: %w", err)
	}
	return &cfg, nil
}

func (r *Repository) readOne(ctx context.Context, statement sq.SelectBuilder) (*domain.Order, error) {
	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	order, err := scanOrder(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}
	return order, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	order := domain.Order{}
	var details []byte

	err := row.Scan(
		&order.ID,
		&order.DealID,
		&order.ChatID,
		&order.AmountRobux,
		&order.OfferURL,
		&order.RobloxUsername,
		&order.GamepassURL,
		&order.GamepassID,
		&order.Status,
		&details,
		&order.LastErrorCode,
		&order.LastErrorMessage,
		&order.RetryCount,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(details) > 0 {
		if err := json.Unmarshal(details, &order.Details); err != nil {
			return nil, fmt.Errorf("unmarshal order details: %w", err)
		}
	}
	return &order, nil
}
