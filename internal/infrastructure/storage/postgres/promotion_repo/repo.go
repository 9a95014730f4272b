// Package promotion_repo stores the banking promotion catalogue in PostgreSQL.
package promotion_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"motodealer/internal/core/apperror"
	"motodealer/internal/core/id"
	"motodealer/internal/domain/promotion"
	"motodealer/internal/infrastructure/storage/postgres"
)

var _ promotion.Repository = (*PromotionRepo)(nil)

var (
	promotionColumns = postgres.ExtractDBColumns[promotionRow]()
	planColumns      = postgres.ExtractDBColumns[planRow]()
)

// PromotionRepo implements promotion.Repository.
type PromotionRepo struct {
	txm *postgres.TxManager
}

// New creates a promotion repository.
func New(txm *postgres.TxManager) *PromotionRepo {
	return &PromotionRepo{txm: txm}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// List returns promotions matching filter ordered by name.
func (r *PromotionRepo) List(ctx context.Context, filter promotion.Filter) ([]promotion.Promotion, error) {
	return r.load(ctx, listQuery(filter))
}

// load reads promotions and their plans from one snapshot.
func (r *PromotionRepo) load(ctx context.Context, q squirrel.SelectBuilder) ([]promotion.Promotion, error) {
	var out []promotion.Promotion
	err := r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		rows, err := r.selectPromotions(ctx, q)
		if err != nil {
			return err
		}
		out, err = r.withPlans(ctx, rows)
		return err
	})
	return out, err
}

func listQuery(filter promotion.Filter) squirrel.SelectBuilder {
	q := builder().
		Select(promotionColumns...).
		From(promotionsTable).
		OrderBy("name", "id")

	if filter.OnlyEnabled {
		q = q.Where(squirrel.Eq{"is_enabled": true})
	}
	if filter.PaymentMethod != "" {
		// An empty payment_methods array accepts every method.
		q = q.Where(squirrel.Or{
			squirrel.Expr("cardinality(payment_methods) = 0"),
			squirrel.Expr("? = ANY(payment_methods)", string(filter.PaymentMethod)),
		})
	}
	return q
}

// GetByIDs returns promotions in the order of ids.
func (r *PromotionRepo) GetByIDs(ctx context.Context, ids []id.ID) ([]promotion.Promotion, error) {
	if len(ids) == 0 {
		return []promotion.Promotion{}, nil
	}

	q := builder().
		Select(promotionColumns...).
		From(promotionsTable).
		Where(squirrel.Eq{"id": ids})

	loaded, err := r.load(ctx, q)
	if err != nil {
		return nil, err
	}

	byID := make(map[id.ID]promotion.Promotion, len(loaded))
	for _, p := range loaded {
		byID[p.ID] = p
	}

	out := make([]promotion.Promotion, 0, len(ids))
	for _, pid := range ids {
		p, ok := byID[pid]
		if !ok {
			return nil, apperror.NewNotFound("promotion", pid.String())
		}
		out = append(out, p)
	}
	return out, nil
}

// Create inserts the promotion and its plans in one transaction.
func (r *PromotionRepo) Create(ctx context.Context, p *promotion.Promotion) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		querier := r.txm.GetQuerier(ctx)

		sql, args, err := builder().
			Insert(promotionsTable).
			SetMap(postgres.StructToMap(toRow(p))).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return apperror.NewDuplicate("promotion", "id", p.ID.String()).WithCause(err)
			}
			return fmt.Errorf("insert %s: %w", promotionsTable, err)
		}

		if len(p.InstallmentPlans) == 0 {
			return nil
		}

		ins := builder().Insert(plansTable).Columns(planColumns...)
		for _, plan := range p.InstallmentPlans {
			ins = ins.Values(p.ID, plan.Installments, plan.InterestRate, plan.IsEnabled)
		}
		sql, args, err = ins.ToSql()
		if err != nil {
			return fmt.Errorf("build plans insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert %s: %w", plansTable, err)
		}
		return nil
	})
}

func (r *PromotionRepo) selectPromotions(ctx context.Context, q squirrel.SelectBuilder) ([]promotionRow, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []promotionRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	return rows, nil
}

// withPlans loads the installment plans of rows in one query.
func (r *PromotionRepo) withPlans(ctx context.Context, rows []promotionRow) ([]promotion.Promotion, error) {
	out := make([]promotion.Promotion, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]id.ID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	sql, args, err := builder().
		Select(planColumns...).
		From(plansTable).
		Where(squirrel.Eq{"promotion_id": ids}).
		OrderBy("promotion_id", "installments").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build plans query: %w", err)
	}

	var plans []planRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &plans, sql, args...); err != nil {
		return nil, fmt.Errorf("list installment plans: %w", err)
	}

	byPromotion := make(map[id.ID][]planRow, len(rows))
	for _, pl := range plans {
		byPromotion[pl.PromotionID] = append(byPromotion[pl.PromotionID], pl)
	}

	for _, row := range rows {
		out = append(out, row.toDomain(byPromotion[row.ID]))
	}
	return out, nil
}
