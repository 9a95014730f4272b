// Package quote_repo archives computed quotes in PostgreSQL.
package quote_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"motodealer/internal/core/apperror"
	appctx "motodealer/internal/core/context"
	"motodealer/internal/core/id"
	"motodealer/internal/domain/quote"
	"motodealer/internal/infrastructure/storage/postgres"
)

const quotesTable = "doc_quotes"

var _ quote.Archive = (*ArchiveRepo)(nil)

// quoteRow holds the searchable summary columns plus the full quote as JSON.
type quoteRow struct {
	ID                id.ID                    `db:"id"`
	Number            *string                  `db:"number"`
	CreatedAt         time.Time                `db:"created_at"`
	Currency          string                   `db:"currency"`
	PaymentMethod     string                   `db:"payment_method"`
	FinalPrice        decimal.Decimal          `db:"final_price"`
	RemainingAmount   decimal.Decimal          `db:"remaining_amount"`
	Installments      int                      `db:"installments"`
	InstallmentAmount *decimal.Decimal         `db:"installment_amount"`
	PromotionIDs      []id.ID                  `db:"promotion_ids"`
	OperatorID        string                   `db:"operator_id"`
	Branch            string                   `db:"branch"`
	Payload           []byte                   `db:"payload"`
	PayloadCompressed []byte                   `db:"payload_compressed"`
	CompressionAlgo   postgres.CompressionAlgo `db:"compression_algo"`
}

var quoteColumns = postgres.ExtractDBColumns[quoteRow]()

// ArchiveRepo implements quote.Archive.
type ArchiveRepo struct {
	txm   *postgres.TxManager
	codec *postgres.PayloadCodec
}

// NewArchiveRepo creates an archive writing through txm.
func NewArchiveRepo(txm *postgres.TxManager, codec *postgres.PayloadCodec) *ArchiveRepo {
	return &ArchiveRepo{txm: txm, codec: codec}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Save inserts q. The full quote, schedule included, is stored as JSON and
// compressed when large.
func (r *ArchiveRepo) Save(ctx context.Context, q *quote.Quote) error {
	row, err := r.toRow(ctx, q)
	if err != nil {
		return err
	}

	sql, args, err := builder().
		Insert(quotesTable).
		SetMap(postgres.StructToMap(row)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("quote", "id", q.ID.String()).WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", quotesTable, err)
	}
	return nil
}

// Get loads an archived quote.
func (r *ArchiveRepo) Get(ctx context.Context, quoteID id.ID) (*quote.Quote, error) {
	sql, args, err := builder().
		Select(quoteColumns...).
		From(quotesTable).
		Where(squirrel.Eq{"id": quoteID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row quoteRow
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("quote", quoteID.String())
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}
	return r.fromRow(row)
}

func (r *ArchiveRepo) toRow(ctx context.Context, q *quote.Quote) (quoteRow, error) {
	raw, err := json.Marshal(q)
	if err != nil {
		return quoteRow{}, fmt.Errorf("marshal quote: %w", err)
	}
	payload := r.codec.Encode(raw)

	row := quoteRow{
		ID:                q.ID,
		CreatedAt:         q.CreatedAt,
		Currency:          string(q.Currency),
		PaymentMethod:     string(q.PaymentMethod),
		FinalPrice:        q.FinalPrice,
		RemainingAmount:   q.RemainingAmount,
		Installments:      q.Installments,
		PromotionIDs:      make([]id.ID, 0, len(q.Promotions)),
		Payload:           payload.Plain,
		PayloadCompressed: payload.Compressed,
		CompressionAlgo:   payload.Algo,
	}
	if q.Number != "" {
		number := q.Number
		row.Number = &number
	}
	for _, p := range q.Promotions {
		row.PromotionIDs = append(row.PromotionIDs, p.ID)
	}
	if q.Financing != nil {
		amount := q.Financing.InstallmentAmount
		row.InstallmentAmount = &amount
	}
	if op := appctx.GetOperator(ctx); op != nil {
		row.OperatorID = op.OperatorID
		row.Branch = op.Branch
	}
	return row, nil
}

func (r *ArchiveRepo) fromRow(row quoteRow) (*quote.Quote, error) {
	raw, err := r.codec.Decode(postgres.Payload{
		Plain:      row.Payload,
		Compressed: row.PayloadCompressed,
		Algo:       row.CompressionAlgo,
	})
	if err != nil {
		return nil, err
	}

	var q quote.Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("unmarshal quote %s: %w", row.ID, err)
	}
	return &q, nil
}
